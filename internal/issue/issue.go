// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	WDKNotFoundId Id = iota + 1
	ToolchainNotFoundId
	NoConfigurationId
	MultipleConfigurationsId
	NoValidProjectsId
	NotWorkspaceMemberId
	MissingDescriptorId
	CertStoreAccessId
	SigningFailedId
	DescriptorVerificationFailedId
	ConfigLoadFailedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

// Issue pairs a failure class with rendered remediation guidance.
type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // reference documentation for the failure class
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	wdkNotFoundIssue = &Issue{
		id: WDKNotFoundId,
		mdMsg: `
# Windows Driver Kit not found!

We could not locate an installed WDK, so the packaging tools
(stampinf, inf2cat, infverif, signtool) are unavailable.

## Things you can try:
- Install the Windows Driver Kit from the Windows Dev Center
- If the WDK lives in a non-standard location, point us at it:
~~~
$ set WDKContentRoot=D:\EWDK\Program Files\Windows Kits\10
~~~
- Verify the kit's Include directory contains a versioned
  subdirectory such as 10.0.22621.0`,
		extLinks: []HttpLink{
			"https://learn.microsoft.com/windows-hardware/drivers/download-the-wdk",
		},
	}

	toolchainNotFoundIssue = &Issue{
		id: ToolchainNotFoundId,
		mdMsg: `
# Compiler toolchain not found!

Running the build requires cargo and rustc on PATH.

## Things you can try:
- Install the toolchain via rustup:
~~~
$ winget install Rustlang.Rustup
~~~
- Open a new terminal so PATH changes take effect
- Check the installation:
~~~
$ cargo --version
$ rustc --version
~~~`,
	}

	noConfigurationIssue = &Issue{
		id: NoConfigurationId,
		mdMsg: `
# No driver configuration detected!

Neither the workspace manifest nor any member package declares a
driver model under the wdk metadata namespace.

## Things you can try:
- Add a driver model to the driver crate's Cargo.toml:
~~~toml
[package.metadata.wdk.driver-model]
driver-type = "KMDF"
kmdf-version-major = 1
target-kmdf-version-minor = 33
~~~
- Or declare it once at workspace scope under
  [workspace.metadata.wdk.driver-model]
- Scaffold a fresh, correctly configured crate:
~~~
$ drvpack new --kmdf my-driver
~~~`,
	}

	multipleConfigurationsIssue = &Issue{
		id: MultipleConfigurationsId,
		mdMsg: `
# Conflicting driver configurations detected!

More than one distinct driver configuration was found across the
workspace and its member packages. There is no safe way to guess
which one should win.

## Things you can try:
- Declare the driver model in exactly one place, or make every
  declaration structurally identical
- Check both [workspace.metadata.wdk] and each member's
  [package.metadata.wdk] section
- The error message lists every distinct configuration found`,
	}

	noValidProjectsIssue = &Issue{
		id: NoValidProjectsId,
		mdMsg: `
# No valid projects found!

The working directory holds no manifest, and none of its immediate
subdirectories does either.

## Things you can try:
- Run from a crate or workspace directory (one containing Cargo.toml)
- Or from a directory whose immediate subdirectories are crates
- Create a new driver project:
~~~
$ drvpack new --kmdf my-driver
~~~`,
	}

	notWorkspaceMemberIssue = &Issue{
		id: NotWorkspaceMemberId,
		mdMsg: `
# Not a workspace member!

The working directory sits inside a workspace but does not match the
workspace root or any member package's root.

## Things you can try:
- Run from the workspace root to process every member
- Run from a member package's own directory to process just that one
- Check [workspace.members] in the root Cargo.toml`,
	}

	missingDescriptorIssue = &Issue{
		id: MissingDescriptorId,
		mdMsg: `
# Install-descriptor template missing!

Packaging needs a <crate_name>.inx file next to the crate's manifest;
it becomes the stamped .inf inside the package.

## Things you can try:
- Add a <crate_name>.inx file to the crate root (note: underscores,
  not dashes, matching the compiled artifact name)
- Scaffolded projects get one automatically:
~~~
$ drvpack new --kmdf my-driver
~~~`,
	}

	certStoreAccessIssue = &Issue{
		id: CertStoreAccessId,
		mdMsg: `
# Certificate store access failed!

Listing, exporting from, or writing to the test certificate store
did not succeed.

## Things you can try:
- Run from an elevated prompt; store writes may require it
- Inspect the store yourself:
~~~
$ certmgr -s WDRTestCertStore
~~~
- Delete a broken store entry and let packaging regenerate it`,
	}

	signingFailedIssue = &Issue{
		id: SigningFailedId,
		mdMsg: `
# Signing failed!

signtool could not sign the driver binary or the catalog.

## Things you can try:
- Check that the test certificate exists in the store:
~~~
$ certmgr -s WDRTestCertStore
~~~
- Delete a stale WDRLocalTestCert.cer next to the build artifacts so
  a fresh certificate is generated
- Timestamping needs network access to the timestamp authority`,
	}

	descriptorVerificationFailedIssue = &Issue{
		id: DescriptorVerificationFailedId,
		mdMsg: `
# Install-descriptor verification failed!

infverif rejected the stamped .inf file.

## Common causes:
- Sections referencing files not present in the package
- A service name that does not match the binary name
- Sample-class INFs verified without the sample flag

## Things you can try:
- Read the infverif output above for the exact line
- For sample drivers, pass the sample-class flag to packaging
- Verify manually:
~~~
$ infverif /v /w path\to\driver.inf
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

Your drvpack config file could not be parsed or validated.

## Things you can try:
- Check the error message above for the specific field
- Validate the CUE syntax of your config file
- Remove the file to fall back to built-in defaults

## Example of a valid config:
~~~cue
profile: "release"

signing: {
	cert_store: "WDRTestCertStore"
	cert_name:  "WDRLocalTestCert"
}

ui: {
	verbose: false
}
~~~`,
	}

	issues = map[Id]*Issue{
		wdkNotFoundIssue.Id():                  wdkNotFoundIssue,
		toolchainNotFoundIssue.Id():            toolchainNotFoundIssue,
		noConfigurationIssue.Id():              noConfigurationIssue,
		multipleConfigurationsIssue.Id():       multipleConfigurationsIssue,
		noValidProjectsIssue.Id():              noValidProjectsIssue,
		notWorkspaceMemberIssue.Id():           notWorkspaceMemberIssue,
		missingDescriptorIssue.Id():            missingDescriptorIssue,
		certStoreAccessIssue.Id():              certStoreAccessIssue,
		signingFailedIssue.Id():                signingFailedIssue,
		descriptorVerificationFailedIssue.Id(): descriptorVerificationFailedIssue,
		configLoadFailedIssue.Id():             configLoadFailedIssue,
	}
)

func Values() []*Issue {
	return maps.Values(issues)
}

func Get(id Id) *Issue {
	return issues[id]
}
