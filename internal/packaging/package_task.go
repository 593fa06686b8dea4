// SPDX-License-Identifier: MPL-2.0

package packaging

import (
	"context"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/log"

	"drvpack-cli/internal/providers"
	"drvpack-cli/pkg/wdkmeta"
)

// Tool names resolved through PATH at invocation time. All of them ship
// with the Windows Driver Kit or the Windows SDK.
const (
	stampTool       = "stampinf"
	catalogTool     = "inf2cat"
	certStoreTool   = "certmgr"
	certCreateTool  = "makecert"
	signTool        = "signtool"
	descriptorsTool = "infverif"
)

const (
	// DefaultCertStore is the certificate store test certificates are kept
	// in when the user configures nothing else.
	DefaultCertStore = "WDRTestCertStore"
	// DefaultCertName is the subject name of the generated test
	// certificate.
	DefaultCertName = "WDRLocalTestCert"
	// DefaultTimestampURL is the timestamp authority consulted while
	// signing.
	DefaultTimestampURL = "http://timestamp.digicert.com"

	// codeSigningEKU is the extended-key-usage OID restricting generated
	// certificates to code signing.
	codeSigningEKU = "1.3.6.1.5.5.7.3.3"

	// sampleClassFlag relaxes descriptor verification for sample-class
	// drivers on toolkits that support it.
	sampleClassFlag = "/msft"
)

type (
	// SigningOptions select the store, certificate, and timestamp
	// authority used for test signing. Zero fields fall back to the
	// defaults above.
	SigningOptions struct {
		CertStore    string
		CertName     string
		TimestampURL string
	}

	// PackageTaskOptions carry everything a PackageTask needs beyond its
	// collaborators.
	PackageTaskOptions struct {
		Paths       PackagePaths
		Config      wdkmeta.DriverConfig
		Arch        Arch
		SampleClass bool
		VerifySig   bool
		Signing     SigningOptions
	}

	// PackageTask assembles one driver package: it lays out the package
	// directory, stamps and verifies the install descriptor, generates the
	// catalog, and signs the binary and catalog with a test certificate.
	// The sequence is fixed and fail-fast.
	PackageTask struct {
		opts      PackageTaskOptions
		runner    providers.CommandRunner
		fs        providers.Filesystem
		buildInfo providers.BuildInfo
		logger    *log.Logger
	}
)

func (o *SigningOptions) applyDefaults() {
	if o.CertStore == "" {
		o.CertStore = DefaultCertStore
	}
	if o.CertName == "" {
		o.CertName = DefaultCertName
	}
	if o.TimestampURL == "" {
		o.TimestampURL = DefaultTimestampURL
	}
}

// NewPackageTask prepares a PackageTask and ensures the destination
// package directory exists. Creation is skipped when the directory is
// already present, so repeated runs reuse it.
func NewPackageTask(
	opts PackageTaskOptions,
	runner providers.CommandRunner,
	fs providers.Filesystem,
	buildInfo providers.BuildInfo,
	logger *log.Logger,
) (*PackageTask, error) {
	opts.Signing.applyDefaults()
	if !fs.Exists(opts.Paths.PackageDir) {
		if err := fs.CreateDir(opts.Paths.PackageDir); err != nil {
			return nil, err
		}
	}
	return &PackageTask{
		opts:      opts,
		runner:    runner,
		fs:        fs,
		buildInfo: buildInfo,
		logger:    logger,
	}, nil
}

// Run executes the packaging pipeline. The first failing step aborts the
// remaining ones and its error is returned as-is.
func (t *PackageTask) Run(ctx context.Context) error {
	paths := t.opts.Paths

	if !t.fs.Exists(paths.SrcDescriptor) {
		return &MissingSourceDescriptorError{Path: paths.SrcDescriptor}
	}

	t.logger.Debug("renaming driver binary", "from", paths.SrcBinary, "to", paths.SrcRenamedBinary)
	if err := t.fs.Rename(paths.SrcBinary, paths.SrcRenamedBinary); err != nil {
		return err
	}

	copies := []struct{ src, dest string }{
		{paths.SrcRenamedBinary, paths.DestBinary},
		{paths.SrcPDB, paths.DestPDB},
		{paths.SrcDescriptor, paths.DestDescriptor},
		{paths.SrcMap, paths.DestMap},
	}
	for _, c := range copies {
		t.logger.Debug("copying into package", "src", c.src, "dest", c.dest)
		if err := t.fs.Copy(c.src, c.dest); err != nil {
			return err
		}
	}

	if err := t.stampDescriptor(ctx); err != nil {
		return err
	}
	if err := t.generateCatalog(ctx); err != nil {
		return err
	}
	if err := t.ensureCertificate(ctx); err != nil {
		return err
	}

	t.logger.Debug("copying certificate into package", "dest", paths.DestCert)
	if err := t.fs.Copy(paths.SrcCert, paths.DestCert); err != nil {
		return err
	}

	for _, file := range []string{paths.DestBinary, paths.DestCatalog} {
		if err := t.sign(ctx, file); err != nil {
			return err
		}
	}

	if err := t.verifyDescriptor(ctx); err != nil {
		return err
	}

	if t.opts.VerifySig {
		for _, file := range []string{paths.DestBinary, paths.DestCatalog} {
			if err := t.verifySignature(ctx, file); err != nil {
				return err
			}
		}
	}

	t.logger.Info("driver package assembled", "dir", paths.PackageDir)
	return nil
}

func (t *PackageTask) stampDescriptor(ctx context.Context) error {
	args := []string{
		"-f", t.opts.Paths.DestDescriptor,
		"-d", "*",
		"-a", t.opts.Arch.StampToken(),
		"-c", filepath.Base(t.opts.Paths.DestCatalog),
		"-v", "*",
	}
	args = append(args, t.opts.Config.StampVersionFlags()...)

	t.logger.Debug("stamping install descriptor", "descriptor", t.opts.Paths.DestDescriptor)
	if _, err := t.runner.Run(ctx, stampTool, args, nil); err != nil {
		return &StampingError{Err: err}
	}
	return nil
}

func (t *PackageTask) generateCatalog(ctx context.Context) error {
	args := []string{
		"/driver:" + t.opts.Paths.PackageDir,
		"/os:" + t.opts.Arch.OSToken(),
		"/uselocaltime",
	}
	t.logger.Debug("generating catalog", "dir", t.opts.Paths.PackageDir)
	if _, err := t.runner.Run(ctx, catalogTool, args, nil); err != nil {
		return &CatalogGenerationError{Err: err}
	}
	return nil
}

// ensureCertificate guarantees the test certificate exists as a file next
// to the artifacts. Three states are possible: the file already exists
// (nothing to do), the certificate lives in the store but was never
// exported (export it), or it is absent entirely (generate a fresh
// self-signed one into the store, which also writes the file).
func (t *PackageTask) ensureCertificate(ctx context.Context) error {
	if t.fs.Exists(t.opts.Paths.SrcCert) {
		t.logger.Debug("certificate file already present", "path", t.opts.Paths.SrcCert)
		return nil
	}

	store, name := t.opts.Signing.CertStore, t.opts.Signing.CertName
	out, err := t.runner.Run(ctx, certStoreTool, []string{"-s", store}, nil)
	if err != nil {
		return &CertStoreListError{Err: err}
	}
	if !utf8.Valid(out.Stdout) {
		return &CertStoreOutputError{Err: ErrNonTextualOutput}
	}

	if strings.Contains(string(out.Stdout), name) {
		t.logger.Debug("exporting certificate from store", "store", store, "name", name)
		args := []string{"-put", "-s", store, "-c", "-n", name, t.opts.Paths.SrcCert}
		if _, err := t.runner.Run(ctx, certStoreTool, args, nil); err != nil {
			return &CertExportError{Err: err}
		}
		return nil
	}

	t.logger.Debug("generating self-signed certificate", "store", store, "name", name)
	args := []string{
		"-r", "-pe",
		"-a", "SHA256",
		"-eku", codeSigningEKU,
		"-ss", store,
		"-n", "CN=" + name,
		t.opts.Paths.SrcCert,
	}
	if _, err := t.runner.Run(ctx, certCreateTool, args, nil); err != nil {
		return &CertGenerationError{Err: err}
	}
	return nil
}

func (t *PackageTask) sign(ctx context.Context, file string) error {
	args := []string{
		"sign", "/v",
		"/s", t.opts.Signing.CertStore,
		"/n", t.opts.Signing.CertName,
		"/t", t.opts.Signing.TimestampURL,
		"/fd", "SHA256",
		file,
	}
	t.logger.Debug("signing", "file", file)
	if _, err := t.runner.Run(ctx, signTool, args, nil); err != nil {
		return &SigningError{File: file, Err: err}
	}
	return nil
}

// verifyDescriptor runs the descriptor verification tool. For
// sample-class drivers the toolkit build number gates the whole step:
// broken builds reject sample-class descriptors regardless of flags, so
// verification is skipped there instead of failing every package.
func (t *PackageTask) verifyDescriptor(ctx context.Context) error {
	args := []string{"/v", t.opts.Config.InfVerifModelFlag()}
	if t.opts.SampleClass {
		build, err := t.buildInfo.BuildNumber()
		if err != nil {
			return &InfVerificationError{Err: err}
		}
		if skipSampleVerification(build) {
			t.logger.Warn("skipping descriptor verification: installed toolkit cannot verify sample-class drivers", "build", build)
			return nil
		}
		args = append(args, sampleClassFlag)
	}
	args = append(args, t.opts.Paths.DestDescriptor)

	t.logger.Debug("verifying install descriptor", "descriptor", t.opts.Paths.DestDescriptor)
	if _, err := t.runner.Run(ctx, descriptorsTool, args, nil); err != nil {
		return &InfVerificationError{Err: err}
	}
	return nil
}

func (t *PackageTask) verifySignature(ctx context.Context, file string) error {
	t.logger.Debug("verifying signature", "file", file)
	if _, err := t.runner.Run(ctx, signTool, []string{"verify", "/v", "/pa", file}, nil); err != nil {
		return &SignatureVerificationError{File: file, Err: err}
	}
	return nil
}
