// SPDX-License-Identifier: MPL-2.0

package packaging

import (
	"path/filepath"
	"strings"

	"drvpack-cli/pkg/wdkmeta"
)

const (
	// packageDirSuffix is appended to the normalized package name to form
	// the package directory under the artifact directory.
	packageDirSuffix = "_package"

	// certFileName is the file name of the exported test certificate, both
	// next to the artifacts and inside the package directory.
	certFileName = "WDRLocalTestCert.cer"
)

// PackagePaths holds every source and destination path the packaging
// pipeline touches for one driver package. All paths are absolute as long
// as the inputs are.
type PackagePaths struct {
	// PackageDir is the directory the final package is assembled in.
	PackageDir string

	SrcBinary        string
	SrcRenamedBinary string
	SrcPDB           string
	SrcDescriptor    string
	SrcMap           string
	SrcCert          string

	DestBinary     string
	DestPDB        string
	DestDescriptor string
	DestMap        string
	DestCatalog    string
	DestCert       string
}

// NewPackagePaths computes the path layout for a package. artifactDir is
// the directory the build dropped the compiled library in, packageRoot is
// the directory holding the package's manifest, and name is the package
// name as written in the manifest. Dashes in the name are normalized to
// underscores to match the compiler's artifact naming.
func NewPackagePaths(artifactDir, packageRoot, name string, cfg wdkmeta.DriverConfig) PackagePaths {
	base := strings.ReplaceAll(name, "-", "_")
	pkgDir := filepath.Join(artifactDir, base+packageDirSuffix)
	return PackagePaths{
		PackageDir: pkgDir,

		SrcBinary:        filepath.Join(artifactDir, base+".dll"),
		SrcRenamedBinary: filepath.Join(artifactDir, base+"."+cfg.BinaryExtension()),
		SrcPDB:           filepath.Join(artifactDir, base+".pdb"),
		SrcDescriptor:    filepath.Join(packageRoot, base+".inx"),
		SrcMap:           filepath.Join(artifactDir, "deps", base+".map"),
		SrcCert:          filepath.Join(artifactDir, certFileName),

		DestBinary:     filepath.Join(pkgDir, base+"."+cfg.BinaryExtension()),
		DestPDB:        filepath.Join(pkgDir, base+".pdb"),
		DestDescriptor: filepath.Join(pkgDir, base+".inf"),
		DestMap:        filepath.Join(pkgDir, base+".map"),
		DestCatalog:    filepath.Join(pkgDir, base+".cat"),
		DestCert:       filepath.Join(pkgDir, certFileName),
	}
}
