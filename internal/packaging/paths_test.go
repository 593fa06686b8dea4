// SPDX-License-Identifier: MPL-2.0

package packaging

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"drvpack-cli/pkg/wdkmeta"
)

func TestNewPackagePaths(t *testing.T) {
	t.Parallel()

	artifactDir := filepath.Join("ws", "target", "debug")
	pkgRoot := filepath.Join("ws", "sample-driver")

	t.Run("kernel driver uses sys extension and normalized name", func(t *testing.T) {
		t.Parallel()

		cfg := wdkmeta.DriverConfig{DriverType: wdkmeta.DriverTypeKmdf}
		paths := NewPackagePaths(artifactDir, pkgRoot, "sample-driver", cfg)

		pkgDir := filepath.Join(artifactDir, "sample_driver_package")
		assert.Equal(t, pkgDir, paths.PackageDir)

		assert.Equal(t, filepath.Join(artifactDir, "sample_driver.dll"), paths.SrcBinary)
		assert.Equal(t, filepath.Join(artifactDir, "sample_driver.sys"), paths.SrcRenamedBinary)
		assert.Equal(t, filepath.Join(artifactDir, "sample_driver.pdb"), paths.SrcPDB)
		assert.Equal(t, filepath.Join(pkgRoot, "sample_driver.inx"), paths.SrcDescriptor)
		assert.Equal(t, filepath.Join(artifactDir, "deps", "sample_driver.map"), paths.SrcMap)
		assert.Equal(t, filepath.Join(artifactDir, "WDRLocalTestCert.cer"), paths.SrcCert)

		assert.Equal(t, filepath.Join(pkgDir, "sample_driver.sys"), paths.DestBinary)
		assert.Equal(t, filepath.Join(pkgDir, "sample_driver.pdb"), paths.DestPDB)
		assert.Equal(t, filepath.Join(pkgDir, "sample_driver.inf"), paths.DestDescriptor)
		assert.Equal(t, filepath.Join(pkgDir, "sample_driver.map"), paths.DestMap)
		assert.Equal(t, filepath.Join(pkgDir, "sample_driver.cat"), paths.DestCatalog)
		assert.Equal(t, filepath.Join(pkgDir, "WDRLocalTestCert.cer"), paths.DestCert)
	})

	t.Run("user-mode driver keeps dll extension", func(t *testing.T) {
		t.Parallel()

		cfg := wdkmeta.DriverConfig{DriverType: wdkmeta.DriverTypeUmdf}
		paths := NewPackagePaths(artifactDir, pkgRoot, "umdf_driver", cfg)

		assert.Equal(t, paths.SrcBinary, paths.SrcRenamedBinary)
		assert.Equal(t, filepath.Join(artifactDir, "umdf_driver_package", "umdf_driver.dll"), paths.DestBinary)
	})
}
