// SPDX-License-Identifier: MPL-2.0

package packaging

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drvpack-cli/internal/providers"
	"drvpack-cli/pkg/wdkmeta"
)

var (
	wdmConfig  = wdkmeta.DriverConfig{DriverType: wdkmeta.DriverTypeWdm}
	kmdfConfig = wdkmeta.DriverConfig{
		DriverType: wdkmeta.DriverTypeKmdf,
		Kmdf:       wdkmeta.KmdfConfig{KmdfVersionMajor: 1, TargetKmdfVersionMinor: 33},
	}
	umdfConfig = wdkmeta.DriverConfig{
		DriverType: wdkmeta.DriverTypeUmdf,
		Umdf:       wdkmeta.UmdfConfig{UmdfVersionMajor: 2, TargetUmdfVersionMinor: 33},
	}
)

// taskFixture wires a PackageTask against fakes. The fake filesystem
// starts with every source artifact present, including the certificate
// file and the package directory; tests remove paths to exercise the
// other branches.
type taskFixture struct {
	runner    *fakeRunner
	fs        *fakeFS
	buildInfo *fakeBuildInfo
	opts      PackageTaskOptions
}

func newTaskFixture(cfg wdkmeta.DriverConfig) *taskFixture {
	paths := NewPackagePaths(filepath.Join("target", "debug"), "pkgroot", "sample-driver", cfg)
	fs := newFakeFS(
		paths.SrcDescriptor,
		paths.SrcBinary,
		paths.SrcPDB,
		paths.SrcMap,
		paths.SrcCert,
		paths.PackageDir,
	)
	return &taskFixture{
		runner:    &fakeRunner{},
		fs:        fs,
		buildInfo: &fakeBuildInfo{build: 22621},
		opts:      PackageTaskOptions{Paths: paths, Config: cfg, Arch: ArchAMD64},
	}
}

func (f *taskFixture) run(t *testing.T) error {
	t.Helper()
	task, err := NewPackageTask(f.opts, f.runner, f.fs, f.buildInfo, testLogger())
	require.NoError(t, err)
	return task.Run(context.Background())
}

func (f *taskFixture) toolSequence() []string {
	var out []string
	for _, c := range f.runner.calls {
		out = append(out, c.command)
	}
	return out
}

func TestPackageTaskRun(t *testing.T) {
	t.Parallel()

	t.Run("missing descriptor aborts before any work", func(t *testing.T) {
		t.Parallel()

		f := newTaskFixture(wdmConfig)
		delete(f.fs.existing, f.opts.Paths.SrcDescriptor)

		err := f.run(t)

		var missing *MissingSourceDescriptorError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, f.opts.Paths.SrcDescriptor, missing.Path)
		assert.Empty(t, f.runner.calls)
		assert.Empty(t, f.fs.copies)
		assert.Empty(t, f.fs.renames)
	})

	t.Run("kernel driver full pipeline", func(t *testing.T) {
		t.Parallel()

		f := newTaskFixture(wdmConfig)
		require.NoError(t, f.run(t))

		paths := f.opts.Paths
		assert.Equal(t, []copyRecord{{src: paths.SrcBinary, dest: paths.SrcRenamedBinary}}, f.fs.renames)
		assert.Equal(t, []copyRecord{
			{src: paths.SrcRenamedBinary, dest: paths.DestBinary},
			{src: paths.SrcPDB, dest: paths.DestPDB},
			{src: paths.SrcDescriptor, dest: paths.DestDescriptor},
			{src: paths.SrcMap, dest: paths.DestMap},
			{src: paths.SrcCert, dest: paths.DestCert},
		}, f.fs.copies)

		assert.Equal(t, []string{stampTool, catalogTool, signTool, signTool, descriptorsTool}, f.toolSequence())

		stamp := f.runner.callsTo(stampTool)[0]
		assert.Equal(t, []string{
			"-f", paths.DestDescriptor,
			"-d", "*",
			"-a", "amd64",
			"-c", "sample_driver.cat",
			"-v", "*",
		}, stamp.args, argsJoined(stamp))

		catalog := f.runner.callsTo(catalogTool)[0]
		assert.Equal(t, []string{
			"/driver:" + paths.PackageDir,
			"/os:10_x64",
			"/uselocaltime",
		}, catalog.args)

		signs := f.runner.callsTo(signTool)
		require.Len(t, signs, 2)
		for i, file := range []string{paths.DestBinary, paths.DestCatalog} {
			assert.Equal(t, []string{
				"sign", "/v",
				"/s", "WDRTestCertStore",
				"/n", "WDRLocalTestCert",
				"/t", "http://timestamp.digicert.com",
				"/fd", "SHA256",
				file,
			}, signs[i].args)
		}

		verify := f.runner.callsTo(descriptorsTool)[0]
		assert.Equal(t, []string{"/v", "/w", paths.DestDescriptor}, verify.args)

		// Not a sample-class run, so the toolkit version is never needed.
		assert.Zero(t, f.buildInfo.queries)
	})

	t.Run("framework version flags", func(t *testing.T) {
		t.Parallel()

		f := newTaskFixture(kmdfConfig)
		require.NoError(t, f.run(t))
		stamp := f.runner.callsTo(stampTool)[0]
		assert.Equal(t, []string{"-k", "1.33"}, stamp.args[len(stamp.args)-2:])
		assert.Equal(t, "/w", f.runner.callsTo(descriptorsTool)[0].args[1])

		f = newTaskFixture(umdfConfig)
		require.NoError(t, f.run(t))
		stamp = f.runner.callsTo(stampTool)[0]
		assert.Equal(t, []string{"-u", "2.33.0"}, stamp.args[len(stamp.args)-2:])
		assert.Equal(t, "/u", f.runner.callsTo(descriptorsTool)[0].args[1])
	})

	t.Run("existing package directory is reused", func(t *testing.T) {
		t.Parallel()

		f := newTaskFixture(wdmConfig)
		require.NoError(t, f.run(t))
		assert.Empty(t, f.fs.created)
	})

	t.Run("package directory is created when absent", func(t *testing.T) {
		t.Parallel()

		f := newTaskFixture(wdmConfig)
		delete(f.fs.existing, f.opts.Paths.PackageDir)

		require.NoError(t, f.run(t))
		assert.Equal(t, []string{f.opts.Paths.PackageDir}, f.fs.created)
	})

	t.Run("arm64 tokens flow into stamping and catalog", func(t *testing.T) {
		t.Parallel()

		f := newTaskFixture(wdmConfig)
		f.opts.Arch = ArchARM64

		require.NoError(t, f.run(t))
		assert.True(t, hasFlag(f.runner.callsTo(stampTool)[0].args, "arm64"))
		assert.True(t, hasFlag(f.runner.callsTo(catalogTool)[0].args, "/os:Server10_arm64"))
	})
}

func TestPackageTaskCertificate(t *testing.T) {
	t.Parallel()

	t.Run("present certificate file touches no certificate tool", func(t *testing.T) {
		t.Parallel()

		f := newTaskFixture(wdmConfig)
		require.NoError(t, f.run(t))
		assert.Empty(t, f.runner.callsTo(certStoreTool))
		assert.Empty(t, f.runner.callsTo(certCreateTool))
	})

	t.Run("certificate in store is exported", func(t *testing.T) {
		t.Parallel()

		f := newTaskFixture(wdmConfig)
		delete(f.fs.existing, f.opts.Paths.SrcCert)
		f.runner.results = map[string]providers.Output{
			certStoreTool: {Stdout: []byte("1. Issued to: WDRLocalTestCert\n")},
		}

		require.NoError(t, f.run(t))

		calls := f.runner.callsTo(certStoreTool)
		require.Len(t, calls, 2)
		assert.Equal(t, []string{"-s", "WDRTestCertStore"}, calls[0].args)
		assert.Equal(t, []string{
			"-put", "-s", "WDRTestCertStore", "-c", "-n", "WDRLocalTestCert",
			f.opts.Paths.SrcCert,
		}, calls[1].args)
		assert.Empty(t, f.runner.callsTo(certCreateTool))
	})

	t.Run("absent certificate is generated", func(t *testing.T) {
		t.Parallel()

		f := newTaskFixture(wdmConfig)
		delete(f.fs.existing, f.opts.Paths.SrcCert)
		f.runner.results = map[string]providers.Output{
			certStoreTool: {Stdout: []byte("no certificates\n")},
		}

		require.NoError(t, f.run(t))

		created := f.runner.callsTo(certCreateTool)
		require.Len(t, created, 1)
		assert.Equal(t, []string{
			"-r", "-pe",
			"-a", "SHA256",
			"-eku", "1.3.6.1.5.5.7.3.3",
			"-ss", "WDRTestCertStore",
			"-n", "CN=WDRLocalTestCert",
			f.opts.Paths.SrcCert,
		}, created[0].args)
		// Listing ran once; the export form never did.
		require.Len(t, f.runner.callsTo(certStoreTool), 1)
	})

	t.Run("unreadable store listing is its own failure", func(t *testing.T) {
		t.Parallel()

		f := newTaskFixture(wdmConfig)
		delete(f.fs.existing, f.opts.Paths.SrcCert)
		f.runner.results = map[string]providers.Output{
			certStoreTool: {Stdout: []byte{0xff, 0xfe, 0xfd}},
		}

		err := f.run(t)

		var outErr *CertStoreOutputError
		require.ErrorAs(t, err, &outErr)
		require.ErrorIs(t, err, ErrNonTextualOutput)
	})

	t.Run("failed store listing", func(t *testing.T) {
		t.Parallel()

		f := newTaskFixture(wdmConfig)
		delete(f.fs.existing, f.opts.Paths.SrcCert)
		f.runner.errs = map[string]error{certStoreTool: errors.New("exit status 1")}

		err := f.run(t)

		var listErr *CertStoreListError
		require.ErrorAs(t, err, &listErr)
	})

	t.Run("custom signing options replace the defaults", func(t *testing.T) {
		t.Parallel()

		f := newTaskFixture(wdmConfig)
		f.opts.Signing = SigningOptions{
			CertStore:    "MyStore",
			CertName:     "MyCert",
			TimestampURL: "http://ts.example.com",
		}

		require.NoError(t, f.run(t))
		sign := f.runner.callsTo(signTool)[0]
		assert.True(t, hasFlag(sign.args, "MyStore"))
		assert.True(t, hasFlag(sign.args, "MyCert"))
		assert.True(t, hasFlag(sign.args, "http://ts.example.com"))
	})
}

func TestPackageTaskVerification(t *testing.T) {
	t.Parallel()

	t.Run("sample class adds the sample flag", func(t *testing.T) {
		t.Parallel()

		f := newTaskFixture(wdmConfig)
		f.opts.SampleClass = true
		f.buildInfo.build = 22621

		require.NoError(t, f.run(t))

		verify := f.runner.callsTo(descriptorsTool)
		require.Len(t, verify, 1)
		assert.Equal(t, []string{"/v", "/w", "/msft", f.opts.Paths.DestDescriptor}, verify[0].args)
	})

	t.Run("broken toolkit skips descriptor verification entirely", func(t *testing.T) {
		t.Parallel()

		f := newTaskFixture(wdmConfig)
		f.opts.SampleClass = true
		f.buildInfo.build = 25798

		require.NoError(t, f.run(t))

		assert.Empty(t, f.runner.callsTo(descriptorsTool))
		// Everything before the verification step still ran.
		assert.Len(t, f.runner.callsTo(signTool), 2)
		assert.Equal(t, 1, f.buildInfo.queries)
	})

	t.Run("signature verification only when requested", func(t *testing.T) {
		t.Parallel()

		f := newTaskFixture(wdmConfig)
		require.NoError(t, f.run(t))
		for _, c := range f.runner.callsTo(signTool) {
			assert.NotEqual(t, "verify", c.args[0], argsJoined(c))
		}

		f = newTaskFixture(wdmConfig)
		f.opts.VerifySig = true
		require.NoError(t, f.run(t))

		var verifies []recordedCall
		for _, c := range f.runner.callsTo(signTool) {
			if c.args[0] == "verify" {
				verifies = append(verifies, c)
			}
		}
		require.Len(t, verifies, 2)
		assert.Equal(t, []string{"verify", "/v", "/pa", f.opts.Paths.DestBinary}, verifies[0].args)
		assert.Equal(t, []string{"verify", "/v", "/pa", f.opts.Paths.DestCatalog}, verifies[1].args)
	})
}

func TestPackageTaskStepErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tool string
		want any
	}{
		{name: "stamping", tool: stampTool, want: new(*StampingError)},
		{name: "catalog generation", tool: catalogTool, want: new(*CatalogGenerationError)},
		{name: "signing", tool: signTool, want: new(*SigningError)},
		{name: "descriptor verification", tool: descriptorsTool, want: new(*InfVerificationError)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newTaskFixture(wdmConfig)
			f.runner.errs = map[string]error{tt.tool: errors.New("exit status 1")}

			err := f.run(t)
			require.Error(t, err)
			assert.True(t, errors.As(err, tt.want), "got %T: %v", err, err)
		})
	}

	t.Run("signing failure names the file", func(t *testing.T) {
		t.Parallel()

		f := newTaskFixture(wdmConfig)
		f.runner.errs = map[string]error{signTool: errors.New("exit status 1")}

		err := f.run(t)

		var signErr *SigningError
		require.ErrorAs(t, err, &signErr)
		assert.Equal(t, f.opts.Paths.DestBinary, signErr.File)
	})
}
