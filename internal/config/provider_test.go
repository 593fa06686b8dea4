// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestProvider_Load_Defaults(t *testing.T) {
	p := NewProvider()

	cfg, err := p.Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileDev {
		t.Errorf("Profile = %q, want defaults", cfg.Profile)
	}
}

func TestProvider_Load_FromConfigDir(t *testing.T) {
	dir := t.TempDir()
	content := `signing: {cert_name: "ProviderCert"}` + "\n"
	if err := os.WriteFile(filepath.Join(dir, "config.cue"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewProvider()
	cfg, err := p.Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Signing.CertName != "ProviderCert" {
		t.Errorf("Signing.CertName = %q, want ProviderCert", cfg.Signing.CertName)
	}
}

func TestProvider_Load_ExplicitFileWins(t *testing.T) {
	dir := t.TempDir()
	dirConfig := `profile: "dev"` + "\n"
	if err := os.WriteFile(filepath.Join(dir, "config.cue"), []byte(dirConfig), 0o644); err != nil {
		t.Fatal(err)
	}

	explicit := filepath.Join(t.TempDir(), "explicit.cue")
	if err := os.WriteFile(explicit, []byte(`profile: "release"`+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := NewProvider()
	cfg, err := p.Load(context.Background(), LoadOptions{
		ConfigFilePath: explicit,
		ConfigDirPath:  dir,
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileRelease {
		t.Errorf("Profile = %q, explicit file should win", cfg.Profile)
	}
}

func TestProvider_Load_MissingExplicitFile(t *testing.T) {
	p := NewProvider()

	_, err := p.Load(context.Background(), LoadOptions{
		ConfigFilePath: filepath.Join(t.TempDir(), "nope.cue"),
	})
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}
