package config

import (
	"os"
	"path/filepath"
	"testing"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	chdir(t, t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.OutputPath != "src/build.ts" {
		t.Fatalf("expected default output path, got %q", cfg.OutputPath)
	}
	if cfg.GitBinary != "git" || cfg.GitTimeoutSeconds != 10 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadDefaultFileFromWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	content := "outputPath: dist/build.ts\ngitTimeoutSeconds: 3\n"
	if err := os.WriteFile(filepath.Join(dir, DefaultFile), []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	chdir(t, dir)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.OutputPath != "dist/build.ts" {
		t.Fatalf("expected file override, got %q", cfg.OutputPath)
	}
	if cfg.GitTimeoutSeconds != 3 {
		t.Fatalf("expected timeout 3, got %d", cfg.GitTimeoutSeconds)
	}
	if cfg.ManifestPath != "package.json" {
		t.Fatalf("expected untouched default manifest path, got %q", cfg.ManifestPath)
	}
}

func TestLoadExplicitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	content := "gitBinary: /usr/local/bin/git\nextraFields:\n  - key: channel\n    value: beta\npolicies:\n  - policies/release.rego\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.GitBinary != "/usr/local/bin/git" {
		t.Fatalf("expected git binary override, got %q", cfg.GitBinary)
	}
	if len(cfg.ExtraFields) != 1 || cfg.ExtraFields[0].Key != "channel" {
		t.Fatalf("expected one extra field, got %+v", cfg.ExtraFields)
	}
	if len(cfg.Policies) != 1 {
		t.Fatalf("expected one policy path, got %+v", cfg.Policies)
	}
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatalf("expected error for missing explicit config")
	}
}

func TestLoadRejectsNegativeTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("gitTimeoutSeconds: -1\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestLoadRejectsExtraFieldWithoutKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("extraFields:\n  - value: beta\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected validation error")
	}
}
