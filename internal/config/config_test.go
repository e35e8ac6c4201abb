package config

import (
	"os"
	"path/filepath"
	"testing"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("APPDATA", "")
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func TestLoadMergedDefaults(t *testing.T) {
	isolate(t)

	cfg, path, err := LoadMerged(Options{})
	if err != nil {
		t.Fatalf("LoadMerged() error = %v", err)
	}
	if path != "" {
		t.Errorf("expected no profile path, got %q", path)
	}

	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.Resolution != 100.0 {
		t.Errorf("Resolution = %f, want 100", cfg.Resolution)
	}
	if cfg.LogLevel != 20 {
		t.Errorf("LogLevel = %d, want 20", cfg.LogLevel)
	}
	if cfg.PageWorkers != 5 || cfg.ChapterWorkers != 2 || cfg.Retries != 3 {
		t.Errorf("worker defaults wrong: %+v", cfg)
	}
}

func TestLoadMergedFlagPrecedence(t *testing.T) {
	isolate(t)

	if _, err := InitDefaultProfile(); err != nil {
		t.Fatal(err)
	}

	// Profile carries a value; flag overrides it.
	active, err := ActiveConfigPath()
	if err != nil {
		t.Fatal(err)
	}
	prof := DefaultConfig()
	prof.Resolution = 150
	prof.DefaultMangaURL = "from/profile.html"
	if err := SaveYAML(prof, active); err != nil {
		t.Fatal(err)
	}

	cfg, path, err := LoadMerged(Options{Resolution: 72, JoinEvery: 10})
	if err != nil {
		t.Fatalf("LoadMerged() error = %v", err)
	}
	if path != active {
		t.Errorf("profile path = %q, want %q", path, active)
	}

	if cfg.Resolution != 72 {
		t.Errorf("flag should override profile, Resolution = %f", cfg.Resolution)
	}
	if cfg.DefaultMangaURL != "from/profile.html" {
		t.Errorf("profile value lost: %q", cfg.DefaultMangaURL)
	}
	if cfg.JoinEvery != 10 {
		t.Errorf("JoinEvery = %d, want 10", cfg.JoinEvery)
	}
}

func TestLoadMergedIgnoreConfig(t *testing.T) {
	isolate(t)

	if _, err := InitDefaultProfile(); err != nil {
		t.Fatal(err)
	}

	cfg, path, err := LoadMerged(Options{IgnoreConfig: true, BaseURL: "https://mirror.example/"})
	if err != nil {
		t.Fatal(err)
	}
	if path != "" {
		t.Errorf("ignore-config should skip the profile, got %q", path)
	}
	if cfg.BaseURL != "https://mirror.example" {
		t.Errorf("BaseURL = %q (trailing slash should be trimmed)", cfg.BaseURL)
	}
}

func TestProfileLifecycle(t *testing.T) {
	isolate(t)

	if _, err := InitDefaultProfile(); err != nil {
		t.Fatal(err)
	}

	// Second init reports the existing file.
	if _, err := InitDefaultProfile(); err != os.ErrExist {
		t.Errorf("second init error = %v, want os.ErrExist", err)
	}

	if err := SaveYAML(DefaultConfig(), filepath.Join(ConfigsDir(), "alt.yaml")); err != nil {
		t.Fatal(err)
	}

	list, err := ListProfiles()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(list))
	}

	if err := SwitchProfile("alt"); err != nil {
		t.Fatal(err)
	}
	label, err := CurrentLabel()
	if err != nil || label != "alt" {
		t.Fatalf("CurrentLabel() = %q, %v", label, err)
	}

	// Removing the active profile falls back to Default.
	if err := RemoveProfile("alt"); err != nil {
		t.Fatal(err)
	}
	label, _ = CurrentLabel()
	if label != "Default" {
		t.Errorf("after remove, active = %q, want Default", label)
	}

	if err := RemoveProfile("Default"); err == nil {
		t.Error("removing Default should fail")
	}
	if err := SwitchProfile("missing"); err == nil {
		t.Error("switching to a missing profile should fail")
	}
}
