package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Defaults().Validate() error = %v", err)
	}
	if cfg.Image != "profile.jpg" {
		t.Errorf("Image = %q, want profile.jpg", cfg.Image)
	}
	if cfg.Bootstrap.StructureDelay != 300*time.Millisecond || cfg.Bootstrap.ResourcesDelay != 100*time.Millisecond {
		t.Errorf("delays = %v/%v, want 300ms/100ms", cfg.Bootstrap.StructureDelay, cfg.Bootstrap.ResourcesDelay)
	}
	if cfg.Store.Key != "adaptiveColors" {
		t.Errorf("Store.Key = %q, want adaptiveColors", cfg.Store.Key)
	}
}

func TestLoadOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
image = "avatar.webp"

[stylesheet]
path = "public/theme.css"

[store]
backend = "sqlite"

[bootstrap]
structure_delay = "500ms"

[extractor]
candidate_limit = 10
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Path() != path {
		t.Errorf("Path() = %q, want %q", cfg.Path(), path)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"image", cfg.Image, "avatar.webp"},
		{"stylesheet path", cfg.Stylesheet.Path, "public/theme.css"},
		{"selector default", cfg.Stylesheet.Selector, ":root"},
		{"store backend", cfg.Store.Backend, "sqlite"},
		{"store key default", cfg.Store.Key, "adaptiveColors"},
		{"structure delay", cfg.Bootstrap.StructureDelay, 500 * time.Millisecond},
		{"resources delay default", cfg.Bootstrap.ResourcesDelay, 100 * time.Millisecond},
		{"candidate limit", cfg.Extractor.CandidateLimit, 10},
		{"bucket width default", cfg.Extractor.BucketWidth, 15},
		{"primary variable default", cfg.Variables.Primary, "--primary-color"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "syntax", content: "image = "},
		{name: "unknown key", content: "colour = \"red\""},
		{name: "bad backend", content: "[store]\nbackend = \"redis\""},
		{name: "negative delay", content: "[bootstrap]\nresources_delay = \"-1s\""},
		{name: "bad variable", content: "[variables]\nprimary = \"primary\""},
		{name: "bad extractor", content: "[extractor]\nbucket_width = 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Load() error = nil, want error")
			}
			if cfg == nil || cfg.Validate() != nil {
				t.Error("Load() should return usable defaults alongside the error")
			}
		})
	}
}

func TestLoadSearchPaths(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv("HOME", t.TempDir())

	if _, err := Load(""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load(\"\") error = %v, want ErrNotFound", err)
	}

	dir := filepath.Join(xdg, "accent")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(`image = "me.png"`), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.Image != "me.png" {
		t.Errorf("Image = %q, want me.png", cfg.Image)
	}
	if DefaultPath() != filepath.Join(dir, "config.toml") {
		t.Errorf("DefaultPath() = %q", DefaultPath())
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Load(missing) error = %v, want read error", err)
	}
}

func TestApplyFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(fs)
	if err := fs.Parse([]string{"--store", "sqlite", "--stylesheet", "out.css", "--allow-insecure"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cfg := Defaults()
	cfg.Store.Path = "from-file.db"
	if err := cfg.ApplyFlags(fs); err != nil {
		t.Fatalf("ApplyFlags() error = %v", err)
	}

	if cfg.Store.Backend != "sqlite" {
		t.Errorf("Store.Backend = %q, want sqlite", cfg.Store.Backend)
	}
	if cfg.Stylesheet.Path != "out.css" {
		t.Errorf("Stylesheet.Path = %q, want out.css", cfg.Stylesheet.Path)
	}
	if !cfg.AllowInsecure {
		t.Error("AllowInsecure = false, want true")
	}
	if cfg.Store.Path != "from-file.db" {
		t.Errorf("unset flag overrode Store.Path: %q", cfg.Store.Path)
	}
	if cfg.CacheRemote {
		t.Error("unset flag overrode CacheRemote")
	}
}

func TestApplyFlagsValidates(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(fs)
	if err := fs.Parse([]string{"--store", "memcached"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if err := Defaults().ApplyFlags(fs); err == nil {
		t.Error("ApplyFlags() accepted an unknown backend")
	}
}
