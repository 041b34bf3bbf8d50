package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	c := Default()
	if c.GitLab.URL != "https://gitlab.com" {
		t.Errorf("default url = %q", c.GitLab.URL)
	}
	if c.DB != "hierarchy.db" {
		t.Errorf("default db = %q", c.DB)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".neo.yml")
	content := `
gitlab:
  url: https://gitlab.example.com
  rate_limit_delay_ms: 250
db: /tmp/out.db
label_patterns:
  - prefix: sev
    column: label_severity
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.GitLab.URL != "https://gitlab.example.com" {
		t.Errorf("url = %q", c.GitLab.URL)
	}
	if c.GitLab.RateLimitDelayMS != 250 {
		t.Errorf("rate_limit_delay_ms = %d", c.GitLab.RateLimitDelayMS)
	}
	// Unset fields keep their defaults.
	if c.GitLab.TimeoutSeconds != 30 {
		t.Errorf("timeout_seconds = %d, want default 30", c.GitLab.TimeoutSeconds)
	}
	if len(c.LabelPatterns) != 1 || c.LabelPatterns[0].Prefix != "sev" {
		t.Errorf("label_patterns = %+v", c.LabelPatterns)
	}
}

func TestLoad_InvalidPattern(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".neo.yml")
	content := "label_patterns:\n  - prefix: sev\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for pattern without column")
	}
}

func TestDiscover_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvConfig, "")
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	c, err := Discover("")
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if c.GitLab.URL != "https://gitlab.com" {
		t.Errorf("expected defaults, got url %q", c.GitLab.URL)
	}
}
