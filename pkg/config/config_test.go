package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	Extra string `yaml:"extra"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_ExpandsEnvAndKeepsDefaults(t *testing.T) {
	t.Setenv("MERELY_TEST_NAME", "board")
	p := writeConfig(t, "name: ${MERELY_TEST_NAME}\nport: 8081\n")

	cfg := sample{Extra: "default"}
	if err := Load(p, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Name != "board" || cfg.Port != 8081 || cfg.Extra != "default" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	p := writeConfig(t, "port: 0\n")
	err := Load(p, &sample{})
	if err == nil || !strings.Contains(err.Error(), "validation") {
		t.Fatalf("err = %v, want validation failure", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &sample{}); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	p := writeConfig(t, "port: [\n")
	if err := Load(p, &sample{}); err == nil {
		t.Fatal("expected parse error")
	}
}
