package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/diosesguerreros/vehicle-portal/internal/core/domain"
	"github.com/diosesguerreros/vehicle-portal/internal/core/service"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_DefaultsApplied(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	path := writeConfig(t, "api_base_url: http://localhost:5000\ntoken_file: /tmp/portalctl-token\n")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Timeout != 15*time.Second || cfg.PoliciesPath != service.DefaultPoliciesPath || cfg.LogLevel != "warn" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestLoadConfig_UnknownFieldRejected(t *testing.T) {
	path := writeConfig(t, "api_base_url: http://localhost:5000\napi_url: typo\n")
	if _, err := loadConfig(path); err == nil {
		t.Fatalf("expected unknown field to be rejected")
	}
}

func TestLoadConfig_EnvOverridesMissingFile(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://backend:5000")
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIBaseURL != "http://backend:5000" {
		t.Fatalf("unexpected base url %q", cfg.APIBaseURL)
	}
}

func TestLoadConfig_RequiresAbsoluteURL(t *testing.T) {
	t.Setenv("API_BASE_URL", "")
	path := writeConfig(t, "api_base_url: localhost\n")
	if _, err := loadConfig(path); err == nil {
		t.Fatalf("expected relative URL to be rejected")
	}
}

func TestReorderArgs(t *testing.T) {
	got := reorderArgs([]string{"vehicles", "-config", "x.yaml"})
	want := []string{"-config", "x.yaml", "vehicles"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestPrintView(t *testing.T) {
	view := service.ScreenView{
		Columns: []string{"Make", "Model"},
		Rows: []service.ScreenRow{
			{ID: 3, Cells: []domain.Cell{{Value: "Honda"}, {Value: ""}}},
		},
	}
	var buf bytes.Buffer
	if err := printView(&buf, view); err != nil {
		t.Fatalf("print: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "MAKE") || !strings.Contains(out, "Honda") || !strings.Contains(out, "-") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestPrintMenu_UserRole(t *testing.T) {
	var buf bytes.Buffer
	if err := printMenu(&buf, domain.ResolveMenu(domain.RoleUser)); err != nil {
		t.Fatalf("print: %v", err)
	}
	if strings.Contains(buf.String(), "all-users") {
		t.Fatalf("user menu must not list admin pages:\n%s", buf.String())
	}
}
