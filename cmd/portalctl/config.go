package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/diosesguerreros/vehicle-portal/internal/core/service"
	"github.com/diosesguerreros/vehicle-portal/internal/infrastructure/tokenstore"
)

// cliConfig is read from ~/.config/portalctl/config.yaml.
type cliConfig struct {
	APIBaseURL   string        `yaml:"api_base_url"`
	Timeout      time.Duration `yaml:"timeout"`
	PoliciesPath string        `yaml:"policies_path"`
	TokenFile    string        `yaml:"token_file"`
	LogLevel     string        `yaml:"log_level"` // "debug" | "info" | "warn" | "error"
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "portalctl.yaml"
	}
	return filepath.Join(dir, "portalctl", "config.yaml")
}

func (c *cliConfig) Defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.PoliciesPath == "" {
		c.PoliciesPath = service.DefaultPoliciesPath
	}
	if c.TokenFile == "" {
		if p, err := tokenstore.DefaultPath(); err == nil {
			c.TokenFile = p
		}
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
}

func (c *cliConfig) Validate() error {
	var errs []string
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("api_base_url %q is not an absolute URL", c.APIBaseURL))
	}
	if c.TokenFile == "" {
		errs = append(errs, "token_file must be set")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// loadConfig reads path, tolerating a missing file. API_BASE_URL in the
// environment overrides the file.
func loadConfig(path string) (*cliConfig, error) {
	var cfg cliConfig

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", path, err)
	default:
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if v := os.Getenv("API_BASE_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	cfg.Defaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
