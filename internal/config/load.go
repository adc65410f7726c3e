package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/studiomdl/internal/logger"
)

// FileName is the config file looked up when no explicit path is given.
const FileName = "studiomdl.yaml"

// Load builds the config from defaults, then the config file, then flags.
// flags may be nil. Without an explicit -config, a missing file is not an
// error.
func Load(flags *Flags) (*Config, error) {
	cfg := Default()

	path := ""
	if flags != nil {
		path = flags.Config
	}
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := cfg.ReadFile(path); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", path, err)
		}
	}

	if flags != nil {
		flags.apply(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SearchPaths lists the places Load looks for FileName, in order.
func SearchPaths() []string {
	paths := []string{FileName}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "studiomdl", FileName))
	}
	return paths
}

func findConfigFile() string {
	for _, path := range SearchPaths() {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ReadFile merges the YAML file at path over c. Unknown keys are rejected.
func (c *Config) ReadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// WriteFile stores c as YAML, creating parent directories.
func (c *Config) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate rejects settings no compile can run with.
func (c *Config) Validate() error {
	cc := c.Compiler
	if cc.NormalBlendAngle < 0 || cc.NormalBlendAngle > 180 {
		return fmt.Errorf("config: normal_blend_angle %g outside [0, 180]", cc.NormalBlendAngle)
	}
	if cc.BufferSize <= 0 {
		return fmt.Errorf("config: buffer_size must be positive, got %d", cc.BufferSize)
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
