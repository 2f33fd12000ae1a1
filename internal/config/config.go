package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ppiankov/hollowspectre/internal/scan"
	"gopkg.in/yaml.v3"
)

// fileNames are tried in order within each search directory.
var fileNames = []string{".hollowspectre.yaml", ".hollowspectre.yml"}

// formats accepted by the format key.
var formats = map[string]bool{"text": true, "json": true, "spectrehub": true}

// Config holds persistent defaults loaded from a config file.
type Config struct {
	Region              string   `yaml:"region"`
	Profile             string   `yaml:"profile"`
	DefaultRegion       string   `yaml:"default_region"`
	Format              string   `yaml:"format"`
	Timeout             string   `yaml:"timeout"`
	ExcludeRepositories []string `yaml:"exclude_repositories"`
	ExcludeBuckets      []string `yaml:"exclude_buckets"`
	ECRReport           string   `yaml:"ecr_report"`
	S3Report            string   `yaml:"s3_report"`

	// Source is the file the values came from; empty when none was found.
	Source string `yaml:"-"`
}

// TimeoutDuration parses the Timeout field as a Go duration.
// Returns 0 if empty or unparseable.
func (c *Config) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// Excludes returns the names to skip for kind.
func (c *Config) Excludes(kind scan.Kind) []string {
	switch kind {
	case scan.KindRepository:
		return c.ExcludeRepositories
	case scan.KindBucket:
		return c.ExcludeBuckets
	}
	return nil
}

// Validate reports values that will be ignored at run time.
func (c *Config) Validate() error {
	var errs []error
	if c.Format != "" && !formats[c.Format] {
		errs = append(errs, fmt.Errorf("format %q is not one of text, json, spectrehub", c.Format))
	}
	if c.Timeout != "" {
		if _, err := time.ParseDuration(c.Timeout); err != nil {
			errs = append(errs, fmt.Errorf("timeout %q: %w", c.Timeout, err))
		}
	}
	return errors.Join(errs...)
}

// Load reads the first config file found in dir, then in the home
// directory. No file yields a zero Config.
func Load(dir string) (Config, error) {
	for _, path := range candidates(dir) {
		raw, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}

		var cfg Config
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg.Source = path
		return cfg, nil
	}
	return Config{}, nil
}

func candidates(dir string) []string {
	var dirs []string
	if dir != "" {
		dirs = append(dirs, dir)
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, home)
	}

	paths := make([]string, 0, len(dirs)*len(fileNames))
	for _, d := range dirs {
		for _, name := range fileNames {
			paths = append(paths, filepath.Join(d, name))
		}
	}
	return paths
}
