// Package config provides configuration loading for the classpath tool.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/git-pkgs/classpath/internal/core"
)

// Config represents the complete classpath configuration
type Config struct {
	Repositories    []RepositoryConfig `yaml:"repositories"`
	LocalRepository string             `yaml:"local_repository"`
	Fetch           FetchConfig        `yaml:"fetch"`
	Classify        ClassifyConfig     `yaml:"classify"`
}

// RepositoryConfig describes a remote Maven repository
type RepositoryConfig struct {
	ID       string `yaml:"id"`
	URL      string `yaml:"url"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
}

// FetchConfig tunes downloads
type FetchConfig struct {
	// MaxRetries is how often a rate limited or failing request is retried
	MaxRetries int `yaml:"max_retries"`
	// BaseDelay is the first retry delay; later delays grow exponentially
	BaseDelay time.Duration `yaml:"base_delay"`
	// MaxDelay caps the delay between retries
	MaxDelay time.Duration `yaml:"max_delay"`
	// Concurrency bounds parallel artifact downloads
	Concurrency int    `yaml:"concurrency"`
	UserAgent   string `yaml:"user_agent"`
}

// ClassifyConfig holds default classification inputs, as "groupId:artifactId" coordinates
type ClassifyConfig struct {
	SharedLibs   []string `yaml:"shared_libs"`
	Plugins      []string `yaml:"plugins"`
	Application  []string `yaml:"application"`
	Excluded     []string `yaml:"excluded"`
	IncludeTests bool     `yaml:"include_tests"`
	// Transitive is nil when unset so a file can turn it off
	Transitive *bool `yaml:"transitive,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Repositories: []RepositoryConfig{
			{ID: "central", URL: "https://repo1.maven.org/maven2"},
		},
		LocalRepository: "", // ~/.m2/repository
		Fetch: FetchConfig{
			MaxRetries:  3,
			BaseDelay:   500 * time.Millisecond,
			MaxDelay:    30 * time.Second,
			Concurrency: 8,
			UserAgent:   "git-pkgs-classpath/1.0",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if len(c.Repositories) == 0 {
		return fmt.Errorf("at least one repository is required")
	}
	for i, r := range c.Repositories {
		u, err := url.Parse(r.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("repositories[%d].url %q must be an http or https URL", i, r.URL)
		}
	}
	if c.Fetch.MaxRetries < 0 {
		return fmt.Errorf("fetch.max_retries must not be negative")
	}
	if c.Fetch.Concurrency < 1 {
		return fmt.Errorf("fetch.concurrency must be at least 1")
	}
	if c.Fetch.BaseDelay < 0 || c.Fetch.MaxDelay < 0 {
		return fmt.Errorf("fetch delays must not be negative")
	}

	lists := map[string][]string{
		"classify.shared_libs": c.Classify.SharedLibs,
		"classify.plugins":     c.Classify.Plugins,
		"classify.application": c.Classify.Application,
		"classify.excluded":    c.Classify.Excluded,
	}
	for name, coords := range lists {
		for _, s := range coords {
			if _, err := core.ParseCoordinates(s); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
	}
	return nil
}

// RepositoryURLs returns the repository URLs in lookup order
func (c *Config) RepositoryURLs() []string {
	urls := make([]string, len(c.Repositories))
	for i, r := range c.Repositories {
		urls[i] = r.URL
	}
	return urls
}

// Credentials returns the username and password of the repository serving
// rawURL, matched by URL prefix.
func (c *Config) Credentials(rawURL string) (username, password string, ok bool) {
	for _, r := range c.Repositories {
		if r.Username == "" {
			continue
		}
		if strings.HasPrefix(rawURL, strings.TrimSuffix(r.URL, "/")+"/") {
			return r.Username, r.Password, true
		}
	}
	return "", "", false
}

// LocalRepositoryPath resolves the local repository directory, expanding "~".
func (c *Config) LocalRepositoryPath() (string, error) {
	p := c.LocalRepository
	if p != "" && p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locating home directory: %w", err)
	}
	if p == "" {
		return filepath.Join(home, ".m2", "repository"), nil
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}

// TransitiveOrDefault reports whether classification follows transitive dependencies.
func (c *Config) TransitiveOrDefault() bool {
	return c.Classify.Transitive == nil || *c.Classify.Transitive
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if len(other.Repositories) > 0 {
		c.Repositories = other.Repositories
	}
	if other.LocalRepository != "" {
		c.LocalRepository = other.LocalRepository
	}

	// Fetch
	if other.Fetch.MaxRetries != 0 {
		c.Fetch.MaxRetries = other.Fetch.MaxRetries
	}
	if other.Fetch.BaseDelay != 0 {
		c.Fetch.BaseDelay = other.Fetch.BaseDelay
	}
	if other.Fetch.MaxDelay != 0 {
		c.Fetch.MaxDelay = other.Fetch.MaxDelay
	}
	if other.Fetch.Concurrency != 0 {
		c.Fetch.Concurrency = other.Fetch.Concurrency
	}
	if other.Fetch.UserAgent != "" {
		c.Fetch.UserAgent = other.Fetch.UserAgent
	}

	// Classify
	if len(other.Classify.SharedLibs) > 0 {
		c.Classify.SharedLibs = other.Classify.SharedLibs
	}
	if len(other.Classify.Plugins) > 0 {
		c.Classify.Plugins = other.Classify.Plugins
	}
	if len(other.Classify.Application) > 0 {
		c.Classify.Application = other.Classify.Application
	}
	if len(other.Classify.Excluded) > 0 {
		c.Classify.Excluded = other.Classify.Excluded
	}
	if other.Classify.IncludeTests {
		c.Classify.IncludeTests = true
	}
	if other.Classify.Transitive != nil {
		v := *other.Classify.Transitive
		c.Classify.Transitive = &v
	}
}
