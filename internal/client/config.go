package client

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"sigs.k8s.io/yaml"
)

// Config holds the information needed to connect to the risk back-office
// API server.
type Config struct {
	Service ServiceConfig `json:"service"`

	// LogLevel controls CLI verbosity ("debug", "info", ...).
	LogLevel string `json:"logLevel,omitempty"`

	// baseDir is used to resolve relative paths
	// If baseDir is empty, the current working directory is used.
	baseDir string `json:"-"`
}

// ServiceConfig contains information how to connect to the back-office API server.
type ServiceConfig struct {
	// Server is the URL of the API server (the part before /runs, /uploads, ...).
	Server string `json:"server"`
}

// envOverrides are applied on top of the config file so that CI and
// scripted use can point the client elsewhere without editing files.
type envOverrides struct {
	Server   string `envconfig:"RISKCTL_SERVER" default:""`
	LogLevel string `envconfig:"RISKCTL_LOG_LEVEL" default:""`
}

func NewDefault() *Config {
	return &Config{
		Service:  ServiceConfig{Server: "http://localhost:8000"},
		LogLevel: "info",
	}
}

func (c *Config) SetBaseDir(baseDir string) {
	c.baseDir = baseDir
}

func (c *Config) Validate() error {
	if c.Service.Server == "" {
		return fmt.Errorf("service server must not be empty")
	}
	if _, err := url.Parse(c.Service.Server); err != nil {
		return fmt.Errorf("parsing service server %q: %w", c.Service.Server, err)
	}
	return nil
}

// DefaultConfigPath returns the default path to the client config file.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".riskctl", "client.yaml")
	}
	return filepath.Join(home, ".riskctl", "client.yaml")
}

// ParseConfigFile loads the config file, falling back to defaults when the
// file does not exist, and applies environment overrides in both cases.
func ParseConfigFile(filename string) (*Config, error) {
	config := NewDefault()
	contents, err := os.ReadFile(filename)
	switch {
	case os.IsNotExist(err):
		// defaults + env only
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(contents, config); err != nil {
			return nil, fmt.Errorf("decoding config: %w", err)
		}
		config.SetBaseDir(filepath.Dir(filename))
	}

	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}
	if env.Server != "" {
		config.Service.Server = env.Server
	}
	if env.LogLevel != "" {
		config.LogLevel = env.LogLevel
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// NewHTTPClientFromConfig returns a new HTTP Client from the given config.
func NewHTTPClientFromConfig(config *Config) (*http.Client, error) {
	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:     false,
			MaxIdleConns:          100,
			IdleConnTimeout:       90 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
	return httpClient, nil
}
