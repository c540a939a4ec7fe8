// Package config loads bridge configuration from YAML files.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"mcpbridge/internal/domain"
)

const (
	defaultCacheTTLSeconds         = 300
	defaultDiscoveryTimeoutSeconds = 15
	defaultExecutionTimeoutSeconds = 60
)

// Loader reads bridge config files.
type Loader struct {
	logger *zap.Logger
}

// NewLoader builds a loader.
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		return &Loader{logger: zap.NewNop()}
	}
	return &Loader{logger: logger.Named("config")}
}

func newConfigViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault("cacheEnabled", true)
	v.SetDefault("cacheTTLSeconds", defaultCacheTTLSeconds)
	v.SetDefault("discoveryTimeoutSeconds", defaultDiscoveryTimeoutSeconds)
	v.SetDefault("executionTimeoutSeconds", defaultExecutionTimeoutSeconds)
	return v
}

type rawConfig struct {
	Servers                 []rawServer `mapstructure:"servers"`
	CacheEnabled            bool        `mapstructure:"cacheEnabled"`
	CacheTTLSeconds         int         `mapstructure:"cacheTTLSeconds"`
	DiscoveryTimeoutSeconds int         `mapstructure:"discoveryTimeoutSeconds"`
	ExecutionTimeoutSeconds int         `mapstructure:"executionTimeoutSeconds"`
}

type rawServer struct {
	Label         string   `mapstructure:"label"`
	Address       string   `mapstructure:"address"`
	Authorization string   `mapstructure:"authorization"`
	Allow         []string `mapstructure:"allow"`
	Deny          []string `mapstructure:"deny"`
	Disabled      bool     `mapstructure:"disabled"`
}

// File is a loaded configuration, usable as the bridge's config store.
type File struct {
	servers []domain.ServerConfig
	options domain.BridgeOptions
}

// Servers returns the configured servers in file order.
func (f *File) Servers() []domain.ServerConfig {
	out := make([]domain.ServerConfig, len(f.servers))
	copy(out, f.servers)
	return out
}

// Options returns the pass options.
func (f *File) Options() domain.BridgeOptions {
	return f.options
}

// Load reads and validates a config file. Environment references of
// the form ${VAR} are expanded before parsing; missing variables
// expand to empty and are logged.
func (l *Loader) Load(path string) (*File, error) {
	if path == "" {
		return nil, errors.New("config path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return l.Parse(data, path)
}

// Parse decodes config bytes. The path is used only for log context.
func (l *Loader) Parse(data []byte, path string) (*File, error) {
	expanded, missing := expandEnv(string(data))
	if len(missing) > 0 {
		l.logger.Warn("missing environment variables in config",
			zap.String("path", path),
			zap.Strings("missing", missing))
	}

	v := newConfigViper()
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	var cfg rawConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	var validationErrors []string
	if cfg.CacheTTLSeconds < 0 {
		validationErrors = append(validationErrors, "cacheTTLSeconds must be >= 0")
	}
	if cfg.DiscoveryTimeoutSeconds <= 0 {
		validationErrors = append(validationErrors, "discoveryTimeoutSeconds must be > 0")
	}
	if cfg.ExecutionTimeoutSeconds <= 0 {
		validationErrors = append(validationErrors, "executionTimeoutSeconds must be > 0")
	}

	servers := make([]domain.ServerConfig, 0, len(cfg.Servers))
	for i, raw := range cfg.Servers {
		address := strings.TrimSpace(raw.Address)
		if !raw.Disabled && address == "" {
			validationErrors = append(validationErrors, fmt.Sprintf("servers[%d]: address is required", i))
			continue
		}
		servers = append(servers, domain.ServerConfig{
			Index:         i,
			Label:         strings.TrimSpace(raw.Label),
			Address:       address,
			Authorization: strings.TrimSpace(raw.Authorization),
			Allow:         cleanNames(raw.Allow),
			Deny:          cleanNames(raw.Deny),
			Active:        !raw.Disabled,
		})
	}
	if len(validationErrors) > 0 {
		return nil, errors.New(strings.Join(validationErrors, "; "))
	}

	return &File{
		servers: servers,
		options: domain.BridgeOptions{
			CacheEnabled:     cfg.CacheEnabled,
			CacheTTL:         time.Duration(cfg.CacheTTLSeconds) * time.Second,
			DiscoveryTimeout: time.Duration(cfg.DiscoveryTimeoutSeconds) * time.Second,
			ExecutionTimeout: time.Duration(cfg.ExecutionTimeoutSeconds) * time.Second,
		},
	}, nil
}

func cleanNames(names []string) []string {
	var out []string
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

var envRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnv substitutes ${VAR} references and reports the names that
// were not set. Bare $VAR is left untouched.
func expandEnv(data string) (string, []string) {
	var missing []string
	seen := map[string]struct{}{}
	expanded := envRefPattern.ReplaceAllStringFunc(data, func(ref string) string {
		name := ref[2 : len(ref)-1]
		value, ok := os.LookupEnv(name)
		if !ok {
			if _, dup := seen[name]; !dup {
				seen[name] = struct{}{}
				missing = append(missing, name)
			}
			return ""
		}
		return value
	})
	return expanded, missing
}
