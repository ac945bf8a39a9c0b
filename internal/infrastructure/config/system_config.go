package config

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/pypes-dev/pypes/internal/application/ports"
)

// systemConfigWire is the on-disk YAML shape of ports.SystemConfig.
type systemConfigWire struct {
	FilesystemRoot    string   `yaml:"filesystem_root"`
	HTTPAllowlist     []string `yaml:"http_allowlist"`
	EnvironmentAllow  []string `yaml:"environment_allowlist"`
	MaxPayloadBytes   int      `yaml:"max_payload_bytes"`
	MaxMagnitude      float64  `yaml:"max_magnitude"`
	DefaultTimeoutSec int      `yaml:"default_timeout_sec"`
}

const (
	defaultMaxPayloadBytes = 1 << 20 // 1 MiB
	defaultMaxMagnitude    = 1e18
	defaultTimeoutSeconds  = 30
)

// SystemConfigLoader implements ports.SystemConfigProvider by reading a
// YAML file at the given path. A missing file yields the defaults rather
// than an error, matching an unconfigured first run.
type SystemConfigLoader struct{}

// NewSystemConfigLoader constructs a SystemConfigLoader.
func NewSystemConfigLoader() *SystemConfigLoader {
	return &SystemConfigLoader{}
}

// LoadConfig implements ports.SystemConfigProvider.
func (l *SystemConfigLoader) LoadConfig(ctx context.Context, path string) (*ports.SystemConfig, error) {
	wire := systemConfigWire{
		MaxPayloadBytes:   defaultMaxPayloadBytes,
		MaxMagnitude:      defaultMaxMagnitude,
		DefaultTimeoutSec: defaultTimeoutSeconds,
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &wire); err != nil {
				return nil, fmt.Errorf("decoding system config %q: %w", path, err)
			}
		case os.IsNotExist(err):
			// Unconfigured run: defaults apply.
		default:
			return nil, fmt.Errorf("reading system config %q: %w", path, err)
		}
	}

	return &ports.SystemConfig{
		FilesystemRoot:    wire.FilesystemRoot,
		HTTPAllowlist:     wire.HTTPAllowlist,
		EnvironmentAllow:  wire.EnvironmentAllow,
		MaxPayloadBytes:   wire.MaxPayloadBytes,
		MaxMagnitude:      wire.MaxMagnitude,
		DefaultTimeoutSec: wire.DefaultTimeoutSec,
	}, nil
}
