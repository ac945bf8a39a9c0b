package main

import (
	"os"

	"github.com/goccy/go-yaml"

	"github.com/pypes-dev/pypes/internal/infrastructure/redaction"
	"github.com/pypes-dev/pypes/internal/infrastructure/secrets"
)

// cliConfigWire is the secrets/redaction half of the system config file;
// the SystemConfig half (filesystem root, allowlists, payload ceiling) is
// decoded separately by config.SystemConfigLoader. Both halves read the
// same file so an operator maintains one document.
type cliConfigWire struct {
	Secrets   secrets.Config   `yaml:"secrets"`
	Redaction redaction.Config `yaml:"redaction"`
}

// loadCLIConfig reads the secrets and redaction sections of the system
// config file. A missing file yields zero-value (no secrets, gitleaks
// defaults only) sections, matching an unconfigured first run.
func loadCLIConfig(path string) (secrets.Config, redaction.Config, error) {
	var wire cliConfigWire
	if path == "" {
		return wire.Secrets, wire.Redaction, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return wire.Secrets, wire.Redaction, nil
		}
		return wire.Secrets, wire.Redaction, err
	}

	if err := yaml.Unmarshal(data, &wire); err != nil {
		return wire.Secrets, wire.Redaction, err
	}
	return wire.Secrets, wire.Redaction, nil
}
