// Package secrets resolves sensitive configuration values (registry
// credentials, allowlisted environment values referenced by a blueprint's
// system config) from local overrides, environment variables, or
// admin-controlled files, auto-tracking every resolved value so it can be
// scrubbed from host-visible output by internal/infrastructure/redaction.
package secrets

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pypes-dev/pypes/internal/application/ports"
)

// Config is the on-disk shape of the secrets sources a Resolver consults,
// in priority order: Local (dev-only inline values), Env (name -> env var
// mapping), Files (name -> admin-controlled file path).
type Config struct {
	Local map[string]string `yaml:"local"`
	Env   map[string]string `yaml:"env"`
	Files map[string]string `yaml:"files"`
}

// Resolver implements ports.SecretResolver. It resolves secrets from
// configured sources and automatically tracks them for redaction.
type Resolver struct {
	config   Config
	provider ports.SensitiveValueProvider
	cache    map[string]string
	mu       sync.RWMutex
}

// NewResolver creates a new secret resolver.
func NewResolver(config Config, provider ports.SensitiveValueProvider) *Resolver {
	return &Resolver{
		config:   config,
		provider: provider,
		cache:    make(map[string]string),
	}
}

// Resolve returns the secret value by name. It checks sources in order:
// Local -> Env -> Files. The resolved value is automatically tracked for
// redaction.
func (r *Resolver) Resolve(name string) (string, error) {
	r.mu.RLock()
	if value, ok := r.cache[name]; ok {
		r.mu.RUnlock()
		return value, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if value, ok := r.cache[name]; ok {
		return value, nil
	}

	value, err := r.resolveFromSources(name)
	if err != nil {
		return "", err
	}

	r.cache[name] = value
	if r.provider != nil {
		r.provider.Track(value)
	}
	return value, nil
}

func (r *Resolver) resolveFromSources(name string) (string, error) {
	if value, ok := r.config.Local[name]; ok {
		return value, nil
	}

	if envVar, ok := r.config.Env[name]; ok {
		value := os.Getenv(envVar)
		if value == "" {
			return "", fmt.Errorf("secret %q: env var %q is not set", name, envVar)
		}
		return value, nil
	}

	if filePath, ok := r.config.Files[name]; ok {
		dir := filepath.Dir(filePath)
		base := filepath.Base(filePath)

		root, err := os.OpenRoot(dir)
		if err != nil {
			return "", fmt.Errorf("secret %q: failed to open directory %q: %w", name, dir, err)
		}
		defer func() { _ = root.Close() }()

		f, err := root.Open(base)
		if err != nil {
			return "", fmt.Errorf("secret %q: failed to open file %q: %w", name, base, err)
		}
		defer func() { _ = f.Close() }()

		data, err := io.ReadAll(f)
		if err != nil {
			return "", fmt.Errorf("secret %q: reading file %q: %w", name, filePath, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	return "", fmt.Errorf("secret %q not found in local, env, or files", name)
}

// RegistryAuth implements ports.AuthProvider on top of a Resolver, looking
// up "<registry>.username" / "<registry>.password" secret names. A
// registry with no matching secrets resolves to anonymous access.
type RegistryAuth struct {
	resolver *Resolver
}

// NewRegistryAuth wraps resolver as a ports.AuthProvider.
func NewRegistryAuth(resolver *Resolver) *RegistryAuth {
	return &RegistryAuth{resolver: resolver}
}

// GetCredentials implements ports.AuthProvider.
func (a *RegistryAuth) GetCredentials(_ context.Context, registry string) (string, string, error) {
	username, err := a.resolver.Resolve(registry + ".username")
	if err != nil {
		return "", "", nil // anonymous: no credentials configured for this registry
	}
	password, err := a.resolver.Resolve(registry + ".password")
	if err != nil {
		return "", "", fmt.Errorf("registry %q: username configured without a matching password secret: %w", registry, err)
	}
	return username, password, nil
}
