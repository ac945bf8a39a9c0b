// Package container is the composition root: it wires every concrete
// infrastructure adapter into the application layer's ports and hands
// back a single *services.Runner, the only collaborator cmd/pypes talks
// to.
package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pypes-dev/pypes/internal/application/ports"
	"github.com/pypes-dev/pypes/internal/application/services"
	"github.com/pypes-dev/pypes/internal/domain/capabilities"
	"github.com/pypes-dev/pypes/internal/domain/graph"
	hostcapabilities "github.com/pypes-dev/pypes/internal/infrastructure/capabilities"
	"github.com/pypes-dev/pypes/internal/infrastructure/build"
	"github.com/pypes-dev/pypes/internal/infrastructure/config"
	"github.com/pypes-dev/pypes/internal/infrastructure/redaction"
	"github.com/pypes-dev/pypes/internal/infrastructure/registry"
	"github.com/pypes-dev/pypes/internal/infrastructure/secrets"
	"github.com/pypes-dev/pypes/internal/infrastructure/wasm"
)

// Options configure the container. All fields are optional; a zero-value
// Options yields a Runner bounded to deny filesystem, HTTP, and
// environment access (an unconfigured run), matching Provider's own
// nil-config default.
type Options struct {
	Logger           *slog.Logger
	SystemConfigPath string
	RegistryCacheDir string
	Secrets          secrets.Config
	Redaction        redaction.Config
}

// Container holds every wired collaborator so cmd/pypes can reach the ones
// it needs directly (the redactor, for log/output scrubbing) without
// reaching back through the Runner.
type Container struct {
	runner          *services.Runner
	systemConfig    *ports.SystemConfig
	redactor        *redaction.Redactor
	secretProvider  ports.SensitiveValueProvider
	analyzer        *graph.Analyzer
	logger          *slog.Logger
}

// New builds a Container from opts. The only failure modes are a
// malformed system config file and a malformed redaction configuration;
// everything else in the dependency graph is pure construction.
func New(ctx context.Context, opts Options) (*Container, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	systemConfigLoader := config.NewSystemConfigLoader()
	systemCfg, err := systemConfigLoader.LoadConfig(ctx, opts.SystemConfigPath)
	if err != nil {
		return nil, fmt.Errorf("loading system config: %w", err)
	}

	redactor, err := redaction.New(opts.Redaction)
	if err != nil {
		return nil, fmt.Errorf("building redactor: %w", err)
	}

	secretProvider := redaction.NewProvider()
	secretResolver := secrets.NewResolver(opts.Secrets, secretProvider)
	registryAuth := secrets.NewRegistryAuth(secretResolver)

	fetcher := registry.NewFetcher(opts.RegistryCacheDir, registryAuth)
	digester := registry.NewDigester()
	loader := wasm.NewLoader(fetcher, digester)

	runtimeFactory := wasm.NewRuntimeFactory(0)
	hostProvider := hostcapabilities.NewProvider(systemCfg, build.Get())

	taxonomy := capabilities.NewTaxonomy()
	analyzer := graph.NewAnalyzer(taxonomy)

	runner := services.NewRunner(loader, analyzer, hostProvider, runtimeFactory, systemCfg.MaxPayloadBytes)

	return &Container{
		runner:         runner,
		systemConfig:   systemCfg,
		redactor:       redactor,
		secretProvider: secretProvider,
		analyzer:       analyzer,
		logger:         logger,
	}, nil
}

// Runner returns the composition point cmd/pypes drives every run through.
func (c *Container) Runner() *services.Runner {
	return c.runner
}

// SystemConfig returns the loaded process-wide configuration.
func (c *Container) SystemConfig() *ports.SystemConfig {
	return c.systemConfig
}

// Redactor returns the secret redactor shared by the CLI's output and log
// writers.
func (c *Container) Redactor() *redaction.Redactor {
	return c.redactor
}

// SensitiveValueProvider returns the provider every resolved secret is
// tracked against, for wrapping stdout/stderr in a redaction.Writer.
func (c *Container) SensitiveValueProvider() ports.SensitiveValueProvider {
	return c.secretProvider
}

// Analyzer returns the capability-graph analyser, exposed separately from
// Runner.Verify for callers (tests, `pypes verify`) that want the Accepted
// graph itself rather than just a pass/fail.
func (c *Container) Analyzer() *graph.Analyzer {
	return c.analyzer
}

// Logger returns the configured logger.
func (c *Container) Logger() *slog.Logger {
	return c.logger
}
