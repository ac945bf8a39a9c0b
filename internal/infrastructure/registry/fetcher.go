// Package registry implements the RegistryFetcher collaborator: pulling
// component artifacts from an OCI registry for "remote://" component
// locations. It is deliberately the only place in the module that speaks
// the OCI distribution protocol — the Component Loader only ever sees the
// ports.RegistryFetcher interface.
package registry

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/content/file"
	"oras.land/oras-go/v2/registry/remote"
	"oras.land/oras-go/v2/registry/remote/auth"

	"github.com/pypes-dev/pypes/internal/application/ports"
)

// componentMediaType is the artifact media type Pypes components are
// published under.
const componentMediaType = "application/vnd.pypes.component.v1+wasm"

// Fetcher implements ports.RegistryFetcher against a real OCI registry via
// oras-go, caching pulled artifacts under cacheDir.
type Fetcher struct {
	cacheDir string
	auth     ports.AuthProvider
}

// NewFetcher builds a Fetcher that caches pulled artifacts under cacheDir
// (typically "~/.pypes/cache"). auth may be nil for anonymous registries.
func NewFetcher(cacheDir string, authProvider ports.AuthProvider) *Fetcher {
	return &Fetcher{cacheDir: cacheDir, auth: authProvider}
}

// Fetch implements ports.RegistryFetcher. location is
// "remote://<host>/<name>@<version>".
func (f *Fetcher) Fetch(ctx context.Context, location string) (ports.RegistryArtifact, error) {
	host, name, version, err := parseLocation(location)
	if err != nil {
		return ports.RegistryArtifact{}, err
	}

	repo, err := f.repository(host, name)
	if err != nil {
		return ports.RegistryArtifact{}, err
	}

	destDir := filepath.Join(f.cacheDir, host, name, version)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return ports.RegistryArtifact{}, fmt.Errorf("preparing cache directory: %w", err)
	}

	store, err := file.New(destDir)
	if err != nil {
		return ports.RegistryArtifact{}, fmt.Errorf("opening cache store: %w", err)
	}
	defer func() { _ = store.Close() }()

	desc, err := oras.Copy(ctx, repo, version, store, version, oras.DefaultCopyOptions)
	if err != nil {
		return ports.RegistryArtifact{}, fmt.Errorf("pulling %s: %w", location, err)
	}

	manifestBytes, err := content.FetchAll(ctx, repo, desc)
	if err != nil {
		return ports.RegistryArtifact{}, fmt.Errorf("fetching manifest for %s: %w", location, err)
	}

	wasmPath, err := findComponentLayer(destDir)
	if err != nil {
		return ports.RegistryArtifact{}, err
	}

	return ports.RegistryArtifact{
		LocalPath: wasmPath,
		Manifest:  manifestBytes,
		Checksum:  desc.Digest.String(),
	}, nil
}

// AvailableVersions implements ports.RegistryFetcher.
func (f *Fetcher) AvailableVersions(ctx context.Context, location string) ([]string, error) {
	host, name, _, err := parseLocation(location)
	if err != nil {
		return nil, err
	}

	repo, err := f.repository(host, name)
	if err != nil {
		return nil, err
	}

	var versions []string
	if err := repo.Tags(ctx, "", func(tags []string) error {
		versions = append(versions, tags...)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("listing versions for %s: %w", name, err)
	}
	return versions, nil
}

func (f *Fetcher) repository(host, name string) (*remote.Repository, error) {
	repo, err := remote.NewRepository(host + "/" + name)
	if err != nil {
		return nil, fmt.Errorf("resolving repository %s/%s: %w", host, name, err)
	}

	if f.auth != nil {
		repo.Client = &auth.Client{
			Client: http.DefaultClient,
			Cache:  auth.NewCache(),
			Credential: func(ctx context.Context, registryHost string) (auth.Credential, error) {
				username, password, err := f.auth.GetCredentials(ctx, registryHost)
				if err != nil {
					return auth.EmptyCredential, err
				}
				return auth.Credential{Username: username, Password: password}, nil
			},
		}
	}

	return repo, nil
}

// parseLocation splits "remote://<host>/<name>@<version>" into its parts.
func parseLocation(location string) (host, name, version string, err error) {
	trimmed, ok := strings.CutPrefix(location, "remote://")
	if !ok {
		return "", "", "", fmt.Errorf("not a remote location: %q", location)
	}

	host, rest, ok := strings.Cut(trimmed, "/")
	if !ok || host == "" || rest == "" {
		return "", "", "", fmt.Errorf("malformed remote location %q: expected remote://<host>/<name>@<version>", location)
	}

	name, version, ok = strings.Cut(rest, "@")
	if !ok || name == "" || version == "" {
		return "", "", "", fmt.Errorf("malformed remote location %q: missing @<version>", location)
	}

	return host, name, version, nil
}

// findComponentLayer locates the single .wasm file oras-go's file store
// wrote into destDir when copying the component layer.
func findComponentLayer(destDir string) (string, error) {
	entries, err := os.ReadDir(destDir)
	if err != nil {
		return "", fmt.Errorf("reading cache directory %q: %w", destDir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".wasm") {
			return filepath.Join(destDir, entry.Name()), nil
		}
	}
	return "", fmt.Errorf("no component layer found in %q", destDir)
}
