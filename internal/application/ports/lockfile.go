package ports

import "context"

// VersionResolver resolves a semver constraint embedded in a `remote://`
// component location (`name@^1.2.0`) against the registry's advertised
// version list.
type VersionResolver interface {
	// Resolve converts a version constraint to an exact version.
	// Examples:
	//   "@1.0"   -> "1.0.x" (latest 1.0.x)
	//   "^1.2.0" -> "1.x.x >= 1.2.0"
	//   "~1.2.3" -> "1.2.x >= 1.2.3"
	Resolve(constraint string, available []string) (string, error)
}

// ArtifactDigester computes content digests, used by the Component Loader
// to verify a fetched artifact's checksum against the registry manifest's
// declared checksum before it is trusted.
type ArtifactDigester interface {
	// DigestBytes computes SHA-256 of raw bytes.
	DigestBytes(data []byte) string

	// DigestFile computes SHA-256 of a file.
	DigestFile(ctx context.Context, path string) (string, error)
}

// RegistryFetcher is the remote registry collaborator named in the overview:
// given a `remote://` location, produce a local artifact path, its
// manifest, and a checksum. It is deliberately out of core; this port is
// the Component Loader's only contact surface with it.
type RegistryFetcher interface {
	Fetch(ctx context.Context, location string) (RegistryArtifact, error)
	AvailableVersions(ctx context.Context, name string) ([]string, error)
}

// RegistryArtifact is what the registry collaborator hands back.
type RegistryArtifact struct {
	LocalPath string
	Manifest  []byte
	Checksum  string
}
