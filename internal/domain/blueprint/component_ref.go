package blueprint

import "strings"

// HostProvider is the literal sentinel naming the trusted host as a wiring
// provider, in place of a component name.
const HostProvider = "host"

// ComponentRef is a named handle to a component, resolved lazily to a
// ComponentArtifact by the component loader. Location is either a
// filesystem path or a "remote://<host>/<name>@<version>" URI.
type ComponentRef struct {
	Name     string
	Location string
}

// IsRemote reports whether the component's location is a registry URI
// rather than a local filesystem path.
func (c ComponentRef) IsRemote() bool {
	return strings.HasPrefix(c.Location, "remote://")
}
