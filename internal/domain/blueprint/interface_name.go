package blueprint

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// InterfaceName is a canonicalised qualified interface name of the form
// "namespace:package[@version]/interface", e.g.
// "wasi:filesystem/types" or "app:matcher@1.2.0/classify".
type InterfaceName struct {
	Namespace string
	Package   string
	Version   *semver.Version
	Interface string
}

// ParseInterfaceName parses a qualified interface name string.
func ParseInterfaceName(raw string) (InterfaceName, error) {
	namespaceAndRest, interfacePart, ok := cutLast(raw, "/")
	if !ok || namespaceAndRest == "" || interfacePart == "" {
		return InterfaceName{}, fmt.Errorf("malformed interface name %q: expected namespace:package/interface", raw)
	}

	namespace, pkgAndVersion, ok := cutFirst(namespaceAndRest, ":")
	if !ok || namespace == "" || pkgAndVersion == "" {
		return InterfaceName{}, fmt.Errorf("malformed interface name %q: missing namespace", raw)
	}

	pkg := pkgAndVersion
	var version *semver.Version
	if p, v, ok := cutFirst(pkgAndVersion, "@"); ok {
		parsed, err := semver.NewVersion(v)
		if err != nil {
			return InterfaceName{}, fmt.Errorf("malformed interface name %q: invalid version %q: %w", raw, v, err)
		}
		pkg = p
		version = parsed
	}

	return InterfaceName{
		Namespace: namespace,
		Package:   pkg,
		Version:   version,
		Interface: interfacePart,
	}, nil
}

// String returns the canonical representation.
func (n InterfaceName) String() string {
	if n.Version != nil {
		return fmt.Sprintf("%s:%s@%s/%s", n.Namespace, n.Package, n.Version.String(), n.Interface)
	}
	return fmt.Sprintf("%s:%s/%s", n.Namespace, n.Package, n.Interface)
}

// Qualified returns the namespace:package/interface form without a version,
// used as the Taxonomy's lookup key.
func (n InterfaceName) Qualified() string {
	return fmt.Sprintf("%s:%s/%s", n.Namespace, n.Package, n.Interface)
}

// Equals compares two interface names. Version-qualified packages compare
// equal iff both namespace+package+version match; when either side omits a
// version, version is not part of the comparison.
func (n InterfaceName) Equals(other InterfaceName) bool {
	if n.Namespace != other.Namespace || n.Package != other.Package || n.Interface != other.Interface {
		return false
	}
	if n.Version != nil && other.Version != nil {
		return n.Version.Equal(other.Version)
	}
	return true
}

func cutFirst(s, sep string) (before, after string, found bool) {
	i := strings.Index(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}

func cutLast(s, sep string) (before, after string, found bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}
