package capabilities

import "strings"

// InterfaceName is a qualified interface name of the form
// "namespace:package/interface", e.g. "wasi:filesystem/types".
type InterfaceName = string

// reservedPrefixes are namespaces that the system treats as privileged even
// when the exact interface isn't in the fixed table below. An unrecognised
// interface under one of these prefixes is classified conservatively
// (assume the worst, forcing it through policy review) rather than as
// PureComputation.
var reservedPrefixes = []string{"wasi:", "host:"}

// baseTaxonomy is the fixed, in-code table of the host capability surface
// (§6). Filesystem classification is completed by classifyFilesystem below,
// which adds DestructiveAction conditionally on the function being called.
var baseTaxonomy = map[InterfaceName]Set{
	"wasi:filesystem/types":      NewSet(SensitiveDataSource),
	"wasi:http/outgoing-handler": NewSet(Exfiltration, UntrustedContentSource),
	"wasi:cli/environment":       NewSet(SensitiveDataSource),
	"wasi:random/random":         NewSet(PureComputation),
}

// writeFunctionMarkers are substrings of exported function names that
// indicate a filesystem write, used to resolve Open Question (b): whether
// wasi:filesystem/types carries DestructiveAction unconditionally or only
// when a write operation is actually wired. The taxonomy treats it as
// conditional on the function, not the interface alone.
var writeFunctionMarkers = []string{"write", "append", "remove", "delete", "set-times", "create-directory"}

// Taxonomy classifies interfaces (and, for the conditional filesystem
// rule, specific functions on those interfaces) into capability classes.
// It is the single source of truth consulted by both the analyser and the
// linker.
type Taxonomy struct {
	table map[InterfaceName]Set
}

// NewTaxonomy returns the fixed, built-in taxonomy.
func NewTaxonomy() *Taxonomy {
	table := make(map[InterfaceName]Set, len(baseTaxonomy))
	for k, v := range baseTaxonomy {
		table[k] = v
	}
	return &Taxonomy{table: table}
}

// Classify returns the capability classes carried by a use of the given
// interface. functionName is optional (empty means "whole interface,
// worst case"); when non-empty and the interface is the conditional
// filesystem interface, DestructiveAction is added only if functionName
// looks like a write.
func (t *Taxonomy) Classify(iface InterfaceName, functionName string) Set {
	classes, known := t.table[iface]
	if !known {
		return t.classifyUnknown(iface)
	}

	if iface == "wasi:filesystem/types" && isWriteFunction(functionName) {
		classes = classes.Union(NewSet(DestructiveAction))
	}

	return classes
}

// classifyUnknown implements the taxonomy's default rule for interfaces it
// has no entry for: PureComputation, unless the interface's namespace is
// reserved, in which case it is classified conservatively so it cannot
// silently slip past policy review.
func (t *Taxonomy) classifyUnknown(iface InterfaceName) Set {
	for _, prefix := range reservedPrefixes {
		if strings.HasPrefix(iface, prefix) {
			return NewSet(UntrustedContentSource, SensitiveDataSource, Exfiltration, DestructiveAction)
		}
	}
	return NewSet(PureComputation)
}

func isWriteFunction(functionName string) bool {
	name := strings.ToLower(functionName)
	for _, marker := range writeFunctionMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

// ClassifyFunctions returns the capability classes carried by a wiring
// edge that imports iface and calls the given functions on it. This is how
// the analyser resolves the conditional filesystem rule: the edge itself
// names only an interface, so the write/read distinction is recovered from
// which of the interface's functions the consumer actually imports.
func (t *Taxonomy) ClassifyFunctions(iface InterfaceName, functions []string) Set {
	for _, fn := range functions {
		if isWriteFunction(fn) {
			return t.Classify(iface, fn)
		}
	}
	return t.Classify(iface, "")
}

// IsHostInterface reports whether iface is one of the four interfaces the
// Host Capability Provider advertises.
func (t *Taxonomy) IsHostInterface(iface InterfaceName) bool {
	_, ok := baseTaxonomy[iface]
	return ok
}
