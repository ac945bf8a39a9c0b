package blueprint

// ComponentWorld is a component artifact's declared set of imports and
// exports, parsed from the artifact's metadata by the component loader.
// Pure data: the domain never inspects or runs the artifact's bytecode.
type ComponentWorld struct {
	Imports []InterfaceName
	Exports []InterfaceName

	// ImportFunctions maps an imported interface's qualified name to the
	// specific function names the component actually calls on it, used by
	// the analyser to resolve the conditional wasi:filesystem/types
	// DestructiveAction rule from a wiring edge alone.
	ImportFunctions map[string][]string

	// ExportFunctions maps an exported interface's qualified name to the
	// function names it declares, used to validate workflow step targets
	// and value-proxy call signatures.
	ExportFunctions map[string][]string

	// Signatures maps "<interface qualified name>#<function>" to its
	// declared parameter and return shape, used by the Value Proxy to
	// type-check arguments and return values before crossing the sandbox
	// boundary.
	Signatures map[string]FunctionSignature
}

// ParamKind is the declared shape of one parameter or return slot, a
// subset of wireformat.ValueKind duplicated here so the domain layer does
// not depend on the wire package's JSON tags.
type ParamKind string

const (
	ParamString  ParamKind = "string"
	ParamInt     ParamKind = "int"
	ParamFloat   ParamKind = "float"
	ParamBool    ParamKind = "bool"
	ParamList    ParamKind = "list"
	ParamRecord  ParamKind = "record"
	ParamVariant ParamKind = "variant"
	ParamAny     ParamKind = "any"
)

// FunctionSignature is the declared parameter and return shape of one
// exported function, as parsed from a component's world metadata.
type FunctionSignature struct {
	Params map[string]ParamKind
	Return ParamKind
}

// Signature looks up the declared signature of iface's function fn.
func (w ComponentWorld) Signature(iface InterfaceName, fn string) (FunctionSignature, bool) {
	sig, ok := w.Signatures[iface.Qualified()+"#"+fn]
	return sig, ok
}

// ExportsInterface reports whether the world declares the given interface
// among its exports (name-equality, ignoring version when either side
// omits one).
func (w ComponentWorld) ExportsInterface(iface InterfaceName) bool {
	for _, exported := range w.Exports {
		if exported.Equals(iface) {
			return true
		}
	}
	return false
}

// ExportsFunction reports whether the world's export of iface declares a
// function named fn.
func (w ComponentWorld) ExportsFunction(iface InterfaceName, fn string) bool {
	fns, ok := w.ExportFunctions[iface.Qualified()]
	if !ok {
		return false
	}
	for _, name := range fns {
		if name == fn {
			return true
		}
	}
	return false
}
