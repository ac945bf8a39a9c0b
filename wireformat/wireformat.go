// Package wireformat defines the JSON wire format structures for communication
// between the component runtime host and sandboxed guest components. These
// types must remain stable as they define the ABI contract crossing the
// host/guest boundary (packed as ptr+len JSON blobs in guest linear memory).
package wireformat

import (
	"fmt"
	"time"
)

// ContextWireFormat carries cancellation and deadline information across the
// host/guest boundary for a single invocation.
type ContextWireFormat struct {
	Deadline  *time.Time `json:"deadline,omitempty"`
	TimeoutMs int64      `json:"timeout_ms,omitempty"`
	RunID     string     `json:"run_id,omitempty"` // For log correlation
	Cancelled bool       `json:"cancelled,omitempty"`
}

// ValueKind tags a Value's active field. A closed set: scalars, strings,
// lists, records, and variants, per the declared-world dynamic dispatch
// design — no compile-time schema per component, just a tagged union
// matched structurally against the loaded signature.
type ValueKind string

const (
	KindString  ValueKind = "string"
	KindInt     ValueKind = "int"
	KindFloat   ValueKind = "float"
	KindBool    ValueKind = "bool"
	KindList    ValueKind = "list"
	KindRecord  ValueKind = "record"
	KindVariant ValueKind = "variant"
	KindNone    ValueKind = "none"
)

// Value is the tagged wire representation of any scalar, string, list,
// record, or variant value crossing the host/guest boundary or flowing
// through the value proxy between components. Never carries an interface
// handle or capability reference — only data.
type Value struct {
	Kind ValueKind `json:"kind"`

	Str   string  `json:"str,omitempty"`
	Int   int64   `json:"int,omitempty"`
	Float float64 `json:"float,omitempty"`
	Bool  bool    `json:"bool,omitempty"`

	List   []Value          `json:"list,omitempty"`
	Record map[string]Value `json:"record,omitempty"`

	VariantCase    string `json:"variant_case,omitempty"`
	VariantPayload *Value `json:"variant_payload,omitempty"`
}

// ApproximateSize estimates the serialized byte size of the value, used by
// the value proxy's payload ceiling check without a full JSON marshal.
func (v Value) ApproximateSize() int {
	switch v.Kind {
	case KindString:
		return len(v.Str)
	case KindInt, KindFloat, KindBool, KindNone:
		return 8
	case KindList:
		n := 0
		for _, item := range v.List {
			n += item.ApproximateSize()
		}
		return n
	case KindRecord:
		n := 0
		for k, item := range v.Record {
			n += len(k) + item.ApproximateSize()
		}
		return n
	case KindVariant:
		n := len(v.VariantCase)
		if v.VariantPayload != nil {
			n += v.VariantPayload.ApproximateSize()
		}
		return n
	default:
		return 0
	}
}

// FilesystemReadRequestWire is the wire format for a wasi:filesystem/types
// read-file call from guest to host.
type FilesystemReadRequestWire struct {
	Context ContextWireFormat `json:"context"`
	Path    string            `json:"path"`
}

// FilesystemReadResponseWire is the host's response to a filesystem read.
type FilesystemReadResponseWire struct {
	Contents string       `json:"contents,omitempty"` // base64
	Error    *ErrorDetail `json:"error,omitempty"`
}

// FilesystemWriteRequestWire is the wire format for a wasi:filesystem/types
// write-file call from guest to host.
type FilesystemWriteRequestWire struct {
	Context ContextWireFormat `json:"context"`
	Path    string            `json:"path"`
	Data    string            `json:"data"` // base64
	Append  bool              `json:"append,omitempty"`
}

// FilesystemWriteResponseWire is the host's response to a filesystem write.
type FilesystemWriteResponseWire struct {
	BytesWritten int          `json:"bytes_written,omitempty"`
	Error        *ErrorDetail `json:"error,omitempty"`
}

// HTTPRequestWire is the wire format for a wasi:http/outgoing-handler call
// from guest to host.
type HTTPRequestWire struct {
	Context ContextWireFormat   `json:"context"`
	Method  string              `json:"method"`
	URL     string              `json:"url"`
	Headers map[string][]string `json:"headers,omitempty"`
	Body    string              `json:"body,omitempty"` // base64
}

// HTTPResponseWire is the host's response to an outgoing HTTP request.
type HTTPResponseWire struct {
	StatusCode    int                 `json:"status_code"`
	Headers       map[string][]string `json:"headers,omitempty"`
	Body          string              `json:"body,omitempty"` // base64
	BodyTruncated bool                `json:"body_truncated,omitempty"`
	Error         *ErrorDetail        `json:"error,omitempty"`
}

// EnvironmentReadRequestWire is the wire format for a wasi:cli/environment
// variable lookup from guest to host.
type EnvironmentReadRequestWire struct {
	Context ContextWireFormat `json:"context"`
	Name    string            `json:"name"`
}

// EnvironmentReadResponseWire is the host's response to an environment read.
type EnvironmentReadResponseWire struct {
	Value   string       `json:"value,omitempty"`
	Present bool         `json:"present"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// RandomRequestWire is the wire format for a wasi:random/random call from
// guest to host.
type RandomRequestWire struct {
	Context     ContextWireFormat `json:"context"`
	ByteLength  int               `json:"byte_length"`
}

// RandomResponseWire is the host's response to a random-bytes request.
type RandomResponseWire struct {
	Bytes string       `json:"bytes,omitempty"` // base64
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail provides structured error information, consistent across the
// host, the linker, and the workflow executor.
// Error Types: "configuration", "binding", "policy", "loading", "runtime".
type ErrorDetail struct {
	Message string       `json:"message"`
	Type    string       `json:"type"`
	Code    string       `json:"code"` // e.g. "UnboundImport", "PayloadTooLarge"
	Wrapped *ErrorDetail `json:"wrapped,omitempty"`
}

// Error implements the error interface for ErrorDetail.
func (e *ErrorDetail) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if e.Type != "" {
		msg = fmt.Sprintf("%s: %s", e.Type, msg)
	}
	if e.Code != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.Code)
	}
	if e.Wrapped != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Wrapped.Error())
	}
	return msg
}
