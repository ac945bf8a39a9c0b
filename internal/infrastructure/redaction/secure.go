package redaction

import "runtime"

// SecureString holds a sensitive value that is zeroed when no longer
// needed. Used for high-value secrets such as registry passwords that
// outlive a single Resolve call.
type SecureString struct {
	value []byte
}

// NewSecureString copies s into a SecureString. The caller should zero its
// own copy once this call returns.
func NewSecureString(s string) *SecureString {
	ss := &SecureString{value: []byte(s)}
	runtime.SetFinalizer(ss, func(ss *SecureString) { ss.Zero() })
	return ss
}

// String returns the secret value. Avoid logging this.
func (ss *SecureString) String() string {
	return string(ss.value)
}

// Zero overwrites the backing memory with zeros.
func (ss *SecureString) Zero() {
	for i := range ss.value {
		ss.value[i] = 0
	}
}
