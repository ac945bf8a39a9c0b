package redaction

import (
	"fmt"
	"strings"

	"github.com/pypes-dev/pypes/internal/application/ports"
)

// SafeError wraps err, redacting any value tracked by provider from its
// message before it ever reaches a log line or CLI output.
func SafeError(err error, provider ports.SensitiveValueProvider) error {
	if err == nil || provider == nil {
		return err
	}

	msg := err.Error()
	redacted := msg
	for _, secret := range provider.AllValues() {
		if secret != "" && strings.Contains(redacted, secret) {
			redacted = strings.ReplaceAll(redacted, secret, "[REDACTED]")
		}
	}

	if redacted == msg {
		return err
	}
	return fmt.Errorf("%s", redacted)
}
