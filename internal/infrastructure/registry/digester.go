package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
)

// Digester implements ports.ArtifactDigester with SHA-256, matching the
// digest scheme the registry's manifest checksums are expressed in.
type Digester struct{}

// NewDigester constructs a Digester.
func NewDigester() *Digester {
	return &Digester{}
}

// DigestBytes implements ports.ArtifactDigester.
func (Digester) DigestBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// DigestFile implements ports.ArtifactDigester.
func (Digester) DigestFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil)), nil
}
