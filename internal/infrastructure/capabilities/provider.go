// Package capabilities implements the trusted side of the four wasi:*
// interfaces a component's world may import: filesystem, outgoing HTTP,
// environment variables, and random bytes. Every method here runs on the
// host, never inside the sandbox, and is the only place sandboxed code can
// reach outside its linear memory.
package capabilities

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pypes-dev/pypes/internal/application/ports"
	"github.com/pypes-dev/pypes/internal/domain/blueprint"
	"github.com/pypes-dev/pypes/internal/infrastructure/build"
	"github.com/pypes-dev/pypes/wireformat"
)

const maxResponseBodyBytes = 10 * 1024 * 1024

var (
	filesystemInterface  = mustParse("wasi:filesystem/types")
	httpInterface        = mustParse("wasi:http/outgoing-handler")
	environmentInterface = mustParse("wasi:cli/environment")
	randomInterface      = mustParse("wasi:random/random")
)

func mustParse(raw string) blueprint.InterfaceName {
	iface, err := blueprint.ParseInterfaceName(raw)
	if err != nil {
		panic(err)
	}
	return iface
}

// Provider is the production ports.HostCapabilityProvider: every method
// enforces the SystemConfig boundaries (filesystem root, HTTP allowlist,
// environment allowlist) before touching the real OS.
type Provider struct {
	fsRoot       string
	httpAllow    []string
	envAllow     []string
	maxBodyBytes int64
	version      build.Info
}

// NewProvider builds a Provider bounded by cfg. A nil cfg yields a provider
// that denies every filesystem, HTTP, and environment request but still
// serves random bytes, matching an "unconfigured" run rather than a
// privileged one.
func NewProvider(cfg *ports.SystemConfig, version build.Info) *Provider {
	p := &Provider{maxBodyBytes: maxResponseBodyBytes, version: version}
	if cfg == nil {
		return p
	}
	p.fsRoot = cfg.FilesystemRoot
	p.httpAllow = cfg.HTTPAllowlist
	p.envAllow = cfg.EnvironmentAllow
	if cfg.MaxPayloadBytes > 0 {
		p.maxBodyBytes = int64(cfg.MaxPayloadBytes)
	}
	return p
}

// Advertises returns the fixed host-side interface surface.
func (p *Provider) Advertises() []blueprint.InterfaceName {
	return []blueprint.InterfaceName{filesystemInterface, httpInterface, environmentInterface, randomInterface}
}

// resolvePath confines path to the configured filesystem root, rejecting
// any traversal that would escape it.
func (p *Provider) resolvePath(path string) (string, error) {
	if p.fsRoot == "" {
		return "", fmt.Errorf("filesystem access is not configured")
	}
	joined := filepath.Join(p.fsRoot, filepath.Clean("/"+path))
	root, err := filepath.Abs(p.fsRoot)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.Abs(joined)
	if err != nil {
		return "", err
	}
	if resolved != root && !strings.HasPrefix(resolved, root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes filesystem root", path)
	}
	return resolved, nil
}

// FilesystemRead implements ports.HostCapabilityProvider.
func (p *Provider) FilesystemRead(ctx context.Context, req wireformat.FilesystemReadRequestWire) wireformat.FilesystemReadResponseWire {
	resolved, err := p.resolvePath(req.Path)
	if err != nil {
		return wireformat.FilesystemReadResponseWire{Error: &wireformat.ErrorDetail{Message: err.Error(), Type: "policy"}}
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		slog.WarnContext(ctx, "filesystem read failed", "path", req.Path, "error", err)
		return wireformat.FilesystemReadResponseWire{Error: &wireformat.ErrorDetail{Message: err.Error(), Type: "runtime"}}
	}
	return wireformat.FilesystemReadResponseWire{Contents: base64.StdEncoding.EncodeToString(data)}
}

// FilesystemWrite implements ports.HostCapabilityProvider.
func (p *Provider) FilesystemWrite(ctx context.Context, req wireformat.FilesystemWriteRequestWire) wireformat.FilesystemWriteResponseWire {
	resolved, err := p.resolvePath(req.Path)
	if err != nil {
		return wireformat.FilesystemWriteResponseWire{Error: &wireformat.ErrorDetail{Message: err.Error(), Type: "policy"}}
	}

	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		return wireformat.FilesystemWriteResponseWire{Error: &wireformat.ErrorDetail{Message: err.Error(), Type: "configuration"}}
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return wireformat.FilesystemWriteResponseWire{Error: &wireformat.ErrorDetail{Message: err.Error(), Type: "runtime"}}
	}

	flags := os.O_WRONLY | os.O_CREATE
	if req.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(resolved, flags, 0o644)
	if err != nil {
		slog.WarnContext(ctx, "filesystem write failed", "path", req.Path, "error", err)
		return wireformat.FilesystemWriteResponseWire{Error: &wireformat.ErrorDetail{Message: err.Error(), Type: "runtime"}}
	}
	defer func() { _ = f.Close() }()

	n, err := f.Write(data)
	if err != nil {
		return wireformat.FilesystemWriteResponseWire{Error: &wireformat.ErrorDetail{Message: err.Error(), Type: "runtime"}}
	}
	return wireformat.FilesystemWriteResponseWire{BytesWritten: n}
}

// hostAllowed reports whether hostname matches one of the allowlist
// entries, each either an exact host or a "*.suffix" wildcard.
func hostAllowed(allowlist []string, hostname string) bool {
	for _, entry := range allowlist {
		if entry == hostname {
			return true
		}
		if suffix, ok := strings.CutPrefix(entry, "*."); ok && strings.HasSuffix(hostname, "."+suffix) {
			return true
		}
	}
	return false
}

// EnvironmentRead implements ports.HostCapabilityProvider.
func (p *Provider) EnvironmentRead(ctx context.Context, req wireformat.EnvironmentReadRequestWire) wireformat.EnvironmentReadResponseWire {
	allowed := false
	for _, name := range p.envAllow {
		if name == req.Name {
			allowed = true
			break
		}
	}
	if !allowed {
		return wireformat.EnvironmentReadResponseWire{
			Error: &wireformat.ErrorDetail{Message: fmt.Sprintf("environment variable %q is not in the allowlist", req.Name), Type: "policy"},
		}
	}

	value, present := os.LookupEnv(req.Name)
	return wireformat.EnvironmentReadResponseWire{Value: value, Present: present}
}

// Random implements ports.HostCapabilityProvider.
func (p *Provider) Random(ctx context.Context, req wireformat.RandomRequestWire) wireformat.RandomResponseWire {
	if req.ByteLength <= 0 {
		return wireformat.RandomResponseWire{Error: &wireformat.ErrorDetail{Message: "byte_length must be positive", Type: "configuration"}}
	}
	buf := make([]byte, req.ByteLength)
	if _, err := rand.Read(buf); err != nil {
		return wireformat.RandomResponseWire{Error: &wireformat.ErrorDetail{Message: err.Error(), Type: "runtime"}}
	}
	return wireformat.RandomResponseWire{Bytes: base64.StdEncoding.EncodeToString(buf)}
}

// HTTPOutgoing implements ports.HostCapabilityProvider. It resolves the
// target hostname once, validates the allowlist and the resolved address,
// and pins the connection to that address so a DNS answer that changes
// mid-request (or on a later redirect) cannot smuggle a request to an
// address that was never checked.
func (p *Provider) HTTPOutgoing(ctx context.Context, req wireformat.HTTPRequestWire) wireformat.HTTPResponseWire {
	parsed, err := url.Parse(req.URL)
	if err != nil {
		return wireformat.HTTPResponseWire{Error: &wireformat.ErrorDetail{Message: err.Error(), Type: "configuration"}}
	}

	hostname := parsed.Hostname()
	if !hostAllowed(p.httpAllow, hostname) {
		return wireformat.HTTPResponseWire{
			Error: &wireformat.ErrorDetail{Message: fmt.Sprintf("host %q is not in the allowlist", hostname), Type: "policy"},
		}
	}

	var body io.Reader
	if req.Body != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return wireformat.HTTPResponseWire{Error: &wireformat.ErrorDetail{Message: err.Error(), Type: "configuration"}}
		}
		body = strings.NewReader(string(decoded))
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return wireformat.HTTPResponseWire{Error: &wireformat.ErrorDetail{Message: err.Error(), Type: "configuration"}}
	}
	httpReq.Header.Set("User-Agent", fmt.Sprintf("Pypes/%s (%s)", p.version.Version, p.version.Platform))
	for key, values := range req.Headers {
		for _, value := range values {
			httpReq.Header.Add(key, value)
		}
	}

	client := &http.Client{
		Transport: &dnsPinningTransport{
			base: &http.Transport{
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
			allowlist: p.httpAllow,
		},
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("stopped after 10 redirects")
			}
			return nil
		},
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		slog.WarnContext(ctx, "outgoing http request failed", "url", req.URL, "error", err)
		return wireformat.HTTPResponseWire{Error: &wireformat.ErrorDetail{Message: err.Error(), Type: "runtime"}}
	}
	defer func() { _ = resp.Body.Close() }()

	limited := io.LimitReader(resp.Body, p.maxBodyBytes+1)
	respBody, err := io.ReadAll(limited)
	if err != nil {
		return wireformat.HTTPResponseWire{Error: &wireformat.ErrorDetail{Message: err.Error(), Type: "runtime"}}
	}

	truncated := false
	if int64(len(respBody)) > p.maxBodyBytes {
		respBody = respBody[:p.maxBodyBytes]
		truncated = true
	}

	headers := make(map[string][]string, len(resp.Header))
	for key, values := range resp.Header {
		headers[key] = values
	}

	return wireformat.HTTPResponseWire{
		StatusCode:    resp.StatusCode,
		Headers:       headers,
		Body:          base64.StdEncoding.EncodeToString(respBody),
		BodyTruncated: truncated,
	}
}

// dnsPinningTransport resolves and validates a hostname once per request,
// then dials that exact address regardless of what a later DNS lookup
// (including ones triggered internally by net/http on redirect) returns.
type dnsPinningTransport struct {
	base      *http.Transport
	allowlist []string
}

func (t *dnsPinningTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	hostname := req.URL.Hostname()
	if !hostAllowed(t.allowlist, hostname) {
		return nil, fmt.Errorf("host %q is not in the allowlist", hostname)
	}

	ip, err := resolveAndValidate(req.Context(), hostname)
	if err != nil {
		return nil, fmt.Errorf("ssrf protection: %w", err)
	}

	port := req.URL.Port()
	if port == "" {
		if req.URL.Scheme == "https" {
			port = "443"
		} else {
			port = "80"
		}
	}

	pinned := t.base.Clone()
	pinned.DialContext = func(dialCtx context.Context, network, _ string) (net.Conn, error) {
		dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
		return dialer.DialContext(dialCtx, network, net.JoinHostPort(ip, port))
	}
	if req.URL.Scheme == "https" {
		if pinned.TLSClientConfig == nil {
			pinned.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		pinned.TLSClientConfig.ServerName = hostname
	}

	return pinned.RoundTrip(req)
}

// resolveAndValidate resolves hostname to a single IP address and rejects
// loopback, private, link-local, and unspecified ranges, closing off the
// DNS-rebinding path to internal services.
func resolveAndValidate(ctx context.Context, hostname string) (string, error) {
	if ip := net.ParseIP(hostname); ip != nil {
		if err := validateIP(ip); err != nil {
			return "", err
		}
		return ip.String(), nil
	}

	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, hostname)
	if err != nil {
		return "", err
	}
	for _, addr := range addrs {
		if err := validateIP(addr.IP); err == nil {
			return addr.IP.String(), nil
		}
	}
	return "", fmt.Errorf("no routable address found for %q", hostname)
}

func validateIP(ip net.IP) error {
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
		return fmt.Errorf("address %s is not routable", ip)
	}
	return nil
}
