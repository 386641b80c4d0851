// Package fingerprint builds HTTP transports whose TLS ClientHello mimics a
// real browser, so article hosts that filter on JA3 serve normal pages.
package fingerprint

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	utls "github.com/refraction-networking/utls"
)

// Profile names a TLS ClientHello shape.
type Profile string

const (
	ProfileGo      Profile = "go" // crypto/tls defaults
	ProfileChrome  Profile = "chrome"
	ProfileFirefox Profile = "firefox"
	ProfileSafari  Profile = "safari"
	ProfileRandom  Profile = "random"
)

// ParseProfile maps a configuration string to a Profile. Empty means ProfileGo.
func ParseProfile(s string) (Profile, error) {
	switch p := Profile(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return ProfileGo, nil
	case ProfileGo, ProfileChrome, ProfileFirefox, ProfileSafari, ProfileRandom:
		return p, nil
	default:
		return "", fmt.Errorf("unknown tls profile %q", s)
	}
}

func helloID(p Profile) (utls.ClientHelloID, error) {
	switch p {
	case ProfileChrome:
		return utls.HelloChrome_Auto, nil
	case ProfileFirefox:
		return utls.HelloFirefox_Auto, nil
	case ProfileSafari:
		return utls.HelloIOS_Auto, nil
	case ProfileRandom:
		return utls.HelloRandomizedNoALPN, nil
	default:
		return utls.ClientHelloID{}, fmt.Errorf("unknown tls profile %q", p)
	}
}

// Options tune the transport built by Transport.
type Options struct {
	// InsecureSkipVerify disables certificate checks (tests, intercepting proxies).
	InsecureSkipVerify bool
	// Proxy selects a proxy per request; nil means no proxy.
	Proxy func(*http.Request) (*url.URL, error)
}

// Transport returns a RoundTripper that speaks the given profile. ProfileGo
// yields a plain clone of http.DefaultTransport. Browser profiles dial
// through uTLS with ALPN pinned to http/1.1, because http.Transport cannot
// run HTTP/2 over a connection it did not handshake itself.
func Transport(p Profile, opts Options) (http.RoundTripper, error) {
	insecureSkipVerify := opts.InsecureSkipVerify
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = opts.Proxy
	if p == ProfileGo || p == "" {
		if insecureSkipVerify {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		}
		return transport, nil
	}

	id, err := helloID(p)
	if err != nil {
		return nil, err
	}

	if p != ProfileRandom {
		if _, err := utls.UTLSIdToSpec(id); err != nil {
			return nil, fmt.Errorf("failed to load %s hello spec: %w", p, err)
		}
	}

	dial := transport.DialContext
	transport.ForceAttemptHTTP2 = false
	transport.DialTLSContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		raw, err := dial(ctx, network, addr)
		if err != nil {
			return nil, err
		}

		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}
		cfg := &utls.Config{ServerName: host, InsecureSkipVerify: insecureSkipVerify}

		var conn *utls.UConn
		if p == ProfileRandom {
			conn = utls.UClient(raw, cfg, id)
		} else {
			// ApplyPreset mutates the extensions, so every dial gets its own spec.
			spec, _ := utls.UTLSIdToSpec(id)
			pinHTTP1(&spec)
			conn = utls.UClient(raw, cfg, utls.HelloCustom)
			if err := conn.ApplyPreset(&spec); err != nil {
				_ = raw.Close()
				return nil, fmt.Errorf("failed to apply %s preset: %w", p, err)
			}
		}

		if err := conn.HandshakeContext(ctx); err != nil {
			_ = raw.Close()
			return nil, fmt.Errorf("utls handshake with %s failed: %w", host, err)
		}
		return conn, nil
	}
	return transport, nil
}

func pinHTTP1(spec *utls.ClientHelloSpec) {
	for _, ext := range spec.Extensions {
		if alpn, ok := ext.(*utls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
		}
	}
}
