package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// MaxRequestBodyBytes caps JSON request bodies
const MaxRequestBodyBytes = 1 << 20

// IPResolver determines the client address of a request. Forwarding headers
// are honoured only when the direct peer is inside a trusted proxy prefix.
// A nil resolver trusts nobody.
type IPResolver struct {
	trusted []netip.Prefix
}

// NewIPResolver parses trusted proxy ranges. Bare addresses are accepted as
// single-host prefixes.
func NewIPResolver(trustedProxies []string) (*IPResolver, error) {
	resolver := &IPResolver{}
	for _, raw := range trustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if !strings.Contains(raw, "/") {
			addr, err := netip.ParseAddr(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid trusted proxy %q: %w", raw, err)
			}
			resolver.trusted = append(resolver.trusted, netip.PrefixFrom(addr.Unmap(), addr.Unmap().BitLen()))
			continue
		}
		prefix, err := netip.ParsePrefix(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", raw, err)
		}
		resolver.trusted = append(resolver.trusted, prefix.Masked())
	}
	return resolver, nil
}

// ClientIP walks X-Forwarded-For from the right and returns the first hop
// that is not a trusted proxy. X-Real-IP is used when X-Forwarded-For is absent.
func (res *IPResolver) ClientIP(r *http.Request) string {
	peer, ok := peerAddr(r.RemoteAddr)
	if !ok {
		if r.RemoteAddr == "" {
			return "unknown"
		}
		return r.RemoteAddr
	}
	if !res.isTrusted(peer) {
		return peer.String()
	}

	if xff := r.Header.Values("X-Forwarded-For"); len(xff) > 0 {
		hops := strings.Split(strings.Join(xff, ","), ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				// a malformed hop means the chain before it cannot be trusted
				return peer.String()
			}
			hop = hop.Unmap()
			if !res.isTrusted(hop) {
				return hop.String()
			}
		}
		return peer.String()
	}

	if realIP, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return realIP.Unmap().String()
	}
	return peer.String()
}

func (res *IPResolver) isTrusted(addr netip.Addr) bool {
	if res == nil {
		return false
	}
	for _, prefix := range res.trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

func peerAddr(remoteAddr string) (netip.Addr, bool) {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

// DecodeJSON decodes a single JSON object from the request body into dst,
// rejecting unknown fields, trailing data and bodies over MaxRequestBodyBytes.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("invalid request body: unexpected trailing data")
	}

	return nil
}
