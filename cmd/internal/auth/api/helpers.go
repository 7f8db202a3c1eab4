package authapi

import (
	"net"
	"net/http"
	"strings"
)

// bearerToken returns the credentials of an Authorization: Bearer header.
// ok is false when the header is absent or uses another scheme.
func bearerToken(r *http.Request) (tok string, ok bool) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, rest, _ := strings.Cut(raw, " ")
	if !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// tokenFromRequest prefers Authorization: Bearer, then the configured header.
// present reports whether the caller attempted to authenticate at all.
// Other Authorization schemes (Basic from a proxy, say) are not session
// credentials and are ignored.
func tokenFromRequest(r *http.Request, header string) (tok string, present bool) {
	if tok, ok := bearerToken(r); ok {
		return tok, true
	}
	if raw := strings.TrimSpace(r.Header.Get(header)); raw != "" {
		return raw, true
	}
	return "", false
}

func clientIP(r *http.Request, trustProxy bool) net.IP {
	if trustProxy {
		if ip := parseForwardedIP(r.Header.Get("X-Forwarded-For")); ip != nil {
			return ip
		}
		if ip := net.ParseIP(strings.TrimSpace(r.Header.Get("X-Real-IP"))); ip != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		if ip := net.ParseIP(host); ip != nil {
			return ip
		}
	}
	return nil
}

func parseForwardedIP(raw string) net.IP {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	for _, p := range parts {
		if ip := net.ParseIP(strings.TrimSpace(p)); ip != nil {
			return ip
		}
	}
	return nil
}
