package middleware

import (
	"net/http"
	"net/url"
	"strings"
)

// OriginAllowlist matches browser Origin headers against configured origins.
// "*" admits any origin; trailing slashes in the config are ignored.
type OriginAllowlist struct {
	any   bool
	allow map[string]struct{}
}

// NewOriginAllowlist builds an allowlist from CORS_ALLOWED_ORIGINS style values.
func NewOriginAllowlist(origins []string) *OriginAllowlist {
	a := &OriginAllowlist{allow: map[string]struct{}{}}
	for _, origin := range origins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "" {
			continue
		}
		if origin == "*" {
			a.any = true
			continue
		}
		a.allow[origin] = struct{}{}
	}
	return a
}

// Allows reports whether a non-empty origin is on the list.
func (a *OriginAllowlist) Allows(origin string) bool {
	if origin == "" {
		return false
	}
	if a.any {
		return true
	}
	_, ok := a.allow[origin]
	return ok
}

// CheckOrigin is a websocket upgrader origin check. Requests without an
// Origin header (non-browser clients) and same-host pages pass, as they do
// under CORS; everything else must be on the list.
func (a *OriginAllowlist) CheckOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" || a.Allows(origin) {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}
