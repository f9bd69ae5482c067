package server

import (
	"net"
	"net/http"
	"net/url"
	"strings"
)

// OriginAllowed reports whether a browser at origin may call the API. An entry
// of the form "https://*.vercel.app" matches any subdomain over that scheme.
func OriginAllowed(origin string, allowed []string) bool {
	ok, _ := matchOrigin(origin, allowed)
	return ok
}

// matchOrigin also reports whether only a bare "*" entry let origin in.
// Such origins never get credentialed responses.
func matchOrigin(origin string, allowed []string) (ok, wildcard bool) {
	if origin == "" {
		return false, false
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return false, false
	}
	host := u.Hostname()
	if host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return true, false
	}

	for _, entry := range allowed {
		entry = strings.TrimRight(strings.TrimSpace(entry), "/")
		if entry == "*" {
			wildcard = true
			continue
		}
		if strings.EqualFold(entry, origin) {
			return true, false
		}
		scheme, pattern, ok := strings.Cut(entry, "://*.")
		if !ok || !strings.EqualFold(scheme, u.Scheme) {
			continue
		}
		if strings.HasSuffix(strings.ToLower(host), "."+strings.ToLower(pattern)) {
			return true, false
		}
	}
	return wildcard, wildcard
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowed, wildcard := matchOrigin(origin, s.cfg.AllowedOrigins)
		if allowed {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			if !wildcard {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			h.Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			if !allowed {
				writeError(w, http.StatusForbidden, "origin not allowed")
				return
			}
			h := w.Header()
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			h.Set("Access-Control-Max-Age", "86400")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkOrigin gates websocket upgrades with the same allow-list. Requests
// without an Origin header come from non-browser clients.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if OriginAllowed(origin, s.cfg.AllowedOrigins) {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host, _, err := net.SplitHostPort(r.Host)
	if err != nil {
		host = r.Host
	}
	return strings.EqualFold(u.Hostname(), host)
}
