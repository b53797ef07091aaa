package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"hostel-backend/internal/auth"
)

// SessionCookie holds the signed admin session token.
const SessionCookie = "admin_session"

// AdminSession resolves the session cookie into an auth.Admin and stores it
// in the request context. Requests without a valid session carry
// auth.Anonymous.
func AdminSession(authn *auth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			admin := auth.Anonymous
			if c, err := r.Cookie(SessionCookie); err == nil {
				admin = authn.Session(c.Value)
			}
			next.ServeHTTP(w, r.WithContext(auth.WithAdmin(r.Context(), admin)))
		})
	}
}

// RequireAdmin rejects anonymous callers: JSON clients get a 401, browsers
// are sent to the login page.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.AdminFrom(r.Context()).Authenticated {
			next.ServeHTTP(w, r)
			return
		}
		if WantsJSON(r) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": auth.ErrUnauthorized.Error()})
			return
		}
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
	})
}

// LocalOnly allows loopback clients, or everyone when allowAll is set.
// Only the socket address is trusted; forwarding headers are ignored.
func LocalOnly(allowAll bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !allowAll && !isLoopback(r.RemoteAddr) {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isLoopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// WantsJSON reports whether the client sent or asked for JSON.
func WantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}
