package http

import (
	"net/http"
	"strings"

	"hostel-backend/internal/auth"
	"hostel-backend/internal/handlers"
	"hostel-backend/internal/metrics"
	"hostel-backend/internal/middleware"
	"hostel-backend/static"

	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// RouterConfig carries the settings the HTTP layer needs from config.Config.
type RouterConfig struct {
	ForceHTTPS     bool
	CSRFKey        string
	AllowedOrigins []string
	LoginRateLimit int
	MaxUploadBytes int64
	// AllowRemotePasswordCheck opens /admin/check_password to non-loopback
	// clients. Only set in development.
	AllowRemotePasswordCheck bool
}

// Handlers groups the route handlers.
type Handlers struct {
	Complaints *handlers.ComplaintHandler
	Admin      *handlers.AdminHandler
	Media      *handlers.MediaHandler
	Health     *handlers.HealthHandler
	Render     *handlers.Renderer
}

// NewRouter builds the full handler chain: routes plus session, CSRF,
// compression, security headers, request ids and panic recovery.
func NewRouter(cfg RouterConfig, hs Handlers, authn *auth.Authenticator, log zerolog.Logger) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(log))

	// Resident pages
	r.HandleFunc("/", hs.Complaints.Index).Methods(http.MethodGet)
	r.HandleFunc("/submit", hs.Complaints.SubmitForm).Methods(http.MethodGet)
	r.HandleFunc("/submit", hs.Complaints.Submit).Methods(http.MethodPost)
	r.HandleFunc("/submit/success", hs.Complaints.SubmitSuccess).Methods(http.MethodGet)
	r.HandleFunc("/track", hs.Complaints.TrackForm).Methods(http.MethodGet)
	r.HandleFunc("/track", hs.Complaints.Track).Methods(http.MethodPost)
	r.HandleFunc("/uploads/{name}", hs.Media.Serve).Methods(http.MethodGet, http.MethodHead)
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(static.FS))))

	// Read-only JSON API
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.NewCORS(cfg.AllowedOrigins))
	api.HandleFunc("/track", hs.Complaints.APITrack).Methods(http.MethodGet, http.MethodOptions)

	// Admin entry points
	r.HandleFunc("/admin/login", hs.Admin.LoginForm).Methods(http.MethodGet)
	r.Handle("/admin/login", middleware.LoginRateLimit(cfg.LoginRateLimit)(http.HandlerFunc(hs.Admin.Login))).Methods(http.MethodPost)
	r.HandleFunc("/admin/logout", hs.Admin.Logout).Methods(http.MethodGet, http.MethodPost)

	local := middleware.LocalOnly(cfg.AllowRemotePasswordCheck)
	r.Handle("/admin/check_password", local(http.HandlerFunc(hs.Admin.CheckPasswordForm))).Methods(http.MethodGet)
	r.Handle("/admin/check_password", local(http.HandlerFunc(hs.Admin.CheckPassword))).Methods(http.MethodPost)

	// Admin pages
	admin := r.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/list", hs.Admin.List).Methods(http.MethodGet)
	admin.HandleFunc("/complaint/{id:[0-9]+}", hs.Admin.View).Methods(http.MethodGet)
	admin.HandleFunc("/complaint/{id:[0-9]+}/status", hs.Admin.UpdateStatus).Methods(http.MethodPost)
	admin.HandleFunc("/complaint/{id:[0-9]+}/delete", hs.Admin.Delete).Methods(http.MethodPost)
	admin.HandleFunc("/export", hs.Admin.ExportCSV).Methods(http.MethodGet)
	admin.HandleFunc("/export.json", hs.Admin.ExportJSON).Methods(http.MethodGet)
	admin.HandleFunc("/status", hs.Admin.Status).Methods(http.MethodGet)

	// Operations
	r.HandleFunc("/healthz", hs.Health.Health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	var h http.Handler = r
	h = middleware.AdminSession(authn)(h)
	if cfg.CSRFKey != "" {
		h = csrfProtect(cfg, hs)(h)
	}
	if cfg.MaxUploadBytes > 0 {
		// room for the text fields around the attachments
		h = middleware.MaxBodySize(cfg.MaxUploadBytes + 1<<20)(h)
	}
	h = middleware.GzipCompression(h)
	h = middleware.SecurityHeaders(h)
	h = middleware.HTTPSRedirect(cfg.ForceHTTPS)(h)
	h = middleware.Recoverer(log)(h)
	h = middleware.RequestID(h)
	return h
}

// csrfProtect guards every unsafe form request with gorilla/csrf. JSON
// posts to the loopback-only password check are exempt. A body over the
// upload limit makes the token unreadable; that is reported as 413.
func csrfProtect(cfg RouterConfig, hs Handlers) func(http.Handler) http.Handler {
	failure := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case !middleware.BodyTooLarge(r):
			hs.Render.CSRFFailure(w, r)
		case r.URL.Path == "/submit":
			hs.Complaints.TooLarge(w, r)
		default:
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
		}
	})
	protect := csrf.Protect([]byte(cfg.CSRFKey),
		csrf.Secure(cfg.ForceHTTPS),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(failure),
	)

	return func(next http.Handler) http.Handler {
		protected := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !middleware.IsHTTPS(r) {
				r = csrf.PlaintextHTTPRequest(r)
			}
			if r.URL.Path == "/admin/check_password" && strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
				r = csrf.UnsafeSkipCheck(r)
			}
			protected.ServeHTTP(w, r)
		})
	}
}
