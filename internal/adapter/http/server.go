package adapthttp

import (
	"net/http"

	"accounts/internal/app"
)

const sessionCookieName = "session"

// Server is the driving HTTP adapter that routes requests to the
// application services.
type Server struct {
	auth          *app.AuthService
	webDir        string
	secureCookies bool
}

// New creates a Server wired to the given auth service.
func New(auth *app.AuthService, webDir string) *Server {
	return &Server{auth: auth, webDir: webDir}
}

// WithSecureCookies marks session cookies Secure, for deployments behind
// TLS.
func (s *Server) WithSecureCookies() *Server {
	s.secureCookies = true
	return s
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	api.HandleFunc("/signup", s.handleSignup)
	api.HandleFunc("/login", s.handleLogin)
	api.HandleFunc("/logout", s.handleLogout)
	api.HandleFunc("/me", s.handleMe)
	api.Handle("/profile", s.authMiddleware(http.HandlerFunc(s.handleProfile)))

	root := http.NewServeMux()
	root.Handle("/api/v1/", http.StripPrefix("/api/v1", api))
	root.Handle("/", spaFromDisk(s.webDir))

	return s.loggingMiddleware(withNoCache(root))
}
