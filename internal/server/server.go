package server

import (
	"log"
	"net/http"

	"github.com/tangtown/tangdesk/pkg/tangify"
)

// Server is the local dev server: it serves the site's static assets and the
// aggregated snapshot, and proxies Tangify so the API key stays server-side.
type Server struct {
	SnapshotPath string
	SiteDir      string
	Generator    tangify.Generator
	Username     string
	Password     string
}

func New(snapshotPath, siteDir string, gen tangify.Generator, user, pass string) *Server {
	return &Server{
		SnapshotPath: snapshotPath,
		SiteDir:      siteDir,
		Generator:    gen,
		Username:     user,
		Password:     pass,
	}
}

func (s *Server) Start(addr string) error {
	log.Printf("Starting server on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// Handler builds the route table; split out from Start so tests can drive it
// through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// API Group
	mux.HandleFunc("GET /api/snapshot", s.basicAuth(s.handleSnapshot))
	mux.HandleFunc("GET /api/stats", s.basicAuth(s.handleStats))
	mux.HandleFunc("POST /api/tangify", s.basicAuth(s.handleTangify))

	// Static Files
	if s.SiteDir != "" {
		fileServer := http.FileServer(http.Dir(s.SiteDir))
		mux.Handle("/", s.basicAuthMiddlewareForStatic(fileServer))
	}

	return mux
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) basicAuthMiddlewareForStatic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
