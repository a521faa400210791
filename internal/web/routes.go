package web

import (
	"io"
	"mime"
	"net/http"
	"path"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kozaktomas/photo-framer/internal/web/handlers"
	"github.com/kozaktomas/photo-framer/internal/web/middleware"
	"github.com/kozaktomas/photo-framer/internal/web/static"
)

func (s *Server) setupRoutes() {
	// Create handlers
	configHandler := handlers.NewConfigHandler(s.config)
	evaluateHandler := handlers.NewEvaluateHandler(s.config.Policy.Policy(), s.metrics, s.log)
	sessionsHandler := handlers.NewSessionsHandler(s.manager, s.validator, s.log)

	s.router.Handle("/metrics", s.metricsHandler())

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handlers.HealthCheck)

		r.Group(func(r chi.Router) {
			r.Use(chiMiddleware.Timeout(2 * time.Minute))

			r.Get("/config", configHandler.Get)
			r.Post("/evaluate", evaluateHandler.Evaluate)
			r.Post("/sessions", sessionsHandler.Create)
		})

		// Session routes resolve {id} to an editing session
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Use(middleware.RequireSession(s.manager))

			// Long-lived stream, no request timeout
			r.Get("/events", sessionsHandler.Events)

			r.Group(func(r chi.Router) {
				r.Use(chiMiddleware.Timeout(2 * time.Minute))

				r.Get("/", sessionsHandler.Get)
				r.Delete("/", sessionsHandler.Delete)
				r.Post("/image", sessionsHandler.Upload)
				r.Put("/editor", sessionsHandler.UpdateEditor)
				r.Post("/save", sessionsHandler.Save)
				r.Get("/frame", sessionsHandler.Frame)
			})
		})
	})

	// Serve static files for frontend
	s.router.Get("/*", s.serveSPA)
}

// serveSPA serves the embedded editor UI. Unknown paths fall back to index.html.
func (s *Server) serveSPA(w http.ResponseWriter, r *http.Request) {
	fs := static.GetFileSystem()
	name := r.URL.Path
	if name == "/" {
		name = "/index.html"
	}

	if f, err := fs.Open(name); err == nil {
		defer f.Close()
		if stat, err := f.Stat(); err == nil && !stat.IsDir() {
			contentType := mime.TypeByExtension(path.Ext(name))
			if contentType == "" {
				contentType = "application/octet-stream"
			}
			w.Header().Set("Content-Type", contentType)
			w.WriteHeader(http.StatusOK)
			_, _ = io.Copy(w, f)
			return
		}
	}

	index, err := fs.Open("/index.html")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer index.Close()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, index)
}
