// Package httpapi exposes the ESAM pipeline, channel/rule CRUD, auth, SCTE-35
// tools, and backup/restore surfaces over HTTP using chi routing.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/techexlab/pois/internal/auth"
	"github.com/techexlab/pois/internal/eventlog"
	"github.com/techexlab/pois/internal/pipeline"
	"github.com/techexlab/pois/internal/store"
)

// Server bundles the collaborators the HTTP surface needs.
type Server struct {
	pipeline   *pipeline.Pipeline
	store      *store.Store
	events     *eventlog.Logger
	auth       *auth.Service
	metrics    *Metrics
	log        *logrus.Logger
	adminToken string
	deadline   time.Duration
}

// New constructs the Server and returns its chi router, ready to hand to
// http.Server.
func New(p *pipeline.Pipeline, st *store.Store, events *eventlog.Logger, authSvc *auth.Service, metrics *Metrics, log *logrus.Logger, adminToken string, deadline time.Duration) (*Server, http.Handler) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{
		pipeline:   p,
		store:      st,
		events:     events,
		auth:       authSvc,
		metrics:    metrics,
		log:        log,
		adminToken: adminToken,
		deadline:   deadline,
	}
	return s, s.router()
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequest)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.deadline))

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/esam", s.handleESAM)
	r.Post("/esam/channel/{name}", s.handleESAMChannel)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.RequireAuth)

			r.Post("/auth/change-password", s.handleChangePassword)
			r.Post("/dryrun", s.handleDryRun)
			r.Get("/events", s.handleListEvents)
			r.Get("/events/{id}", s.handleEventDetail)
			r.Get("/events/stats", s.handleEventStats)

			r.Route("/tools/scte35", func(r chi.Router) {
				r.Post("/build", s.handleToolsBuild)
				r.Post("/decode", s.handleToolsDecode)
				r.Post("/validate", s.handleToolsValidate)
			})

			r.Group(func(r chi.Router) {
				r.Use(s.RequireAdmin)

				r.Get("/channels", s.handleListChannels)
				r.Post("/channels", s.handleCreateChannel)
				r.Put("/channels/{id}", s.handleUpdateChannel)
				r.Delete("/channels/{id}", s.handleDeleteChannel)
				r.Get("/channels/{id}/rules", s.handleListRules)
				r.Post("/channels/{id}/rules", s.handleCreateRule)
				r.Put("/rules/{id}", s.handleUpdateRule)
				r.Delete("/rules/{id}", s.handleDeleteRule)
				r.Post("/rules/reorder", s.handleReorderRules)

				r.Get("/backup", s.handleBackup)
				r.Post("/backup/restore", s.handleBackupRestore)

				r.Post("/auth/users", s.handleCreateUser)
				r.Post("/auth/tokens", s.handleCreateAPIToken)
				r.Post("/auth/tokens/{id}/revoke", s.handleRevokeAPIToken)
			})
		})
	})

	return r
}

func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   ww.Status(),
			"duration": time.Since(start).String(),
		}).Info("http request")
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("ok"))
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
