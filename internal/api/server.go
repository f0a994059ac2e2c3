package api

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"taskfeed/internal/auth"
	"taskfeed/pkg/activity"
	"taskfeed/pkg/task"
	"taskfeed/pkg/user"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Options holds the collaborators of a Server.
type Options struct {
	Tasks    *task.Service
	Activity *activity.Bus
	Users    user.Store
	Tokens   *auth.Tokens
	Log      logrus.FieldLogger
	// Registry receives the HTTP metrics. A fresh registry is used when nil.
	Registry *prometheus.Registry
}

// Server is the HTTP API server.
type Server struct {
	tasks    *task.Service
	activity *activity.Bus
	users    user.Store
	tokens   *auth.Tokens
	log      logrus.FieldLogger
	registry *prometheus.Registry
	metrics  *metrics
	mux      *http.ServeMux
	handler  http.Handler
}

// New creates a new Server.
func New(opts Options) *Server {
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	s := &Server{
		tasks:    opts.Tasks,
		activity: opts.Activity,
		users:    opts.Users,
		tokens:   opts.Tokens,
		log:      opts.Log,
		registry: opts.Registry,
		mux:      http.NewServeMux(),
	}
	s.metrics = newMetrics(opts.Registry, s.activity)
	s.routes()
	s.handler = chain(s.mux,
		withRequestID,
		s.withAccessLog,
		s.withRecover,
		auth.Authenticate(s.tokens),
		s.metrics.middleware,
	)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) routes() {
	// Tasks
	s.mux.HandleFunc("GET /tasks/test", s.handleTaskTest)
	s.mux.HandleFunc("GET /tasks", s.handleTaskList)
	s.mux.HandleFunc("GET /tasks/{id}", s.handleTaskGet)
	s.mux.HandleFunc("POST /tasks", auth.Require(s.handleTaskCreate))
	s.mux.HandleFunc("DELETE /tasks/{id}", auth.Require(s.handleTaskDelete))

	// Likes
	s.mux.HandleFunc("POST /tasks/like/{id}", auth.Require(s.handleLike))
	s.mux.HandleFunc("POST /tasks/unlike/{id}", auth.Require(s.handleUnlike))

	// Comments
	s.mux.HandleFunc("POST /tasks/comment/{id}", auth.Require(s.handleCommentAdd))
	s.mux.HandleFunc("DELETE /tasks/comment/{id}/{commentId}", auth.Require(s.handleCommentRemove))

	// Activity
	s.mux.HandleFunc("GET /activity", s.handleActivityList)
	s.mux.HandleFunc("GET /activity/stream", s.handleActivityStream)
	s.mux.HandleFunc("GET /activity/verify", s.handleActivityVerify)

	// Users
	s.mux.HandleFunc("POST /users/register", s.handleUserRegister)
	s.mux.HandleFunc("GET /users/{id}", s.handleUserGet)

	// System
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("write json")
	}
}

// writeError writes a single-key error object, e.g. {"tasknotfound": "No task found"}.
func writeError(w http.ResponseWriter, status int, key, msg string) {
	writeJSON(w, status, map[string]string{key: msg})
}
