package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/hupe1980/supportmesh/codeassist"
	"github.com/hupe1980/supportmesh/logging"
	"github.com/hupe1980/supportmesh/metrics"
	"github.com/rs/cors"
)

// ChatService answers customer queries.
type ChatService interface {
	Chat(ctx context.Context, query string) (string, error)
}

// CodeAssistant explains, optimizes and reviews code.
type CodeAssistant interface {
	Explain(ctx context.Context, code string) (string, error)
	Optimize(ctx context.Context, code string) (string, error)
	Review(ctx context.Context, code string) (*codeassist.Report, error)
}

// Options configures the Server.
type Options struct {
	// CodeAssistant enables the /explain, /optimize and /review routes.
	CodeAssistant CodeAssistant
	// Metrics enables request metrics and the metrics route.
	Metrics     *metrics.Collector
	MetricsPath string
	// CORSOrigins restricts cross-origin callers; empty allows any origin.
	CORSOrigins []string
	Logger      logging.Logger
}

// Server routes HTTP requests to the chat service and code assistant.
type Server struct {
	router  *mux.Router
	handler http.Handler
	chat    ChatService
	code    CodeAssistant
	metrics *metrics.Collector
	logger  logging.Logger
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Query *string `json:"query"`
}

// CodeRequest is the body of the code routes.
type CodeRequest struct {
	Code *string `json:"code"`
}

// Response carries a single text answer.
type Response struct {
	Response string `json:"response"`
}

// ErrorResponse carries a failure description.
type ErrorResponse struct {
	Error string `json:"error"`
}

// New creates a Server in front of chat.
func New(chat ChatService, optFns ...func(o *Options)) *Server {
	opts := Options{MetricsPath: "/metrics"}

	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{
		router:  mux.NewRouter(),
		chat:    chat,
		code:    opts.CodeAssistant,
		metrics: opts.Metrics,
		logger:  logging.OrNoOp(opts.Logger),
	}

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})

	s.registerRoutes(opts.MetricsPath)
	s.handler = c.Handler(s.logRequests(s.router))

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.handler.ServeHTTP(w, r) }

// Handler returns the root handler including CORS.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) registerRoutes(metricsPath string) {
	s.router.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)
	s.router.HandleFunc("/chat/", s.handleChat).Methods(http.MethodPost)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	if s.code != nil {
		s.router.HandleFunc("/explain", s.handleCode(s.code.Explain)).Methods(http.MethodPost)
		s.router.HandleFunc("/optimize", s.handleCode(s.code.Optimize)).Methods(http.MethodPost)
		s.router.HandleFunc("/review", s.handleReview).Methods(http.MethodPost)
	}

	if s.metrics != nil && metricsPath != "" {
		s.router.Handle(metricsPath, s.metrics.Handler()).Methods(http.MethodGet)
	}
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, "invalid request body: "+err.Error())
		return
	}
	if req.Query == nil {
		s.writeError(w, http.StatusUnprocessableEntity, "field required: query")
		return
	}

	answer, err := s.chat.Chat(r.Context(), *req.Query)
	if err != nil {
		s.logger.Error("http.chat.error", "error", err.Error())
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, Response{Response: answer})
}

func (s *Server) handleCode(fn func(context.Context, string) (string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, ok := s.decodeCode(w, r)
		if !ok {
			return
		}

		answer, err := fn(r.Context(), code)
		if err != nil {
			s.writeCodeError(w, err)
			return
		}

		s.writeJSON(w, http.StatusOK, Response{Response: answer})
	}
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	code, ok := s.decodeCode(w, r)
	if !ok {
		return
	}

	report, err := s.code.Review(r.Context(), code)
	if err != nil {
		s.writeCodeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) decodeCode(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req CodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusUnprocessableEntity, "invalid request body: "+err.Error())
		return "", false
	}
	if req.Code == nil {
		s.writeError(w, http.StatusUnprocessableEntity, "field required: code")
		return "", false
	}
	return *req.Code, true
}

func (s *Server) writeCodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, codeassist.ErrEmptyCode) {
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.logger.Error("http.code.error", "error", err.Error())
	s.writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, ErrorResponse{Error: msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("http.response.encode_failed", "error", err.Error())
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		route := s.routeLabel(r)
		next.ServeHTTP(rec, r)

		d := time.Since(start)
		if s.metrics != nil {
			s.metrics.RecordHTTPRequest(r.Method, route, rec.status, d)
		}
		s.logger.Info("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", rec.status,
			"duration_ms", d.Milliseconds(),
		)
	})
}

// unmatchedRoute labels 404 and 405 responses so arbitrary paths do not
// become metric series.
const unmatchedRoute = "unmatched"

func (s *Server) routeLabel(r *http.Request) string {
	var m mux.RouteMatch
	if !s.router.Match(r, &m) || m.MatchErr != nil || m.Route == nil {
		return unmatchedRoute
	}
	tmpl, err := m.Route.GetPathTemplate()
	if err != nil {
		return unmatchedRoute
	}
	return tmpl
}
