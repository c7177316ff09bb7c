// Package httpapi exposes the plan engine over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"leadplan/engine/internal/errinfo"
	"leadplan/engine/internal/llm"
	"leadplan/engine/internal/logging"
)

const (
	maxBodyBytes      = 1 << 20
	requestIDHeader   = "X-Request-Id"
	timeoutGrace      = 15 * time.Second
	shutdownTimeout   = 10 * time.Second
	defaultTimeout    = 60 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Handler has the same shape as the engine's request handlers.
type Handler func(ctx context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo)

// PlanService is the engine surface the server needs.
type PlanService interface {
	AgentGeneratePlan(ctx context.Context, params json.RawMessage) (any, *errinfo.ErrorInfo)
	HasCredential() bool
	Model() string
}

type Options struct {
	Version        string
	AllowedOrigins []string
	RequestTimeout time.Duration
}

type Server struct {
	service PlanService
	opts    Options
	router  chi.Router
	logger  *slog.Logger
}

type errorBody struct {
	Error     string             `json:"error"`
	ErrorInfo *errinfo.ErrorInfo `json:"error_info,omitempty"`
}

type healthBody struct {
	Status        string `json:"status"`
	Version       string `json:"version,omitempty"`
	Model         string `json:"model"`
	HasCredential bool   `json:"has_credential"`
}

func NewServer(service PlanService, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultTimeout
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	s := &Server{service: service, opts: opts, logger: logger}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(s.requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.opts.RequestTimeout + timeoutGrace))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Post("/api/agent", s.serve("agent.generate_plan", s.service.AgentGeneratePlan))
	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	go func() {
		<-ctx.Done()
		s.logger.Info("http.shutdown", "addr", addr)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	s.logger.Info("http.listen", "addr", addr, "model", s.service.Model(), "has_credential", s.service.HasCredential())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) serve(method string, handler Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			s.logger.Warn("http.body_read_failed", "method", method, "error", err.Error())
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				detail := fmt.Sprintf("request body too large (limit %d bytes)", tooLarge.Limit)
				info := errinfo.InvalidInput(errinfo.PhaseRequest, detail)
				s.writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: detail, ErrorInfo: info})
				return
			}
			s.writeError(w, errinfo.InvalidInput(errinfo.PhaseRequest, "request body could not be read"))
			return
		}
		s.logger.Debug("http.request_body", "method", method, "params", logging.RedactJSON(body))
		result, info := handler(r.Context(), body)
		if info != nil {
			s.logger.Warn("http.response_error", "method", method, "error_code", info.ErrorCode, "fields", info.Fields)
			s.writeError(w, info)
			return
		}
		s.writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, healthBody{
		Status:        "ok",
		Version:       s.opts.Version,
		Model:         s.service.Model(),
		HasCredential: s.service.HasCredential(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("http.encode_failed", "error", err.Error())
	}
}

func (s *Server) writeError(w http.ResponseWriter, info *errinfo.ErrorInfo) {
	message := info.Detail
	if message == "" {
		message = strings.ToLower(info.ErrorCode)
	}
	s.writeJSON(w, statusFor(info), errorBody{Error: message, ErrorInfo: info})
}

func statusFor(info *errinfo.ErrorInfo) int {
	switch info.ErrorCode {
	case errinfo.CodeInvalidInput, errinfo.CodeValidationFailed:
		return http.StatusBadRequest
	case errinfo.CodeProviderRateLimited:
		return http.StatusTooManyRequests
	case errinfo.CodeUserCanceled:
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// requestID assigns a correlation id, honoring one supplied by the caller, and
// carries it to the engine on the request profile.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		profile, _ := llm.RequestProfileFromContext(r.Context())
		profile.RequestID = id
		next.ServeHTTP(w, r.WithContext(llm.WithRequestProfile(r.Context(), profile)))
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		profile, _ := llm.RequestProfileFromContext(r.Context())
		s.logger.Info("http.request",
			"request_id", profile.RequestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"remote", r.RemoteAddr,
			"duration_ms", time.Since(started).Milliseconds(),
		)
	})
}
