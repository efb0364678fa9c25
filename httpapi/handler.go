package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/internal/respond"
	"github.com/MrEthical07/goSession/metrics/export/prometheus"
	"github.com/MrEthical07/goSession/middleware"
)

const maxBodyBytes = 64 << 10

// Handler serves the auth routes for one Engine.
type Handler struct {
	engine  *goSession.Engine
	metrics http.Handler
	logger  goSession.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithMetricsHandler replaces the /metrics handler.
func WithMetricsHandler(h http.Handler) Option {
	return func(hd *Handler) { hd.metrics = h }
}

// WithLogger sets the request logger. It defaults to the engine logger.
func WithLogger(l goSession.Logger) Option {
	return func(hd *Handler) { hd.logger = l }
}

// New returns a Handler for engine.
func New(engine *goSession.Engine, opts ...Option) *Handler {
	h := &Handler{
		engine:  engine,
		metrics: prometheus.NewExporter(engine).Handler(),
		logger:  engine.Logger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes returns the complete router.
//
// /healthz and /metrics bypass the session stack; everything else runs
// inside it.
func (h *Handler) Routes() http.Handler {
	api := http.NewServeMux()
	api.HandleFunc("POST /auth/sign-in", h.signIn)
	api.HandleFunc("POST /auth/sign-up", h.signUp)
	api.HandleFunc("DELETE /auth/sign-out", h.signOut)
	api.Handle("GET /users/me", middleware.RequireAuthenticated(h.engine)(http.HandlerFunc(h.me)))

	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", h.healthz)
	root.Handle("GET /metrics", h.metrics)
	root.Handle("/", middleware.Stack(h.engine)(api))

	return RequestLogger(h.logger)(root)
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "")
		return
	}

	st := goSession.StateFromContext(r.Context())
	p, err := h.engine.SignIn(r.Context(), st, req.Login, req.Password, req.RememberMe)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, p)
}

func (h *Handler) signUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	st := goSession.StateFromContext(r.Context())
	p, err := h.engine.SignUp(r.Context(), st, goSession.NewAccount{
		Username:    req.Username,
		Email:       req.Email,
		DisplayName: req.DisplayName,
	}, req.Password)
	switch {
	case errors.Is(err, goSession.ErrEmailTaken):
		respond.Error(w, http.StatusConflict, fmt.Sprintf("Email %s is already in use", req.Email))
	case errors.Is(err, goSession.ErrUsernameTaken):
		respond.Error(w, http.StatusConflict, fmt.Sprintf("Username %s is already taken", req.Username))
	case errors.Is(err, goSession.ErrUsernameReserved):
		respond.Error(w, http.StatusBadRequest, fmt.Sprintf("Username %q is not allowed", req.Username))
	case err != nil:
		h.fail(w, r, err)
	default:
		respond.JSON(w, http.StatusCreated, p)
	}
}

func (h *Handler) signOut(w http.ResponseWriter, r *http.Request) {
	st := goSession.StateFromContext(r.Context())
	if err := h.engine.SignOut(r.Context(), st); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, goSession.PrincipalFromContext(r.Context()))
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	latency, err := h.engine.Ping(r.Context())
	if err != nil {
		h.logger.Warn("health check failed", "error", err)
		respond.Error(w, http.StatusServiceUnavailable, "")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"storeMs": latency.Milliseconds(),
	})
}

// fail maps engine errors to status codes. Credential failures share one
// body whatever the cause.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, goSession.ErrInvalidCredentials):
		respond.Error(w, http.StatusUnauthorized, "")
	case errors.Is(err, goSession.ErrSignInThrottled):
		respond.Error(w, http.StatusTooManyRequests, "")
	case errors.Is(err, goSession.ErrStoreUnavailable):
		respond.Error(w, http.StatusServiceUnavailable, "")
	case errors.Is(err, goSession.ErrAccountExists):
		respond.Error(w, http.StatusConflict, "")
	case errors.Is(err, goSession.ErrAccountInvalid):
		respond.Error(w, http.StatusBadRequest, "")
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respond.Error(w, http.StatusInternalServerError, "")
	}
}
