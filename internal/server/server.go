// Package server exposes the loan calculator, saved finance options and comparative reports
// over an HTTP JSON API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/iwvelando/loan-compare/internal/auth"
	"github.com/iwvelando/loan-compare/internal/config"
	"github.com/iwvelando/loan-compare/internal/service"
	"github.com/iwvelando/loan-compare/internal/storage"
	"go.uber.org/zap"
)

type handler struct {
	logger      *zap.Logger
	service     *service.Service
	verifier    *auth.Verifier
	limiter     *rateLimiter
	maxBodySize int64
	version     string
}

// NewHandler constructs the HTTP handler serving the API. Routes under /api/options require a
// bearer token; they answer 401 when verifier is nil.
func NewHandler(logger *zap.Logger, svc *service.Service, verifier *auth.Verifier, cfg config.ServerConfig, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:      logger,
		service:     svc,
		verifier:    verifier,
		maxBodySize: cfg.MaxBodySizeBytes(),
		version:     trimmedVersion,
	}
	if cfg.RateLimit.RequestsPerSecond > 0 {
		h.limiter = newRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	}

	mux := http.NewServeMux()

	// Stateless calculator and report endpoints
	mux.HandleFunc("POST /api/calculate", h.handleCalculate)
	mux.HandleFunc("POST /api/report", h.handleReport)
	mux.HandleFunc("POST /api/finance", h.handleFinanceAction)

	// Saved finance options, scoped to the authenticated user
	mux.Handle("GET /api/options", h.authenticated(h.handleListOptions))
	mux.Handle("POST /api/options", h.authenticated(h.handleCreateOption))
	mux.Handle("GET /api/options/export", h.authenticated(h.handleExportOptions))
	mux.Handle("POST /api/options/report", h.authenticated(h.handleCompareOptions))
	mux.Handle("GET /api/options/{id}", h.authenticated(h.handleGetOption))
	mux.Handle("PUT /api/options/{id}", h.authenticated(h.handleUpdateOption))
	mux.Handle("DELETE /api/options/{id}", h.authenticated(h.handleDeleteOption))

	mux.HandleFunc("GET /api/version", h.handleVersion)
	mux.HandleFunc("GET /healthz", h.handleHealth)

	return h.rateLimit(mux)
}

func (h *handler) authenticated(next http.HandlerFunc) http.Handler {
	if h.verifier == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.respondErrorWithOp(w, http.StatusUnauthorized, "authentication is not configured", "server.authenticated")
		})
	}
	return h.verifier.Middleware(h.logger, func(w http.ResponseWriter, status int, msg string) {
		h.respondErrorWithOp(w, status, msg, "server.authenticated")
	})(next)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

// decodeJSON reads the capped request body into dst. It writes the error response itself and
// reports whether decoding succeeded.
func (h *handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, op string) bool {
	body, ok := h.readBody(w, r, op)
	if !ok {
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return false
	}
	return true
}

func (h *handler) readBody(w http.ResponseWriter, r *http.Request, op string) ([]byte, bool) {
	if h.maxBodySize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds limit of %d bytes", h.maxBodySize), op)
			return nil, false
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to read request: %v", err), op)
		return nil, false
	}
	return body, true
}

// respondServiceError maps service failures to HTTP statuses. Messages are passed through.
func (h *handler) respondServiceError(w http.ResponseWriter, err error, op string) {
	var validationErr *service.ValidationError
	var reportErr *service.ReportError

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, &reportErr):
		status = http.StatusBadGateway
	case errors.Is(err, context.Canceled):
		// The client went away; the status is never seen.
		status = http.StatusServiceUnavailable
	}
	h.respondErrorWithOp(w, status, err.Error(), op)
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("op", op),
			zap.Int("status", status),
			zap.String("error", msg),
		)
	} else {
		h.logger.Debug("request rejected",
			zap.String("op", op),
			zap.Int("status", status),
			zap.String("error", msg),
		)
	}

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
