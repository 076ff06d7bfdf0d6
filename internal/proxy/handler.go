// Package proxy is the trusted HTTP intermediary. It accepts
// {endpoint, method, data} envelopes from clients that hold no credential,
// forwards them upstream with the access token attached, and relays the
// upstream status and body unchanged.
package proxy

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/bonuskeeper/internal/common"
	"github.com/dmitrijs2005/bonuskeeper/internal/logging"
	"github.com/dmitrijs2005/bonuskeeper/internal/transport"
)

// MaxBodyBytes limits the size of a forwarding request.
const MaxBodyBytes = 1 << 20

// Handler serves the forwarding endpoint.
type Handler struct {
	fwd      transport.Forwarder
	prefixes []string
	metrics  *Metrics
	log      logging.Logger
}

func NewHandler(fwd transport.Forwarder, allowedPrefixes []string, m *Metrics, log logging.Logger) *Handler {
	if m == nil {
		m = NewMetrics(nil)
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &Handler{fwd: fwd, prefixes: allowedPrefixes, metrics: m, log: log.With("module", "proxy")}
}

// Router returns the forwarding surface: POST on "/" and
// "/api/github-proxy", OPTIONS anywhere, 405 for other methods.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.metrics.observeOutcome("method_not_allowed")
		writeError(w, http.StatusMethodNotAllowed, common.ProxyErrorMethod, "Method not allowed")
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, common.ProxyErrorNotFound, "Not found")
	})
	h.Register(r)
	return r
}

// Register mounts the forwarding routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/", h.forward)
	r.Post("/api/github-proxy", h.forward)
}

// cors sets the CORS headers on every response and answers preflight
// requests with an empty 200.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hdr := w.Header()
		hdr.Set("Access-Control-Allow-Origin", "*")
		hdr.Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		hdr.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) forward(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req transport.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(&req); err != nil {
		h.metrics.observeOutcome("bad_request")
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, common.ProxyErrorBadRequest, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, common.ProxyErrorBadRequest, "invalid request body")
		return
	}

	method, err := transport.NormalizeMethod(req.Method)
	if err != nil {
		h.metrics.observeOutcome("bad_request")
		writeError(w, http.StatusBadRequest, common.ProxyErrorBadRequest, err.Error())
		return
	}
	req.Method = method

	endpoint, ok := h.allowed(req.Endpoint)
	if !ok {
		h.metrics.observeOutcome("forbidden")
		h.log.Warn(ctx, "endpoint refused", "endpoint", req.Endpoint, "method", method)
		writeError(w, http.StatusForbidden, common.ProxyErrorForbidden, "endpoint not allowed")
		return
	}
	req.Endpoint = endpoint

	start := time.Now()
	resp, err := h.fwd.Forward(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		h.metrics.observeOutcome("upstream_error")
		h.log.Error(ctx, "upstream call failed", "endpoint", endpoint, "method", method, "error", err)
		writeError(w, http.StatusInternalServerError, common.ProxyErrorUpstream, "upstream request failed")
		return
	}

	h.metrics.observeOutcome("relayed")
	h.metrics.observeUpstream(resp.StatusCode, elapsed)
	h.log.Info(ctx, "request relayed", "endpoint", endpoint, "method", method, "status", resp.StatusCode, "duration", elapsed)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}

// allowed normalizes endpoint and reports whether it may be forwarded. It
// must be a relative API path under one of the configured prefixes.
func (h *Handler) allowed(endpoint string) (string, bool) {
	endpoint = strings.TrimLeft(strings.TrimSpace(endpoint), "/")
	path, _, _ := strings.Cut(endpoint, "?")
	if path == "" ||
		strings.Contains(path, "..") ||
		strings.Contains(path, "//") ||
		strings.Contains(path, `\`) ||
		strings.Contains(path, ":") {
		return "", false
	}
	for _, p := range h.prefixes {
		if strings.HasPrefix(path, strings.TrimLeft(p, "/")) {
			return endpoint, true
		}
	}
	return "", false
}

func writeError(w http.ResponseWriter, status int, tag, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(common.ProxyErrorHeader, tag)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(transport.ErrorBody{Error: msg})
}
