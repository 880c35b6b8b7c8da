package emailcheck

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/acesoft/ace-crm-site/pkg/logging"
)

// ProxyHandler serves POST /api/proxy-validate-email so the browser never
// sees the upstream API key.
type ProxyHandler struct {
	upstream *Upstream
	logger   *logging.Logger
}

// NewProxyHandler creates the handler. A nil upstream degrades to the local
// syntax check.
func NewProxyHandler(upstream *Upstream, logger *logging.Logger) *ProxyHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ProxyHandler{upstream: upstream, logger: logger}
}

// ValidateEmail handles POST /api/proxy-validate-email.
func (h *ProxyHandler) ValidateEmail(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4<<10)).Decode(&req); err != nil {
		h.logger.Warn("failed to decode email validation request", "error", err)
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	resp, status, err := evaluate(r.Context(), h.upstream, req.Email)
	if err != nil && !errors.Is(err, ErrEmailRequired) {
		h.logger.Error("email validation upstream failed", "error", err)
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
