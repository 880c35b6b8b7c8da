package leads

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/acesoft/ace-crm-site/internal/i18n"
	"github.com/acesoft/ace-crm-site/internal/session"
	"github.com/acesoft/ace-crm-site/pkg/logging"
)

const maxFormBody = 64 << 10

// translationNamespace holds the form messages in the catalog.
const translationNamespace = "ProductEnquire"

// CookieConfig controls the session cookie issued to visitors.
type CookieConfig struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// Handler serves the lead form endpoints.
type Handler struct {
	workflows map[string]*Workflow
	catalog   *i18n.Catalog
	sessions  session.Store
	cookie    CookieConfig
	logger    *logging.Logger
}

// NewHandler creates a new leads handler.
func NewHandler(workflows []*Workflow, catalog *i18n.Catalog, sessions session.Store, cookie CookieConfig, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if cookie.Name == "" {
		cookie.Name = "ace_session"
	}
	byName := make(map[string]*Workflow, len(workflows))
	for _, wf := range workflows {
		byName[wf.Form().Name] = wf
	}
	return &Handler{
		workflows: byName,
		catalog:   catalog,
		sessions:  sessions,
		cookie:    cookie,
		logger:    logger,
	}
}

// SubmitResponse is the body returned by SubmitForm.
type SubmitResponse struct {
	Status     string `json:"status"`
	Redirect   string `json:"redirect,omitempty"`
	ResetForm  bool   `json:"resetForm,omitempty"`
	EmailError string `json:"emailError,omitempty"`
	PhoneError string `json:"phoneError,omitempty"`
	Alert      string `json:"alert,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// SubmitForm handles POST /api/forms/{form}.
func (h *Handler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "form")
	wf, ok := h.workflows[name]
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: ErrUnknownForm.Error()})
		return
	}

	var fields Fields
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormBody)).Decode(&fields); err != nil {
		h.logger.Warn("failed to decode form body", "error", err, "form", name)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	sessionID := h.sessionID(w, r)
	t := h.translator(r)

	outcome, err := wf.Submit(r.Context(), sessionID, t, fields)
	if errors.Is(err, ErrSubmissionInFlight) {
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("form submission failed", "error", err, "form", name)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}

	resp := SubmitResponse{
		Status:     string(outcome.State),
		Redirect:   outcome.Redirect,
		ResetForm:  outcome.ResetForm,
		EmailError: outcome.EmailError,
		PhoneError: outcome.PhoneError,
		Alert:      outcome.Alert,
	}
	writeJSON(w, statusFor(outcome.State), resp)
}

// SessionMarker handles GET /api/session/marker.
func (h *Handler) SessionMarker(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(h.cookie.Name)
	if err != nil || c.Value == "" {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: session.ErrMarkerNotFound.Error()})
		return
	}
	value, err := h.sessions.Get(r.Context(), c.Value, session.FormSubmittedKey)
	if errors.Is(err, session.ErrMarkerNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("failed to read session marker", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{session.FormSubmittedKey: value})
}

// sessionID returns the visitor's session, issuing a cookie when absent.
func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(h.cookie.Name); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	cookie := &http.Cookie{
		Name:     h.cookie.Name,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	if h.cookie.MaxAge > 0 {
		cookie.MaxAge = int(h.cookie.MaxAge.Seconds())
	}
	http.SetCookie(w, cookie)
	return id
}

func (h *Handler) translator(r *http.Request) i18n.Translate {
	locale := h.catalog.Negotiate(r.URL.Query().Get("locale"), r.Header.Get("Accept-Language"))
	return h.catalog.Translator(locale).Namespace(translationNamespace)
}

func statusFor(s State) int {
	switch s {
	case StateSubmitted:
		return http.StatusOK
	case StateValidationFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
