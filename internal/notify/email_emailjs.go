package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/acesoft/ace-crm-site/pkg/logging"
)

const defaultEmailJSBaseURL = "https://api.emailjs.com"

// EmailJSConfig holds configuration for the EmailJS REST API.
type EmailJSConfig struct {
	BaseURL    string
	PrivateKey string
	Timeout    time.Duration
}

// EmailJSSender sends templates through the EmailJS REST endpoint. The
// recipient lives in the EmailJS template itself.
type EmailJSSender struct {
	baseURL    string
	privateKey string
	httpClient *http.Client
	logger     *logging.Logger
}

type emailJSRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

// NewEmailJSSender creates an EmailJS sender.
func NewEmailJSSender(cfg EmailJSConfig, logger *logging.Logger) *EmailJSSender {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultEmailJSBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &EmailJSSender{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		privateKey: cfg.PrivateKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// SendTemplate posts the template params to EmailJS.
func (s *EmailJSSender) SendTemplate(ctx context.Context, msg TemplateEmail) error {
	if err := msg.validate(); err != nil {
		return err
	}
	if msg.ServiceID == "" || msg.PublicKey == "" {
		return fmt.Errorf("notify: emailjs requires service id and public key")
	}
	ctx, span := emailTracer.Start(ctx, "notify.emailjs.send_template")
	defer span.End()

	body, err := json.Marshal(emailJSRequest{
		ServiceID:      msg.ServiceID,
		TemplateID:     msg.TemplateID,
		UserID:         msg.PublicKey,
		AccessToken:    s.privateKey,
		TemplateParams: msg.Params,
	})
	if err != nil {
		return fmt.Errorf("notify: marshal emailjs request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/v1.0/email/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build emailjs request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("emailjs send failed", "error", err, "template_id", msg.TemplateID)
		return fmt.Errorf("notify: emailjs send failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		s.logger.Error("emailjs returned error status", "status", resp.StatusCode, "body", string(raw), "template_id", msg.TemplateID)
		return fmt.Errorf("notify: emailjs returned status %d", resp.StatusCode)
	}

	s.logger.Info("template email sent via emailjs", "template_id", msg.TemplateID, "service_id", msg.ServiceID)
	return nil
}

var _ TemplateSender = (*EmailJSSender)(nil)
