package emailcheck

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"

	"github.com/acesoft/ace-crm-site/pkg/logging"
)

var upstreamTracer = otel.Tracer("acecrm.internal.emailcheck.upstream")

const defaultUpstreamURL = "https://emailvalidation.abstractapi.com/v1/"

// UpstreamConfig configures the third-party verification API.
type UpstreamConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// Upstream queries an Abstract-style email validation API.
type Upstream struct {
	client *resty.Client
	apiKey string
	logger *logging.Logger
}

type upstreamBody struct {
	Deliverability string `json:"deliverability"`
	IsValidFormat  struct {
		Value bool `json:"value"`
	} `json:"is_valid_format"`
	IsDisposable struct {
		Value bool `json:"value"`
	} `json:"is_disposable_email"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewUpstream builds the upstream client. It returns nil without an API key.
func NewUpstream(cfg UpstreamConfig, logger *logging.Logger) *Upstream {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultUpstreamURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Upstream{client: client, apiKey: cfg.APIKey, logger: logger}
}

// Validate asks the upstream API about email. A non-empty providerErr means
// the upstream answered but refused the lookup; err means it could not be
// reached at all.
func (u *Upstream) Validate(ctx context.Context, email string) (valid bool, providerErr string, err error) {
	ctx, span := upstreamTracer.Start(ctx, "emailcheck.upstream.validate")
	defer span.End()

	var body upstreamBody
	resp, err := u.client.R().
		SetContext(ctx).
		SetQueryParam("api_key", u.apiKey).
		SetQueryParam("email", email).
		SetResult(&body).
		SetError(&body).
		Get("")
	if err != nil {
		span.RecordError(err)
		return false, "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	if resp.IsError() {
		msg := fmt.Sprintf("upstream status %d", resp.StatusCode())
		if body.Error != nil && body.Error.Message != "" {
			msg = body.Error.Message
		}
		u.logger.Warn("email validation upstream refused lookup", "status", resp.StatusCode(), "error", msg)
		return false, msg, nil
	}
	valid = body.IsValidFormat.Value &&
		strings.EqualFold(body.Deliverability, "DELIVERABLE") &&
		!body.IsDisposable.Value
	return valid, "", nil
}

// Local runs verification in-process against the upstream API, skipping the
// HTTP hop through the proxy endpoint. It satisfies the same contract as
// Client.
type Local struct {
	upstream *Upstream
}

// NewLocal wraps upstream. A nil upstream only applies the syntax check.
func NewLocal(upstream *Upstream) *Local {
	return &Local{upstream: upstream}
}

// Check applies the same rules as ProxyHandler and returns a Result.
func (l *Local) Check(ctx context.Context, email string) Result {
	resp, status, err := evaluate(ctx, l.upstream, email)
	if err != nil {
		if errors.Is(err, ErrEmailRequired) {
			return Result{Verdict: VerdictBadStatus, StatusCode: status}
		}
		return Result{Verdict: VerdictUnavailable, StatusCode: status, Err: err}
	}
	return classify(resp, status)
}

// evaluate is shared by the proxy handler and Local.
func evaluate(ctx context.Context, upstream *Upstream, email string) (Response, int, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return Response{Success: false, Error: ErrEmailRequired.Error()}, 400, ErrEmailRequired
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return Response{Success: true, IsValid: false}, 200, nil
	}
	if upstream == nil {
		return Response{Success: true, IsValid: true}, 200, nil
	}
	valid, providerErr, err := upstream.Validate(ctx, email)
	if err != nil {
		return Response{Success: false, Error: "validation service unreachable"}, 502, err
	}
	if providerErr != "" {
		return Response{Success: false, Error: providerErr}, 200, nil
	}
	return Response{Success: true, IsValid: valid}, 200, nil
}
