package emailcheck

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/acesoft/ace-crm-site/pkg/logging"
)

var clientTracer = otel.Tracer("acecrm.internal.emailcheck.client")

const validatePath = "/api/proxy-validate-email"

// Client calls the site's email validation endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient targets baseURL + /api/proxy-validate-email.
func NewClient(baseURL string, timeout time.Duration, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		endpoint:   strings.TrimRight(baseURL, "/") + validatePath,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Check posts {email} and classifies the answer. It never returns an error:
// every failure mode is a Verdict the caller turns into a field message.
func (c *Client) Check(ctx context.Context, email string) Result {
	ctx, span := clientTracer.Start(ctx, "emailcheck.client.check")
	defer span.End()

	body, err := json.Marshal(Request{Email: email})
	if err != nil {
		return Result{Verdict: VerdictUnavailable, Err: fmt.Errorf("emailcheck: marshal request: %w", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Result{Verdict: VerdictUnavailable, Err: fmt.Errorf("emailcheck: build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		c.logger.Error("email validation error", "error", err)
		return Result{Verdict: VerdictUnavailable, Err: fmt.Errorf("emailcheck: http error: %w", err)}
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{Verdict: VerdictBadStatus, StatusCode: resp.StatusCode}
	}

	var parsed Response
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&parsed); err != nil {
		c.logger.Error("email validation error", "error", err)
		return Result{Verdict: VerdictUnavailable, StatusCode: resp.StatusCode, Err: fmt.Errorf("emailcheck: decode response: %w", err)}
	}
	return classify(parsed, resp.StatusCode)
}

func classify(parsed Response, status int) Result {
	switch {
	case !parsed.Success:
		return Result{Verdict: VerdictRejected, StatusCode: status, ProviderError: parsed.Error}
	case parsed.IsValid:
		return Result{Verdict: VerdictValid, StatusCode: status}
	default:
		return Result{Verdict: VerdictInvalid, StatusCode: status}
	}
}
