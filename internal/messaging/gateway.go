package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/acesoft/ace-crm-site/pkg/logging"
)

var gatewayTracer = otel.Tracer("acecrm.internal.messaging.gateway")

// GatewayConfig controls the WhatsApp gateway client.
type GatewayConfig struct {
	URL              string
	Token            string
	DefaultRecipient string
	Timeout          time.Duration
	MaxRetries       int
}

// GatewayClient posts envelopes to the WhatsApp gateway over HTTP.
type GatewayClient struct {
	client           *resty.Client
	url              string
	defaultRecipient string
	logger           *logging.Logger
}

// NewGatewayClient builds a gateway client. The URL is required.
func NewGatewayClient(cfg GatewayConfig, logger *logging.Logger) (*GatewayClient, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, errors.New("messaging: gateway URL is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}
	return &GatewayClient{
		client:           client,
		url:              url,
		defaultRecipient: strings.TrimSpace(cfg.DefaultRecipient),
		logger:           logger,
	}, nil
}

// SendWhatsappMessage builds an envelope and delivers it.
func (g *GatewayClient) SendWhatsappMessage(ctx context.Context, templateName string, payload map[string]string, recipient ...string) error {
	env, err := newEnvelope(templateName, payload, recipient)
	if err != nil {
		return err
	}
	return g.Deliver(ctx, env)
}

// Deliver posts env to the gateway, filling in the default recipient.
func (g *GatewayClient) Deliver(ctx context.Context, env Envelope) error {
	if env.Template == "" {
		return ErrTemplateRequired
	}
	if env.Recipient == "" {
		env.Recipient = g.defaultRecipient
	}
	ctx, span := gatewayTracer.Start(ctx, "messaging.gateway.deliver")
	defer span.End()
	span.SetAttributes(attribute.String("whatsapp.template", env.Template))

	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(env).
		Post(g.url)
	if err != nil {
		span.RecordError(err)
		g.logger.Error("whatsapp gateway request failed", "error", err, "template", env.Template)
		return fmt.Errorf("messaging: gateway request failed: %w", err)
	}
	if resp.IsError() {
		g.logger.Error("whatsapp gateway returned error status",
			"status", resp.StatusCode(),
			"body", strings.TrimSpace(resp.String()),
			"template", env.Template,
		)
		return fmt.Errorf("messaging: gateway returned status %d", resp.StatusCode())
	}

	g.logger.Info("whatsapp message sent", "template", env.Template, "status", resp.StatusCode())
	return nil
}

var _ Notifier = (*GatewayClient)(nil)
