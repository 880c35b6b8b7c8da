package notify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.opentelemetry.io/otel"

	"github.com/acesoft/ace-crm-site/pkg/logging"
)

var emailTracer = otel.Tracer("acecrm.internal.notify.email")

// TemplateSender delivers a provider-side template filled with flat params.
// Implementations can be swapped (EmailJS, SendGrid, SES, MailerSend) without
// changing callers.
type TemplateSender interface {
	SendTemplate(ctx context.Context, msg TemplateEmail) error
}

// TemplateEmail is one template-based send.
type TemplateEmail struct {
	ServiceID  string
	TemplateID string
	PublicKey  string
	Params     map[string]string
}

// ErrTemplateRequired is returned when the send has no template identifier.
var ErrTemplateRequired = errors.New("notify: template id is required")

func (m TemplateEmail) validate() error {
	if strings.TrimSpace(m.TemplateID) == "" {
		return ErrTemplateRequired
	}
	return nil
}

// paramKeys returns the params in a stable order for logging.
func (m TemplateEmail) paramKeys() []string {
	keys := make([]string, 0, len(m.Params))
	for k := range m.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SendGridSender sends dynamic templates via the SendGrid API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	toEmail   string
	logger    *logging.Logger
}

// SendGridConfig holds configuration for SendGrid.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	ToEmail   string
}

// NewSendGridSender creates a new SendGrid email sender.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = "Ace CRM"
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		toEmail:   cfg.ToEmail,
		logger:    logger,
	}
}

// SendTemplate sends a dynamic template to the leads inbox.
func (s *SendGridSender) SendTemplate(ctx context.Context, msg TemplateEmail) error {
	if s.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}
	if err := msg.validate(); err != nil {
		return err
	}
	ctx, span := emailTracer.Start(ctx, "notify.sendgrid.send_template")
	defer span.End()

	message := s.buildMessage(msg)
	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("sendgrid send failed", "error", err, "template_id", msg.TemplateID)
		return fmt.Errorf("notify: sendgrid send failed: %w", err)
	}

	if response.StatusCode >= 400 {
		s.logger.Error("sendgrid returned error status", "status", response.StatusCode, "body", response.Body, "template_id", msg.TemplateID)
		return fmt.Errorf("notify: sendgrid returned status %d", response.StatusCode)
	}

	s.logger.Info("template email sent via sendgrid", "template_id", msg.TemplateID, "status", response.StatusCode)
	return nil
}

func (s *SendGridSender) buildMessage(msg TemplateEmail) *mail.SGMailV3 {
	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(s.fromName, s.fromEmail))
	message.SetTemplateID(msg.TemplateID)

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail("", s.toEmail))
	for k, v := range msg.Params {
		p.SetDynamicTemplateData(k, v)
	}
	message.AddPersonalizations(p)
	return message
}

// StubTemplateID is the template the stub provider is given when none is
// configured.
const StubTemplateID = "template_stub"

// StubSender is a no-op sender for testing or when email is disabled.
type StubSender struct {
	logger *logging.Logger
}

// NewStubSender creates a stub sender that logs but doesn't send.
func NewStubSender(logger *logging.Logger) *StubSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubSender{logger: logger}
}

// SendTemplate logs the send but doesn't perform it.
func (s *StubSender) SendTemplate(ctx context.Context, msg TemplateEmail) error {
	if err := msg.validate(); err != nil {
		return err
	}
	s.logger.Info("stub email sender: would send template", "template_id", msg.TemplateID, "params", msg.paramKeys())
	return nil
}

var (
	_ TemplateSender = (*SendGridSender)(nil)
	_ TemplateSender = (*StubSender)(nil)
)
