package notify

import (
	"context"
	"fmt"

	"github.com/mailersend/mailersend-go"

	"github.com/acesoft/ace-crm-site/pkg/logging"
)

// MailerSendConfig holds configuration for MailerSend.
type MailerSendConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	ToEmail   string
}

// MailerSendSender sends MailerSend templates with personalization data.
type MailerSendSender struct {
	ms     *mailersend.Mailersend
	from   mailersend.From
	to     string
	logger *logging.Logger
}

// NewMailerSendSender returns nil when no API key is configured.
func NewMailerSendSender(cfg MailerSendConfig, logger *logging.Logger) *MailerSendSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = "Ace CRM"
	}
	return &MailerSendSender{
		ms:     mailersend.NewMailersend(cfg.APIKey),
		from:   mailersend.From{Name: cfg.FromName, Email: cfg.FromEmail},
		to:     cfg.ToEmail,
		logger: logger,
	}
}

// SendTemplate sends the template identified by msg.TemplateID to the inbox.
func (s *MailerSendSender) SendTemplate(ctx context.Context, msg TemplateEmail) error {
	if s.ms == nil {
		return fmt.Errorf("notify: mailersend client not configured")
	}
	if err := msg.validate(); err != nil {
		return err
	}
	ctx, span := emailTracer.Start(ctx, "notify.mailersend.send_template")
	defer span.End()

	message := s.buildMessage(msg)
	res, err := s.ms.Email.Send(ctx, message)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("mailersend send failed", "error", err, "template_id", msg.TemplateID)
		return fmt.Errorf("notify: mailersend send failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		s.logger.Error("mailersend returned error status", "status", res.StatusCode, "template_id", msg.TemplateID)
		return fmt.Errorf("notify: mailersend returned status %d", res.StatusCode)
	}

	s.logger.Info("template email sent via mailersend", "template_id", msg.TemplateID, "message_id", res.Header.Get("X-Message-Id"))
	return nil
}

func (s *MailerSendSender) buildMessage(msg TemplateEmail) *mailersend.Message {
	data := make(map[string]interface{}, len(msg.Params))
	for k, v := range msg.Params {
		data[k] = v
	}

	message := s.ms.Email.NewMessage()
	message.SetFrom(s.from)
	message.SetRecipients([]mailersend.Recipient{{Email: s.to}})
	message.SetTemplateID(msg.TemplateID)
	message.SetPersonalization([]mailersend.Personalization{{Email: s.to, Data: data}})
	return message
}

var _ TemplateSender = (*MailerSendSender)(nil)
