package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/acesoft/ace-crm-site/pkg/logging"
)

// SESAPI is the slice of the SESv2 client the sender needs.
type SESAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender sends stored SES templates.
type SESSender struct {
	client    SESAPI
	fromEmail string
	fromName  string
	toEmail   string
	logger    *logging.Logger
}

// SESConfig holds configuration for AWS SES.
type SESConfig struct {
	FromEmail string
	FromName  string
	ToEmail   string
}

// NewSESSender creates a new AWS SES email sender.
func NewSESSender(client SESAPI, cfg SESConfig, logger *logging.Logger) *SESSender {
	if client == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = "Ace CRM"
	}
	return &SESSender{
		client:    client,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		toEmail:   cfg.ToEmail,
		logger:    logger,
	}
}

// SendTemplate renders the SES template named by msg.TemplateID.
func (s *SESSender) SendTemplate(ctx context.Context, msg TemplateEmail) error {
	if s.client == nil {
		return fmt.Errorf("notify: SES client not configured")
	}
	if err := msg.validate(); err != nil {
		return err
	}
	ctx, span := emailTracer.Start(ctx, "notify.ses.send_template")
	defer span.End()

	data, err := json.Marshal(msg.Params)
	if err != nil {
		return fmt.Errorf("notify: marshal SES template data: %w", err)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)),
		Destination: &types.Destination{
			ToAddresses: []string{s.toEmail},
		},
		Content: &types.EmailContent{
			Template: &types.Template{
				TemplateName: aws.String(msg.TemplateID),
				TemplateData: aws.String(string(data)),
			},
		},
	}

	output, err := s.client.SendEmail(ctx, input)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("SES send failed", "error", err, "template_id", msg.TemplateID)
		return fmt.Errorf("notify: SES send failed: %w", err)
	}

	s.logger.Info("template email sent via SES", "template_id", msg.TemplateID, "message_id", aws.ToString(output.MessageId))
	return nil
}

// Ensure interface compliance
var _ TemplateSender = (*SESSender)(nil)
