package messaging

import (
	"context"
	"errors"

	"github.com/acesoft/ace-crm-site/pkg/logging"
)

// FailoverNotifier attempts a primary send, then falls back to a secondary provider on error.
type FailoverNotifier struct {
	primary       Notifier
	secondary     Notifier
	primaryName   string
	secondaryName string
	logger        *logging.Logger
}

// NewFailoverNotifier builds a failover notifier with named providers.
func NewFailoverNotifier(primary Notifier, primaryName string, secondary Notifier, secondaryName string, logger *logging.Logger) *FailoverNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &FailoverNotifier{
		primary:       primary,
		secondary:     secondary,
		primaryName:   primaryName,
		secondaryName: secondaryName,
		logger:        logger,
	}
}

var _ Notifier = (*FailoverNotifier)(nil)

// SendWhatsappMessage tries the primary provider first, then the secondary.
func (f *FailoverNotifier) SendWhatsappMessage(ctx context.Context, templateName string, payload map[string]string, recipient ...string) error {
	if f == nil || f.primary == nil {
		return errors.New("messaging: failover primary notifier not configured")
	}
	err := f.primary.SendWhatsappMessage(ctx, templateName, payload, recipient...)
	if err == nil {
		return nil
	}
	if f.secondary == nil || errors.Is(err, ErrTemplateRequired) {
		return err
	}
	f.logger.Warn("primary whatsapp send failed; attempting fallback",
		"provider", f.primaryName,
		"fallback", f.secondaryName,
		"error", err,
		"template", templateName,
	)
	if fallbackErr := f.secondary.SendWhatsappMessage(ctx, templateName, payload, recipient...); fallbackErr != nil {
		f.logger.Error("fallback whatsapp send failed",
			"provider", f.secondaryName,
			"error", fallbackErr,
			"template", templateName,
		)
		return fallbackErr
	}
	return nil
}
