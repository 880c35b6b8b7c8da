package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"

	"github.com/acesoft/ace-crm-site/pkg/logging"
)

// DefaultSubjectPrefix namespaces WhatsApp subjects, e.g. whatsapp.enquiry_form.
const DefaultSubjectPrefix = "whatsapp"

// publisher is the slice of *nats.Conn used for publishing.
type publisher interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher hands envelopes to the messaging worker over NATS.
type NATSPublisher struct {
	conn   publisher
	prefix string
	logger *logging.Logger
}

// NewNATSPublisher wraps an established connection.
func NewNATSPublisher(conn *nats.Conn, prefix string, logger *logging.Logger) *NATSPublisher {
	return newNATSPublisher(conn, prefix, logger)
}

func newNATSPublisher(conn publisher, prefix string, logger *logging.Logger) *NATSPublisher {
	if logger == nil {
		logger = logging.Default()
	}
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATSPublisher{conn: conn, prefix: prefix, logger: logger}
}

// Connect dials NATS at url.
func Connect(url, name string) (*nats.Conn, error) {
	conn, err := nats.Connect(url, nats.Name(name))
	if err != nil {
		return nil, fmt.Errorf("messaging: connect to NATS: %w", err)
	}
	return conn, nil
}

// Subject returns the subject a template is published on.
func (p *NATSPublisher) Subject(templateName string) string {
	return p.prefix + "." + templateName
}

// SendWhatsappMessage publishes the envelope; delivery happens in the worker.
func (p *NATSPublisher) SendWhatsappMessage(ctx context.Context, templateName string, payload map[string]string, recipient ...string) error {
	env, err := newEnvelope(templateName, payload, recipient)
	if err != nil {
		return err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("messaging: marshal envelope: %w", err)
	}
	subject := p.Subject(env.Template)
	if err := p.conn.Publish(subject, data); err != nil {
		p.logger.Error("nats publish failed", "error", err, "subject", subject)
		return fmt.Errorf("messaging: publish %s: %w", subject, err)
	}
	p.logger.Debug("whatsapp message queued", "subject", subject)
	return nil
}

var _ Notifier = (*NATSPublisher)(nil)
