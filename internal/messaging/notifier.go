package messaging

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/acesoft/ace-crm-site/pkg/logging"
)

// Template names understood by the WhatsApp gateway.
const (
	TemplateEnquiryForm       = "enquiry_form"
	TemplateCustomerGreetings = "customer_greetings"
)

// Notifier dispatches a templated WhatsApp message. When no recipient is
// given the provider's default recipient is used.
type Notifier interface {
	SendWhatsappMessage(ctx context.Context, templateName string, payload map[string]string, recipient ...string) error
}

// Envelope is the wire form shared by the gateway and the NATS relay.
type Envelope struct {
	Template  string            `json:"template"`
	Recipient string            `json:"recipient,omitempty"`
	Params    map[string]string `json:"params"`
}

// ErrTemplateRequired is returned when no template name is given.
var ErrTemplateRequired = errors.New("messaging: template name is required")

func newEnvelope(templateName string, payload map[string]string, recipient []string) (Envelope, error) {
	templateName = strings.TrimSpace(templateName)
	if templateName == "" {
		return Envelope{}, ErrTemplateRequired
	}
	env := Envelope{Template: templateName, Params: payload}
	if len(recipient) > 0 {
		env.Recipient = strings.TrimSpace(recipient[0])
	}
	if env.Params == nil {
		env.Params = map[string]string{}
	}
	return env, nil
}

func (e Envelope) paramKeys() []string {
	keys := make([]string, 0, len(e.Params))
	for k := range e.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// StubNotifier logs messages instead of sending them.
type StubNotifier struct {
	logger *logging.Logger
}

// NewStubNotifier creates a stub notifier.
func NewStubNotifier(logger *logging.Logger) *StubNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubNotifier{logger: logger}
}

// SendWhatsappMessage logs the message.
func (s *StubNotifier) SendWhatsappMessage(ctx context.Context, templateName string, payload map[string]string, recipient ...string) error {
	env, err := newEnvelope(templateName, payload, recipient)
	if err != nil {
		return err
	}
	s.logger.Info("stub notifier: would send whatsapp message",
		"template", env.Template,
		"recipient", env.Recipient,
		"params", env.paramKeys(),
	)
	return nil
}

var _ Notifier = (*StubNotifier)(nil)
