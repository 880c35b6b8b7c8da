package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/acesoft/ace-crm-site/pkg/logging"
)

// Deliverer sends a decoded envelope, typically a *GatewayClient.
type Deliverer interface {
	Deliver(ctx context.Context, env Envelope) error
}

// Relay consumes queued envelopes from NATS and forwards them to the gateway.
type Relay struct {
	deliverer Deliverer
	timeout   time.Duration
	logger    *logging.Logger
}

// NewRelay creates a relay with a per-message delivery timeout.
func NewRelay(deliverer Deliverer, timeout time.Duration, logger *logging.Logger) *Relay {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Relay{deliverer: deliverer, timeout: timeout, logger: logger}
}

// Subscribe queue-subscribes to every template under prefix.
func (r *Relay) Subscribe(conn *nats.Conn, prefix, queue string) (*nats.Subscription, error) {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	subject := prefix + ".>"
	sub, err := conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if err := r.Handle(ctx, msg.Subject, msg.Data); err != nil {
			r.logger.Error("whatsapp relay failed", "error", err, "subject", msg.Subject)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("messaging: subscribe %s: %w", subject, err)
	}
	r.logger.Info("whatsapp relay subscribed", "subject", subject, "queue", queue)
	return sub, nil
}

// Handle decodes one message and delivers it. Messages are not redelivered
// on failure.
func (r *Relay) Handle(ctx context.Context, subject string, data []byte) error {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("messaging: decode envelope: %w", err)
	}
	if env.Template == "" {
		if i := strings.LastIndex(subject, "."); i >= 0 {
			env.Template = subject[i+1:]
		}
	}
	return r.deliverer.Deliver(ctx, env)
}
