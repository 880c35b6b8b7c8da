package messaging

import (
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/acesoft/ace-crm-site/pkg/logging"
)

const (
	// ProviderAuto queues over NATS when connected, falling back to the gateway.
	ProviderAuto = "auto"
	// ProviderGateway posts straight to the WhatsApp gateway.
	ProviderGateway = "gateway"
	// ProviderNATS hands messages to the messaging worker.
	ProviderNATS = "nats"
	// ProviderStub only logs.
	ProviderStub = "stub"
)

// ProviderSelectionConfig captures what is needed to build a Notifier.
type ProviderSelectionConfig struct {
	Preference       string
	GatewayURL       string
	GatewayToken     string
	DefaultRecipient string
	Timeout          time.Duration
	SubjectPrefix    string
}

// BuildNotifier instantiates a Notifier based on the preferred provider.
// conn may be nil when NATS is not in use. It returns the notifier, the
// provider that was selected, and a reason when the preference could not be
// honoured.
func BuildNotifier(cfg ProviderSelectionConfig, conn *nats.Conn, logger *logging.Logger) (Notifier, string, string) {
	if logger == nil {
		logger = logging.Default()
	}
	preference := strings.ToLower(strings.TrimSpace(cfg.Preference))
	if preference == "" {
		preference = ProviderStub
	}

	missing := map[string]string{}
	var gateway Notifier
	var queued Notifier

	if strings.TrimSpace(cfg.GatewayURL) != "" {
		client, err := NewGatewayClient(GatewayConfig{
			URL:              cfg.GatewayURL,
			Token:            cfg.GatewayToken,
			DefaultRecipient: cfg.DefaultRecipient,
			Timeout:          cfg.Timeout,
		}, logger)
		if err != nil {
			missing[ProviderGateway] = err.Error()
		} else {
			gateway = client
		}
	} else {
		missing[ProviderGateway] = "WHATSAPP_GATEWAY_URL missing"
	}

	if conn != nil {
		queued = newNATSPublisher(conn, cfg.SubjectPrefix, logger)
	} else {
		missing[ProviderNATS] = "NATS connection unavailable"
	}

	switch preference {
	case ProviderStub:
		return NewStubNotifier(logger), ProviderStub, ""
	case ProviderGateway:
		if gateway != nil {
			return gateway, ProviderGateway, ""
		}
	case ProviderNATS:
		if queued != nil {
			return queued, ProviderNATS, ""
		}
	case ProviderAuto:
		switch {
		case queued != nil && gateway != nil:
			return NewFailoverNotifier(queued, ProviderNATS, gateway, ProviderGateway, logger), ProviderAuto, ""
		case queued != nil:
			return queued, ProviderNATS, ""
		case gateway != nil:
			return gateway, ProviderGateway, ""
		}
		reason := strings.Join([]string{missing[ProviderNATS], missing[ProviderGateway]}, ", ")
		return NewStubNotifier(logger), ProviderStub, reason
	default:
		return NewStubNotifier(logger), ProviderStub, fmt.Sprintf("unknown notifier provider %q", preference)
	}

	reason := missing[preference]
	if reason == "" {
		reason = fmt.Sprintf("%s notifier not configured", preference)
	}
	return NewStubNotifier(logger), ProviderStub, reason
}
