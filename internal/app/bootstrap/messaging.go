package bootstrap

import (
	"strings"

	"github.com/nats-io/nats.go"

	appconfig "github.com/acesoft/ace-crm-site/internal/config"
	"github.com/acesoft/ace-crm-site/internal/messaging"
	"github.com/acesoft/ace-crm-site/pkg/logging"
)

// NeedsNATS reports whether the configured notifier publishes over NATS.
func NeedsNATS(cfg *appconfig.Config) bool {
	if cfg == nil {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(cfg.NotifierProvider)) {
	case messaging.ProviderNATS, messaging.ProviderAuto:
		return strings.TrimSpace(cfg.NATSURL) != ""
	default:
		return false
	}
}

// ConnectNATS dials NATS when the notifier needs it. Failures are logged and
// return nil so the API can still start with a fallback notifier.
func ConnectNATS(cfg *appconfig.Config, name string, logger *logging.Logger) *nats.Conn {
	if !NeedsNATS(cfg) {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	conn, err := messaging.Connect(cfg.NATSURL, name)
	if err != nil {
		logger.Warn("nats not available", "error", err, "url", cfg.NATSURL)
		return nil
	}
	return conn
}

// BuildNotifier creates the WhatsApp notifier named by NOTIFIER_PROVIDER.
func BuildNotifier(cfg *appconfig.Config, conn *nats.Conn, logger *logging.Logger) (messaging.Notifier, string, string) {
	if cfg == nil {
		return messaging.NewStubNotifier(logger), messaging.ProviderStub, "missing config"
	}
	return messaging.BuildNotifier(messaging.ProviderSelectionConfig{
		Preference:       cfg.NotifierProvider,
		GatewayURL:       cfg.WhatsAppGatewayURL,
		GatewayToken:     cfg.WhatsAppGatewayToken,
		DefaultRecipient: cfg.WhatsAppDefaultTo,
		Timeout:          cfg.NotificationTimeout,
		SubjectPrefix:    cfg.NATSSubjectPrefix,
	}, conn, logger)
}
