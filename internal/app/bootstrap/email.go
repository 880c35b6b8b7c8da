package bootstrap

import (
	"fmt"
	"strings"

	appconfig "github.com/acesoft/ace-crm-site/internal/config"
	"github.com/acesoft/ace-crm-site/internal/emailcheck"
	"github.com/acesoft/ace-crm-site/internal/leads"
	"github.com/acesoft/ace-crm-site/internal/notify"
	"github.com/acesoft/ace-crm-site/pkg/logging"
)

const (
	EmailProviderEmailJS    = "emailjs"
	EmailProviderSendGrid   = "sendgrid"
	EmailProviderSES        = "ses"
	EmailProviderMailerSend = "mailersend"
	EmailProviderStub       = "stub"
)

// BuildEmailSender creates the lead delivery sender named by EMAIL_PROVIDER.
// ses is only consulted for the "ses" provider and may be nil otherwise.
func BuildEmailSender(cfg *appconfig.Config, ses notify.SESAPI, logger *logging.Logger) (notify.TemplateSender, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch strings.ToLower(strings.TrimSpace(cfg.EmailProvider)) {
	case EmailProviderEmailJS:
		if cfg.EmailServiceID == "" || cfg.EmailPublicKey == "" {
			return nil, fmt.Errorf("bootstrap: emailjs requires EMAILJS_SERVICE_ID and EMAILJS_PUBLIC_KEY")
		}
		return notify.NewEmailJSSender(notify.EmailJSConfig{
			BaseURL:    cfg.EmailJSBaseURL,
			PrivateKey: cfg.EmailPrivateKey,
			Timeout:    cfg.EmailDeliveryTimeout,
		}, logger), nil
	case EmailProviderSendGrid:
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
			ToEmail:   cfg.LeadsInboxEmail,
		}, logger)
		if sender == nil {
			return nil, fmt.Errorf("bootstrap: sendgrid requires SENDGRID_API_KEY")
		}
		return sender, nil
	case EmailProviderSES:
		sender := notify.NewSESSender(ses, notify.SESConfig{
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
			ToEmail:   cfg.LeadsInboxEmail,
		}, logger)
		if sender == nil {
			return nil, fmt.Errorf("bootstrap: ses client not configured")
		}
		return sender, nil
	case EmailProviderMailerSend:
		sender := notify.NewMailerSendSender(notify.MailerSendConfig{
			APIKey:    cfg.MailerSendAPIKey,
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
			ToEmail:   cfg.LeadsInboxEmail,
		}, logger)
		if sender == nil {
			return nil, fmt.Errorf("bootstrap: mailersend requires MAILERSEND_API_KEY")
		}
		return sender, nil
	case EmailProviderStub, "":
		logger.Warn("EMAIL_PROVIDER is stub; leads will only be logged")
		return notify.NewStubSender(logger), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown email provider %q", cfg.EmailProvider)
	}
}

// BuildEmailUpstream returns the upstream verification API client, or nil
// when no API key is configured.
func BuildEmailUpstream(cfg *appconfig.Config, logger *logging.Logger) *emailcheck.Upstream {
	return emailcheck.NewUpstream(emailcheck.UpstreamConfig{
		BaseURL: cfg.EmailValidationUpstreamURL,
		APIKey:  cfg.EmailValidationAPIKey,
		Timeout: cfg.EmailValidationTimeout,
	}, logger)
}

// BuildEmailVerifier calls a remote proxy when EMAIL_VALIDATION_URL is set and
// otherwise verifies in-process against upstream.
func BuildEmailVerifier(cfg *appconfig.Config, upstream *emailcheck.Upstream, logger *logging.Logger) leads.EmailVerifier {
	if url := strings.TrimSpace(cfg.EmailValidationURL); url != "" {
		return emailcheck.NewClient(url, cfg.EmailValidationTimeout, logger)
	}
	return emailcheck.NewLocal(upstream)
}

// SiteConfig collects the fixed delivery identifiers for the lead forms. A
// real provider without EMAILJS_ENQ_TEMPLATE_ID would fail every lead, so it
// is rejected here; the stub falls back to notify.StubTemplateID.
func SiteConfig(cfg *appconfig.Config) (leads.SiteConfig, error) {
	templateID := strings.TrimSpace(cfg.EmailEnqTemplateID)
	if templateID == "" {
		switch strings.ToLower(strings.TrimSpace(cfg.EmailProvider)) {
		case EmailProviderStub, "":
			templateID = notify.StubTemplateID
		default:
			return leads.SiteConfig{}, fmt.Errorf("bootstrap: %s requires EMAILJS_ENQ_TEMPLATE_ID", cfg.EmailProvider)
		}
	}
	return leads.SiteConfig{
		ServiceID:        cfg.EmailServiceID,
		TemplateID:       templateID,
		PublicKey:        cfg.EmailPublicKey,
		ConfirmationPath: cfg.ConfirmationPath,
		SiteURL:          cfg.GreetingSiteURL,
		ImageURL:         cfg.GreetingImageURL,
	}, nil
}
