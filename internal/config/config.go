package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	PublicBaseURL      string
	LogLevel           string
	CORSAllowedOrigins []string
	FormRateLimit      float64
	FormRateBurst      int

	// Lead delivery (transactional email)
	EmailProvider        string
	EmailServiceID       string
	EmailEnqTemplateID   string
	EmailPublicKey       string
	EmailPrivateKey      string
	LeadsInboxEmail      string
	EmailFromAddress     string
	EmailFromName        string
	SendGridAPIKey       string
	MailerSendAPIKey     string
	AWSRegion            string
	AWSAccessKeyID       string
	AWSSecretAccessKey   string
	AWSEndpointOverride  string
	EmailJSBaseURL       string
	EmailDeliveryTimeout time.Duration

	// Email verification
	EmailValidationURL         string
	EmailValidationUpstreamURL string
	EmailValidationAPIKey      string
	EmailValidationTimeout     time.Duration

	// WhatsApp notifications
	NotifierProvider     string
	WhatsAppGatewayURL   string
	WhatsAppGatewayToken string
	WhatsAppDefaultTo    string
	NATSURL              string
	NATSSubjectPrefix    string
	NATSQueueGroup       string
	NotificationTimeout  time.Duration
	GreetingSiteURL      string
	GreetingImageURL     string
	ConfirmationPath     string
	DefaultLocale        string
	DefaultPhoneRegion   string

	// Session marker storage
	RedisAddr        string
	RedisPassword    string
	RedisTLS         bool
	SessionMarkerTTL time.Duration
	SessionCookie    string

	// Popup sequencing
	PopupTrialDelay    time.Duration
	PopupDemoDelay     time.Duration
	PopupCallbackDelay time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		PublicBaseURL:      getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),
		FormRateLimit:      getEnvAsFloat("FORM_RATE_LIMIT", 0.5),
		FormRateBurst:      getEnvAsInt("FORM_RATE_BURST", 5),

		EmailProvider:        strings.ToLower(strings.TrimSpace(getEnv("EMAIL_PROVIDER", "stub"))),
		EmailServiceID:       getEnv("EMAILJS_SERVICE_ID", ""),
		EmailEnqTemplateID:   getEnv("EMAILJS_ENQ_TEMPLATE_ID", ""),
		EmailPublicKey:       getEnv("EMAILJS_PUBLIC_KEY", ""),
		EmailPrivateKey:      getEnv("EMAILJS_PRIVATE_KEY", ""),
		LeadsInboxEmail:      getEnv("LEADS_INBOX_EMAIL", "sales@acesoft.in"),
		EmailFromAddress:     getEnv("EMAIL_FROM_ADDRESS", "no-reply@acesoft.in"),
		EmailFromName:        getEnv("EMAIL_FROM_NAME", "Ace CRM"),
		SendGridAPIKey:       getEnv("SENDGRID_API_KEY", ""),
		MailerSendAPIKey:     getEnv("MAILERSEND_API_KEY", ""),
		AWSRegion:            getEnv("AWS_REGION", "ap-south-1"),
		AWSAccessKeyID:       getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride:  getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		EmailJSBaseURL:       getEnv("EMAILJS_BASE_URL", ""),
		EmailDeliveryTimeout: getEnvAsDuration("EMAIL_DELIVERY_TIMEOUT", 10*time.Second),

		EmailValidationURL:         getEnv("EMAIL_VALIDATION_URL", ""),
		EmailValidationUpstreamURL: getEnv("EMAIL_VALIDATION_UPSTREAM_URL", ""),
		EmailValidationAPIKey:      getEnv("EMAIL_VALIDATION_API_KEY", ""),
		EmailValidationTimeout:     getEnvAsDuration("EMAIL_VALIDATION_TIMEOUT", 5*time.Second),

		NotifierProvider:     strings.ToLower(strings.TrimSpace(getEnv("NOTIFIER_PROVIDER", "stub"))),
		WhatsAppGatewayURL:   getEnv("WHATSAPP_GATEWAY_URL", ""),
		WhatsAppGatewayToken: getEnv("WHATSAPP_GATEWAY_TOKEN", ""),
		WhatsAppDefaultTo:    getEnv("WHATSAPP_DEFAULT_TO", ""),
		NATSURL:              getEnv("NATS_URL", "nats://localhost:4222"),
		NATSSubjectPrefix:    getEnv("NATS_SUBJECT_PREFIX", "whatsapp"),
		NATSQueueGroup:       getEnv("NATS_QUEUE_GROUP", "messaging-worker"),
		NotificationTimeout:  getEnvAsDuration("NOTIFICATION_TIMEOUT", 10*time.Second),
		GreetingSiteURL:      getEnv("GREETING_SITE_URL", "https://acesoft.in"),
		GreetingImageURL:     getEnv("GREETING_IMAGE_URL", "https://res.cloudinary.com/dohyevc59/image/upload/v1749124753/Enquiry_Greetings_royzcm.jpg"),
		ConfirmationPath:     getEnv("CONFIRMATION_PATH", "/thank-you"),
		DefaultLocale:        getEnv("DEFAULT_LOCALE", "en"),
		DefaultPhoneRegion:   strings.ToUpper(getEnv("DEFAULT_PHONE_REGION", "IN")),

		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisTLS:         getEnvAsBool("REDIS_TLS", false),
		SessionMarkerTTL: getEnvAsDuration("SESSION_MARKER_TTL", 30*time.Minute),
		SessionCookie:    getEnv("SESSION_COOKIE", "ace_session"),

		PopupTrialDelay:    getEnvAsDuration("POPUP_TRIAL_DELAY", 10*time.Second),
		PopupDemoDelay:     getEnvAsDuration("POPUP_DEMO_DELAY", 20*time.Second),
		PopupCallbackDelay: getEnvAsDuration("POPUP_CALLBACK_DELAY", 20*time.Second),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping blanks.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
