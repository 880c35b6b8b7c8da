package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/acesoft/ace-crm-site/internal/config"
	"github.com/acesoft/ace-crm-site/internal/messaging"
	"github.com/acesoft/ace-crm-site/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	if cfg.NATSURL == "" || cfg.WhatsAppGatewayURL == "" {
		logger.Error("messaging worker requires NATS_URL and WHATSAPP_GATEWAY_URL")
		os.Exit(1)
	}

	gateway, err := messaging.NewGatewayClient(messaging.GatewayConfig{
		URL:              cfg.WhatsAppGatewayURL,
		Token:            cfg.WhatsAppGatewayToken,
		DefaultRecipient: cfg.WhatsAppDefaultTo,
		Timeout:          cfg.NotificationTimeout,
		MaxRetries:       2,
	}, logger)
	if err != nil {
		logger.Error("failed to create whatsapp gateway client", "error", err)
		os.Exit(1)
	}

	conn, err := messaging.Connect(cfg.NATSURL, "ace-crm-site-messaging-worker")
	if err != nil {
		logger.Error("failed to connect nats", "error", err)
		os.Exit(1)
	}

	relay := messaging.NewRelay(gateway, cfg.NotificationTimeout, logger)
	sub, err := relay.Subscribe(conn, cfg.NATSSubjectPrefix, cfg.NATSQueueGroup)
	if err != nil {
		logger.Error("failed to subscribe", "error", err)
		conn.Close()
		os.Exit(1)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("messaging worker shutting down")

	_ = sub.Unsubscribe()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.FlushWithContext(ctx); err != nil {
		logger.Warn("nats flush failed", "error", err)
	}
	if err := conn.Drain(); err != nil {
		logger.Warn("nats drain failed", "error", err)
	}
}
