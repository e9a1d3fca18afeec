package main

import (
	"context"
	"log"
	"net"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hybridz/tgstream/internal/config"
	"github.com/hybridz/tgstream/internal/delivery"
	"github.com/hybridz/tgstream/internal/delivery/webhook"
	"github.com/hybridz/tgstream/internal/gateway"
	"github.com/hybridz/tgstream/internal/security"
	"github.com/hybridz/tgstream/internal/tailscale"
	"github.com/hybridz/tgstream/internal/telegram"
)

func init() {
	// Loads values from .env into the environment when present.
	_ = godotenv.Load()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	router := delivery.NewRouter()
	guard := security.New(cfg.Security)

	var forward delivery.UpdateFunc
	if cfg.Gateway.URL != "" {
		gw := gateway.NewClient(cfg.Gateway.URL, cfg.Gateway.Token)
		if err := gw.Connect(); err != nil {
			log.Fatalf("failed to connect to gateway: %v", err)
		}
		defer gw.Close()

		forward = func(t delivery.TaggedUpdate) {
			if err := gw.Send(gateway.FromTagged(t)); err != nil {
				log.Printf("error forwarding update %d: %v", t.ID, err)
			}
		}
	} else {
		forward = func(t delivery.TaggedUpdate) {
			log.Printf("update %d: %s", t.ID, t.Kind)
		}
	}

	router.Subscribe(func(t delivery.TaggedUpdate) {
		if v := guard.Check(delivery.SenderID(t)); v != security.Allow {
			log.Printf("update %d blocked: %s", t.ID, v)
			return
		}
		forward(t)
	}, nil)

	router.SubscribeError(func(err error) {
		log.Printf("webhook error: %v", err)
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A funnel gives the listener the public HTTPS endpoint setWebhook needs
	// when no public URL is configured directly.
	if cfg.Webhook.UseFunnel && cfg.Webhook.PublicURL == "" {
		url, proc, err := tailscale.StartFunnel(listenPort(cfg.Webhook.Addr), cfg.Webhook.Path)
		if err != nil {
			log.Fatalf("tailscale funnel: %v", err)
		}
		defer proc.Kill()
		cfg.Webhook.PublicURL = url
	}

	// Register the webhook with Telegram when a public URL is configured,
	// and deregister it on the way out so updates queue for getUpdates again.
	if cfg.Webhook.PublicURL != "" {
		client := telegram.NewClient(cfg.Telegram.Token)
		client.APIBase = cfg.Telegram.APIBase

		err := client.SetWebhook(ctx, telegram.SetWebhookParams{
			URL:            cfg.Webhook.PublicURL,
			SecretToken:    cfg.Webhook.SecretToken,
			AllowedUpdates: cfg.Delivery.AllowedUpdates,
		})
		if err != nil {
			log.Fatalf("setWebhook: %v", err)
		}
		log.Printf("webhook registered at %s", cfg.Webhook.PublicURL)

		defer func() {
			cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.DeleteWebhook(cleanupCtx); err != nil {
				log.Printf("deleteWebhook: %v", err)
			}
		}()
	}

	server := &webhook.Server{
		Path:        cfg.Webhook.Path,
		SecretToken: cfg.Webhook.SecretToken,
		Router:      router,
	}

	if err := server.Run(ctx, cfg.Webhook.Addr); err != nil {
		log.Fatalf("webhook server error: %v", err)
	}
	log.Print("shutting down")
}

func listenPort(addr string) string {
	if _, port, err := net.SplitHostPort(addr); err == nil {
		return port
	}
	return strings.TrimPrefix(addr, ":")
}
