package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hybridz/tgstream/internal/config"
	"github.com/hybridz/tgstream/internal/delivery"
	"github.com/hybridz/tgstream/internal/gateway"
	"github.com/hybridz/tgstream/internal/security"
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

	client := telegram.NewClient(cfg.Telegram.Token)
	client.APIBase = cfg.Telegram.APIBase
	// Long polling holds the connection open for the configured timeout, so
	// the HTTP client needs headroom beyond it.
	client.HTTPClient = &http.Client{
		Timeout: time.Duration(cfg.Delivery.Timeout+30) * time.Second,
	}

	router := delivery.NewRouter()
	guard := security.New(cfg.Security)

	// Forward every classified update that clears the guard to the downstream
	// gateway, if one is configured; otherwise just log.
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
		log.Printf("poll error: %v", err)
	})

	poller := &delivery.Poller{
		Fetcher:        client,
		Router:         router,
		Limit:          cfg.Delivery.Limit,
		Timeout:        cfg.Delivery.Timeout,
		AllowedUpdates: cfg.Delivery.AllowedUpdates,
		Interval:       time.Duration(cfg.Delivery.PollInterval) * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("polling every %ds (limit=%d timeout=%ds)",
		cfg.Delivery.PollInterval, cfg.Delivery.Limit, cfg.Delivery.Timeout)

	if err := poller.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("poller: %v", err)
	}
	log.Print("shutting down")
}
