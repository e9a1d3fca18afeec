package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/hybridz/tgstream/internal/config"
	"github.com/hybridz/tgstream/internal/telegram"
)

func init() {
	// Loads values from .env into the environment when present.
	_ = godotenv.Load()
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "me":
		handleMe()
	case "send":
		handleSend(os.Args[2:])
	case "updates":
		handleUpdates(os.Args[2:])
	case "webhook":
		handleWebhook(os.Args[2:])
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func newClient() *telegram.Client {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Telegram.Token == "" {
		log.Fatal("telegram token must be set (TGSTREAM_TOKEN)")
	}
	client := telegram.NewClient(cfg.Telegram.Token)
	client.APIBase = cfg.Telegram.APIBase
	return client
}

func cliContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

func handleMe() {
	ctx, cancel := cliContext()
	defer cancel()

	me, err := newClient().GetMe(ctx)
	if err != nil {
		log.Fatalf("getMe: %v", err)
	}
	fmt.Printf("id=%d username=@%s name=%q bot=%v\n", me.ID, me.Username, me.FirstName, me.IsBot)
}

func handleSend(args []string) {
	flags := pflag.NewFlagSet("send", pflag.ExitOnError)
	chatID := flags.Int64("chat-id", 0, "destination chat id")
	text := flags.String("text", "", "message text")
	flags.Parse(args)

	if *chatID == 0 || *text == "" {
		fmt.Fprintln(os.Stderr, "usage: tgstream-cli send --chat-id ID --text \"message\"")
		os.Exit(1)
	}

	ctx, cancel := cliContext()
	defer cancel()

	// Text above the API limit goes out as multiple messages.
	client := newClient()
	for _, chunk := range telegram.SplitMessage(*text) {
		msg, err := client.SendMessage(ctx, telegram.SendMessageParams{
			ChatID: *chatID,
			Text:   chunk,
		})
		if err != nil {
			log.Fatalf("sendMessage: %v", err)
		}
		fmt.Printf("sent message %d to chat %d\n", msg.MessageID, msg.Chat.ID)
	}
}

func handleUpdates(args []string) {
	flags := pflag.NewFlagSet("updates", pflag.ExitOnError)
	offset := flags.Int64("offset", 0, "fetch updates starting at this id")
	limit := flags.Int("limit", 10, "max updates to fetch")
	timeout := flags.Int("timeout", 0, "long-poll seconds")
	flags.Parse(args)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(*timeout+30)*time.Second)
	defer cancel()

	updates, err := newClient().GetUpdates(ctx, telegram.GetUpdatesParams{
		Offset:  *offset,
		Limit:   *limit,
		Timeout: *timeout,
	})
	if err != nil {
		log.Fatalf("getUpdates: %v", err)
	}

	for _, u := range updates {
		line, err := json.Marshal(u)
		if err != nil {
			log.Fatalf("marshal update %d: %v", u.UpdateID, err)
		}
		fmt.Println(string(line))
	}
}

func handleWebhook(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: tgstream-cli webhook set|delete|info [flags]")
		os.Exit(1)
	}

	ctx, cancel := cliContext()
	defer cancel()

	switch args[0] {
	case "set":
		flags := pflag.NewFlagSet("webhook set", pflag.ExitOnError)
		url := flags.String("url", "", "public HTTPS URL updates are pushed to")
		secret := flags.String("secret", "", "secret token echoed back on each push")
		flags.Parse(args[1:])

		if *url == "" {
			fmt.Fprintln(os.Stderr, "usage: tgstream-cli webhook set --url https://... [--secret TOKEN]")
			os.Exit(1)
		}

		err := newClient().SetWebhook(ctx, telegram.SetWebhookParams{
			URL:         *url,
			SecretToken: *secret,
		})
		if err != nil {
			log.Fatalf("setWebhook: %v", err)
		}
		fmt.Printf("webhook set to %s\n", *url)

	case "delete":
		if err := newClient().DeleteWebhook(ctx); err != nil {
			log.Fatalf("deleteWebhook: %v", err)
		}
		fmt.Println("webhook deleted")

	case "info":
		info, err := newClient().GetWebhookInfo(ctx)
		if err != nil {
			log.Fatalf("getWebhookInfo: %v", err)
		}
		fmt.Printf("url=%q pending=%d\n", info.URL, info.PendingUpdateCount)
		if info.LastErrorMessage != "" {
			fmt.Printf("last error: %s\n", info.LastErrorMessage)
		}

	default:
		fmt.Fprintf(os.Stderr, "unknown webhook subcommand: %s\n", args[0])
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tgstream-cli - Telegram Bot API operations

Usage:
  tgstream-cli me
  tgstream-cli send --chat-id ID --text "message"
  tgstream-cli updates [--offset N] [--limit N] [--timeout N]
  tgstream-cli webhook set --url https://... [--secret TOKEN]
  tgstream-cli webhook delete
  tgstream-cli webhook info

The bot token is read from TGSTREAM_TOKEN or the config file.`)
}
