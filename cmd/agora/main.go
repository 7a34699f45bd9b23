package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"agora/internal/bus"
	"agora/internal/config"
	"agora/internal/content"
	"agora/internal/kb"
	"agora/internal/llm"
	"agora/internal/scheduler"
	"agora/internal/store"
	"agora/internal/telegram"
	"agora/internal/ticket"
	"agora/internal/tools"
	"agora/internal/vault"
	"agora/internal/web"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("agora %s\n", version)
	case "gateway":
		if err := runGateway(); err != nil {
			slog.Error("gateway failed", "error", err)
			os.Exit(1)
		}
	case "backup":
		if err := runBackup(os.Args[2:]); err != nil {
			slog.Error("backup failed", "error", err)
			os.Exit(1)
		}
	case "vault":
		if err := runVault(os.Args[2:]); err != nil {
			slog.Error("vault command failed", "error", err)
			os.Exit(1)
		}
	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: agora <command>\n\nCommands:\n  gateway    Start the agora gateway service\n  backup     Archive the data directory\n  vault      Manage encrypted secrets\n  version    Print version\n")
}

func runGateway() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slog.Info("starting agora gateway", "version", version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// SQLite store
	db, err := store.New(cfg.Store)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()
	slog.Info("store initialized", "path", cfg.Store.Path)

	// Embedded NATS
	eventBus, err := bus.New(cfg.NATS)
	if err != nil {
		return fmt.Errorf("init nats: %w", err)
	}
	defer eventBus.Close()
	slog.Info("nats started", "port", cfg.NATS.Port)

	events, err := bus.NewClient(eventBus)
	if err != nil {
		return fmt.Errorf("init nats client: %w", err)
	}
	defer events.Close()

	// Knowledge base
	knowledge, err := kb.Load(cfg.KB.Path, cfg.Teams.SimilarityThreshold)
	if err != nil {
		return fmt.Errorf("load knowledge base: %w", err)
	}
	slog.Info("knowledge base loaded", "path", cfg.KB.Path, "articles", knowledge.Len())

	// Secrets vault, filling credentials the environment left empty
	var keeper *vault.Keeper
	if cfg.Vault.Passphrase != "" {
		keeper = vault.NewKeeper(vault.New(cfg.Vault.Passphrase), db)
		fillFromVault(keeper, cfg)
	} else {
		slog.Warn("vault passphrase not set, secrets disabled")
	}

	// Model client
	model, err := llm.NewClient(cfg.Model)
	if err != nil {
		return fmt.Errorf("init model client: %w", err)
	}

	// Tools
	mailer := tools.NewMailer(cfg.SMTP)
	var searchSpec *tools.Spec
	if cfg.Search.APIKey != "" {
		spec := tools.NewWebSearch(cfg.Search).Spec()
		searchSpec = &spec
	} else {
		slog.Warn("serpapi key not set, web search disabled")
	}
	emailSpec := mailer.Spec()

	// Teams
	tickets := ticket.NewManager(model, knowledge, db, mailer, searchSpec, events, cfg.Teams)
	contentTeam := content.New(model, model.GenerateText, searchSpec, &emailSpec, db, events, cfg.Teams)

	// Follow-up scheduler
	sched := scheduler.New(db, mailer, eventBus, cfg.Scheduler)
	go sched.Start(ctx)

	// Telegram bot
	if cfg.Telegram.Token != "" {
		bot, err := telegram.NewBot(cfg.Telegram, tickets)
		if err != nil {
			return fmt.Errorf("init telegram bot: %w", err)
		}
		go bot.Start(ctx)
		slog.Info("telegram bot started")
	} else {
		slog.Warn("telegram token not set, bot disabled")
	}

	// Web UI
	if cfg.Web.Enabled {
		srv := web.NewServer(db, eventBus, tickets, contentTeam, keeper, cfg.Web, version)
		go func() {
			if err := srv.Start(ctx); err != nil {
				slog.Error("web server error", "error", err)
			}
		}()
		slog.Info("web server started", "port", cfg.Web.Port)
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("shutting down", "signal", sig)
	cancel()

	return nil
}

// fillFromVault backfills API credentials from the encrypted store when
// the config and environment did not provide them.
func fillFromVault(keeper *vault.Keeper, cfg *config.Config) {
	fill := func(name string, dst *string) {
		if *dst != "" {
			return
		}
		value, err := keeper.Get(name)
		if err != nil {
			slog.Warn("vault lookup failed", "secret", name, "error", err)
			return
		}
		if value != nil {
			*dst = string(value)
		}
	}

	fill("openai_api_key", &cfg.Model.APIKey)
	fill("serpapi_api_key", &cfg.Search.APIKey)
	fill("smtp_password", &cfg.SMTP.Password)
}
