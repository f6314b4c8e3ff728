package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	taskwallet "github.com/taskwallet/bot"
	"github.com/taskwallet/bot/internal/config"
	"github.com/taskwallet/bot/internal/handler"
	"github.com/taskwallet/bot/internal/middleware"
	"github.com/taskwallet/bot/internal/repository"
	"github.com/taskwallet/bot/internal/repository/memory"
	"github.com/taskwallet/bot/internal/repository/postgres"
	"github.com/taskwallet/bot/internal/service"
	"github.com/taskwallet/bot/internal/telegram"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Pick the storage backend. Without DATABASE_URL everything lives in
	// memory, which is enough for development and single-instance deployments.
	var store repository.Store
	if cfg.DatabaseURL != "" {
		pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		migrationsFS, err := fs.Sub(taskwallet.MigrationsFS, "migrations")
		if err != nil {
			slog.Error("failed to load embedded migrations", "error", err)
			os.Exit(1)
		}
		if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
			slog.Error("failed to run migrations", "error", err)
			os.Exit(1)
		}

		store = postgres.NewStore(pool)
		slog.Info("using postgres storage")
	} else {
		store = memory.NewStore()
		slog.Info("using in-memory storage")
	}

	// Session store for multi-step forms
	var sessions service.SessionStore
	if cfg.RedisAddr != "" {
		client, err := service.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			slog.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		sessions = service.NewRedisSessionStore(client, config.SessionTTL)
		slog.Info("using redis sessions", "addr", cfg.RedisAddr)
	} else {
		sessions = service.NewMemorySessionStore()
	}

	userService := service.NewUserService(store)

	// Handler pointer for use in default handler closure
	var h *handler.Handler

	// Create bot
	opts := []bot.Option{
		bot.WithMiddlewares(
			middleware.Recover(),
			middleware.Logging(),
			middleware.UserLoader(userService, cfg),
		),
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if h == nil {
				return
			}
			h.HandleText(ctx, b, update)
		}),
	}

	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		slog.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	// Get bot info
	me, err := b.GetMe(ctx)
	if err != nil {
		slog.Error("failed to get bot info", "error", err)
		os.Exit(1)
	}
	slog.Info("bot info retrieved", "id", me.ID, "username", me.Username)

	if cfg.DropPendingUpdates {
		if _, err := b.DeleteWebhook(ctx, &bot.DeleteWebhookParams{DropPendingUpdates: true}); err != nil {
			slog.Warn("failed to drop pending updates", "error", err)
		}
	}

	// Notifications go straight through the bot
	sender := telegram.NewSender(b)

	// Initialize services
	ledgerService := service.NewLedgerService(store)
	registryService := service.NewRegistryService(store)
	assignmentService := service.NewAssignmentService(store, store, ledgerService, sender)
	defer assignmentService.Shutdown()
	withdrawalService := service.NewWithdrawalService(store, ledgerService, sender, cfg.AdminIDs)
	broadcastService := service.NewBroadcastService(store, sender, config.BroadcastInterval)

	// Initialize handler
	h = handler.New(handler.Deps{
		Bot:         b,
		Cfg:         cfg,
		Users:       userService,
		Ledger:      ledgerService,
		Registry:    registryService,
		Assignments: assignmentService,
		Withdrawals: withdrawalService,
		Sessions:    sessions,
		Broadcast:   broadcastService,
	})

	// Register all handlers
	h.Register()

	// Start bot
	slog.Info("starting bot", "username", me.Username, "id", me.ID)
	b.Start(ctx)

	// Graceful shutdown
	slog.Info("bot stopped gracefully")
}
