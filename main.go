package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/harrisonrobin/sunsine/pkg/auth"
	"github.com/harrisonrobin/sunsine/pkg/bot"
	"github.com/harrisonrobin/sunsine/pkg/cache"
	"github.com/harrisonrobin/sunsine/pkg/config"
	"github.com/harrisonrobin/sunsine/pkg/notify"
	"github.com/harrisonrobin/sunsine/pkg/overdue"
	"github.com/harrisonrobin/sunsine/pkg/scheduler"
	"github.com/harrisonrobin/sunsine/pkg/store"
)

func main() {
	// Config problems are the only fatal startup errors: the bot must not
	// begin polling with half a configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)
	logger.Info("starting sunsine")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	srv, err := auth.NewSheetsService(ctx, cfg.ServiceAccountEmail, cfg.PrivateKey)
	if err != nil {
		logger.Error("google auth failed", "error", err)
		os.Exit(1)
	}

	rawStore := store.NewSheetsStore(srv, cfg.TasksSheetID, cfg.CompletionsSheetID, cfg.LogSheetID, logger)
	c := cache.New()
	cachedStore := store.NewCached(rawStore, c, cfg.CacheTTL)

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		logger.Error("discord session setup failed", "error", err)
		os.Exit(1)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentMessageContent

	// The accountant does read-modify-write cycles, so it gets the raw
	// store and invalidates the shared cache itself.
	accountant := overdue.NewAccountant(rawStore, c, logger)

	commands := bot.New(session, cachedStore, accountant, cfg.AllowedAddRoles, cfg.Location(), logger)
	commands.Register()

	if err := session.Open(); err != nil {
		logger.Error("discord connection failed", "error", err)
		os.Exit(1)
	}
	defer session.Close()
	logger.Info("connected to discord", "user", session.State.User.Username)

	// Repair completion-table drift once before the drivers start.
	if err := accountant.Normalize(ctx); err != nil {
		logger.Error("startup normalization failed", "error", err)
	}

	notifier := notify.NewDiscord(session, cfg.PublicChannelID, logger)
	sched := scheduler.New(cachedStore, notifier, accountant, scheduler.Config{
		FastInterval: cfg.FastPollInterval,
		SlowInterval: cfg.SlowPollInterval,
	}, logger)
	sched.Start(ctx)

	sweepTicker := time.NewTicker(cfg.CacheSweepInterval)
	defer sweepTicker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-sweepTicker.C:
				if removed := c.Sweep(now); removed > 0 {
					logger.Info("cache sweep", "removed", removed)
				}
			}
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	sched.Stop()
}

func newLogger(cfg *config.Config) *slog.Logger {
	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		})
	}

	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
}
