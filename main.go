package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/justmike1/slackops/commands"
	"github.com/justmike1/slackops/config"
	"github.com/justmike1/slackops/github"
	"github.com/justmike1/slackops/logging"
	"github.com/justmike1/slackops/messages"
	opsslack "github.com/justmike1/slackops/slack"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		port       string
		logLevel   string
		socketMode bool
	)

	cmd := &cobra.Command{
		Use:          "slackops",
		Short:        "Slack bot that lists GitHub repositories and runs their GitHub Actions.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			useSocket := socketMode && cfg.SocketMode()
			if !useSocket && cfg.SlackSigningSecret == "" {
				return errors.New("configuration error: SLACK_SIGNING_SECRET is required for the HTTP endpoints")
			}
			return run(cmd.Context(), cfg, useSocket)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "port for the HTTP server (overrides PORT)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error (overrides LOG_LEVEL)")
	cmd.Flags().BoolVar(&socketMode, "socket-mode", true, "receive events over Socket Mode when SLACK_APP_TOKEN is set")
	return cmd
}

func run(ctx context.Context, cfg *config.Config, useSocket bool) error {
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	msgs, err := messages.Load(cfg.MessagesFile)
	if err != nil {
		return err
	}
	logMessages(logger.Named("messages"), cfg.MessagesFile, msgs)

	ghClient, err := github.NewClient(cfg.GitHubToken, cfg.GitHubAPIURL)
	if err != nil {
		return err
	}
	slackClient := opsslack.NewClient(cfg.SlackBotToken)

	botUserID, err := slackClient.GetBotUserID(ctx)
	if err != nil {
		logger.Warn("could not resolve bot user id, own messages will not be filtered by user", zap.Error(err))
	}

	trigger := github.NewTrigger(ghClient, github.TriggerOptions{
		Wait:        cfg.DispatchWait,
		PollTimeout: cfg.DispatchPollTimeout,
	}, logger.Named("dispatch"))

	ctrl := commands.NewController(
		slackClient,
		github.NewDirectory(ghClient),
		github.NewCatalog(ghClient),
		trigger,
		msgs,
		commands.Options{
			SlashCommand: cfg.SlashCommand,
			MaxVisible:   cfg.MaxVisible,
			DocsURL:      cfg.DocsURL,
		},
		logger.Named("controller"),
	)

	callbacks := opsslack.Callbacks{
		OnCommand:     ctrl.HandleCommand,
		OnInteraction: ctrl.HandleInteraction,
		OnMessage:     ctrl.HandleMessage,
		OnAppHome:     ctrl.HandleAppHome,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if !useSocket {
		handler := opsslack.NewHandler(cfg.SlackSigningSecret, botUserID, callbacks, logger.Named("http"))
		guard := newAllowList(cfg.AllowedNetworks, logger.Named("allowlist"))
		mux.Handle("/slack/commands", guard.protect(handler.Commands))
		mux.Handle("/slack/interactivity", guard.protect(handler.Interactions))
		mux.Handle("/slack/events", guard.protect(handler.Events))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("slackops server starting",
			zap.String("addr", srv.Addr),
			zap.String("command", cfg.SlashCommand),
			zap.Bool("socket_mode", useSocket))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	if useSocket {
		listener := opsslack.NewSocketListener(cfg.SlackAppToken, cfg.SlackBotToken, botUserID, callbacks, logger)
		go func() {
			if err := listener.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("socket mode stopped", zap.Error(err))
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// logMessages dumps the effective message catalog at debug level so an
// overrides file can be checked without triggering every reply.
func logMessages(logger *zap.Logger, source string, msgs *messages.Catalog) {
	if !logger.Core().Enabled(zap.DebugLevel) {
		return
	}
	if source == "" {
		source = "embedded"
	}
	all := msgs.GetAll()
	logger.Debug("message catalog loaded", zap.String("source", source), zap.Int("keys", len(all)))
	for _, key := range slices.Sorted(maps.Keys(all)) {
		logger.Debug("message", zap.String("key", key), zap.String("text", all[key]))
	}
}
