package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"aligner-bot/internal/clock"
	"aligner-bot/internal/config"
	"aligner-bot/internal/handlers"
	"aligner-bot/internal/logger"
	"aligner-bot/internal/sentryutil"
	"aligner-bot/internal/server"
	"aligner-bot/internal/services"
	"aligner-bot/internal/telegram"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const sweepInterval = time.Minute

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not read .env")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatal().Err(err).Msg("aligner bot stopped")
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.ParamPrefix != "" {
		if err := loadSecrets(ctx, cfg); err != nil {
			return fmt.Errorf("load secrets: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logg := logger.New(cfg)
	sentryutil.Init(cfg.SentryDSN, cfg.SentryEnvironment, version, logg)
	defer sentryutil.Flush()

	repo, closeRepo, err := openRepository(ctx, cfg, logg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StoreBackend, err)
	}
	defer closeRepo()

	clk, err := clock.New(cfg.Timezone)
	if err != nil {
		return err
	}

	participants := services.NewParticipantService(repo, logg)
	kudos := services.NewKudosService(repo, clk, logg)

	api := telegram.NewClient(cfg.BotToken, "", time.Duration(cfg.PollTimeout+15)*time.Second)
	if me, err := api.GetMe(ctx); err != nil {
		logg.Warn().Err(err).Msg("getMe failed, continuing with configured username")
	} else if me.Username != cfg.BotUsername {
		logg.Warn().Str("configured", cfg.BotUsername).Str("actual", me.Username).Msg("bot username mismatch")
	}

	state := telegram.NewStateManager(cfg.SessionTTL)
	handler := telegram.NewUpdateHandler(api, state, participants, kudos, handlerConfig(cfg), logg)

	// Updates keep running for up to ShutdownTimeout after a signal.
	workCtx, cancelWork := context.WithCancel(context.Background())
	defer cancelWork()
	manager := telegram.NewBotManager(workCtx, api, handler, telegram.ManagerConfig{
		Token:          cfg.BotToken,
		WebhookBaseURL: cfg.WebhookBaseURL,
		WebhookSecret:  cfg.WebhookSecret,
		PollTimeout:    cfg.PollTimeout,
	}, logg)

	gin.SetMode(gin.ReleaseMode)
	deps := server.Deps{
		Health: handlers.NewHealthHandler(cfg.DeploymentMode, cfg.StoreBackend, state),
		Log:    logg,
	}
	if cfg.WebhookEnabled() {
		deps.Webhook = manager.HandleWebhook
	}
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logg.Info().Str("addr", srv.Addr).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return state.Run(gctx, sweepInterval)
	})

	if cfg.WebhookEnabled() {
		if err := manager.RegisterWebhook(ctx); err != nil {
			return err
		}
	} else {
		g.Go(func() error {
			return manager.RunPolling(gctx)
		})
	}

	logg.Info().
		Str("mode", cfg.DeploymentMode).
		Str("store", cfg.StoreBackend).
		Bool("webhook", cfg.WebhookEnabled()).
		Str("version", version).
		Msg("aligner bot started")

	err = g.Wait()
	drain(manager, cfg.ShutdownTimeout, logg)
	logg.Info().Msg("aligner bot stopped")
	return err
}

func handlerConfig(cfg *config.Config) telegram.HandlerConfig {
	hc := telegram.HandlerConfig{
		BotUsername: cfg.BotUsername,
		Cooldown:    telegram.NewCooldown(cfg.GreetingCooldown),
	}
	if cfg.GroupScoped() {
		hc.Gate = telegram.Gate{Enabled: true, GroupID: cfg.GroupID, ThreadID: cfg.ThreadID}
	}
	if cfg.AnnounceChatID != 0 {
		hc.GreetTo = &telegram.Destination{ChatID: cfg.AnnounceChatID, ThreadID: cfg.AnnounceThreadID}
	}
	return hc
}

// drain waits for in-flight updates, giving up after timeout.
func drain(m *telegram.BotManager, timeout time.Duration, logg zerolog.Logger) {
	done := make(chan struct{})
	go func() {
		m.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		logg.Warn().Dur("timeout", timeout).Msg("in-flight updates abandoned")
	}
}
