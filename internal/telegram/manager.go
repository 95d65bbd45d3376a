package telegram

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const pollBackoff = 3 * time.Second

// Poller is the inbound half of the Bot API.
type Poller interface {
	GetUpdates(ctx context.Context, offset int64, timeout int) ([]Update, error)
	SetWebhook(ctx context.Context, url, secretToken string) error
	DeleteWebhook(ctx context.Context) error
}

type Dispatcher interface {
	Handle(ctx context.Context, upd Update)
}

type ManagerConfig struct {
	Token          string
	WebhookBaseURL string
	// WebhookSecret is checked against X-Telegram-Bot-Api-Secret-Token.
	WebhookSecret string
	PollTimeout   int
}

// BotManager feeds updates to the handler, each on its own goroutine, either
// from long polling or from the webhook route.
type BotManager struct {
	api     Poller
	handler Dispatcher
	cfg     ManagerConfig
	path    string
	log     zerolog.Logger

	// ctx outlives webhook requests so handlers are not cut off when the
	// HTTP response is written.
	ctx context.Context
	wg  sync.WaitGroup
}

func NewBotManager(ctx context.Context, api Poller, handler Dispatcher, cfg ManagerConfig, log zerolog.Logger) *BotManager {
	return &BotManager{
		api:     api,
		handler: handler,
		cfg:     cfg,
		path:    tokenSecret(cfg.Token),
		log:     log.With().Str("component", "bot-manager").Logger(),
		ctx:     ctx,
	}
}

// tokenSecret derives the webhook path segment so the bot token never shows
// up in access logs.
func tokenSecret(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h[:16])
}

// WebhookPath is the route the webhook handler must be mounted on.
func (m *BotManager) WebhookPath() string {
	return "/webhook/bot/" + m.path
}

func (m *BotManager) WebhookURL() string {
	return strings.TrimRight(m.cfg.WebhookBaseURL, "/") + m.WebhookPath()
}

func (m *BotManager) dispatch(upd Update) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.handler.Handle(m.ctx, upd)
	}()
}

// Wait blocks until in-flight updates are handled.
func (m *BotManager) Wait() {
	m.wg.Wait()
}

// RegisterWebhook points Telegram at this process.
func (m *BotManager) RegisterWebhook(ctx context.Context) error {
	if m.cfg.WebhookBaseURL == "" {
		return ErrNoWebhookURL
	}
	if err := m.api.SetWebhook(ctx, m.WebhookURL(), m.cfg.WebhookSecret); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	m.log.Info().Str("base_url", m.cfg.WebhookBaseURL).Msg("webhook registered")
	return nil
}

// RunPolling long-polls getUpdates until ctx is done. Transport errors are
// logged and retried after a short pause.
func (m *BotManager) RunPolling(ctx context.Context) error {
	if err := m.api.DeleteWebhook(ctx); err != nil {
		m.log.Warn().Err(err).Msg("delete webhook failed, polling anyway")
	}
	m.log.Info().Int("timeout", m.cfg.PollTimeout).Msg("long polling started")

	var offset int64
	for {
		updates, err := m.api.GetUpdates(ctx, offset, m.cfg.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			m.log.Warn().Err(err).Msg("getUpdates failed")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(pollBackoff):
			}
			continue
		}
		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			m.dispatch(upd)
		}
	}
}

func (m *BotManager) HandleWebhook(c *gin.Context) {
	if c.Param("secret") != m.path {
		c.Status(http.StatusNotFound)
		return
	}

	if m.cfg.WebhookSecret != "" {
		headerSecret := c.GetHeader("X-Telegram-Bot-Api-Secret-Token")
		if headerSecret != m.cfg.WebhookSecret {
			c.Status(http.StatusUnauthorized)
			return
		}
	}

	var upd Update
	if err := c.ShouldBindJSON(&upd); err != nil {
		m.log.Debug().Err(err).Msg("malformed webhook body")
		c.Status(http.StatusBadRequest)
		return
	}

	m.dispatch(upd)
	c.Status(http.StatusOK)
}

// ErrNoWebhookURL is returned when webhook mode is requested without a base URL.
var ErrNoWebhookURL = errors.New("webhook base url not set")
