package telegram

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"aligner-bot/internal/metrics"
	"aligner-bot/internal/models"
	"aligner-bot/internal/sentryutil"
	"aligner-bot/internal/services"
	"aligner-bot/internal/store"
)

// Apology codes identify the failing step in user-facing error replies.
const (
	errCodeJoin = iota + 1
	errCodeKudoBegin
	errCodeKudoSave
	errCodeCatchAll
	errCodeHistory
)

type HandlerConfig struct {
	BotUsername string
	Gate        Gate
	// GreetTo overrides where new-member greetings go. Nil greets in the
	// joining chat.
	GreetTo  *Destination
	Cooldown *Cooldown
}

type UpdateHandler struct {
	client       Sender
	state        *StateManager
	participants *services.ParticipantService
	kudos        *services.KudosService
	cfg          HandlerConfig
	log          zerolog.Logger
}

func NewUpdateHandler(
	client Sender,
	state *StateManager,
	participants *services.ParticipantService,
	kudos *services.KudosService,
	cfg HandlerConfig,
	log zerolog.Logger,
) *UpdateHandler {
	if cfg.Cooldown == nil {
		cfg.Cooldown = NewCooldown(0)
	}
	return &UpdateHandler{
		client:       client,
		state:        state,
		participants: participants,
		kudos:        kudos,
		cfg:          cfg,
		log:          log.With().Str("component", "update-handler").Logger(),
	}
}

// request is where an interaction came from and where replies go.
type request struct {
	user     User
	chat     Chat
	threadID int
	// command is set for typed commands, unset for button presses.
	command bool
}

func (h *UpdateHandler) Handle(ctx context.Context, upd Update) {
	defer sentryutil.RecoverAndCapture(h.log, map[string]string{
		"update_id": strconv.FormatInt(upd.UpdateID, 10),
	})

	switch {
	case upd.CallbackQuery != nil:
		metrics.UpdatesTotal.WithLabelValues("callback").Inc()
		h.handleCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil:
		h.handleMessage(ctx, upd.Message)
	default:
		metrics.UpdatesTotal.WithLabelValues("other").Inc()
	}
}

func (h *UpdateHandler) handleMessage(ctx context.Context, msg *Message) {
	if msg.From == nil {
		metrics.UpdatesTotal.WithLabelValues("other").Inc()
		return
	}

	if len(msg.NewChatMembers) > 0 {
		metrics.UpdatesTotal.WithLabelValues("new_members").Inc()
		if !h.cfg.Gate.AllowChat(msg.Chat) {
			metrics.GatedTotal.Inc()
			return
		}
		h.greetNewMembers(ctx, msg)
		return
	}

	if !h.cfg.Gate.Allow(msg) {
		metrics.GatedTotal.Inc()
		return
	}

	req := request{user: *msg.From, chat: msg.Chat, threadID: msg.MessageThreadID, command: true}

	if name, isCommand := msg.Command(h.cfg.BotUsername); isCommand {
		metrics.UpdatesTotal.WithLabelValues("command").Inc()
		switch name {
		case "":
			// addressed to another bot
		case "start":
			h.cmdStart(ctx, req)
		case "join":
			h.cmdJoin(ctx, req)
		case "kudo":
			h.cmdKudo(ctx, req)
		case "cancel":
			h.cmdCancel(ctx, req)
		case "greet":
			h.cmdGreet(ctx, req)
		case "mykudos":
			h.cmdMyKudos(ctx, req)
		default:
			if msg.Chat.IsPrivate() {
				h.catchAll(ctx, req)
			}
		}
		return
	}

	metrics.UpdatesTotal.WithLabelValues("text").Inc()
	us := h.state.Get(msg.From.ID)
	if us.State == StateAwaitingRecipient && us.ChatID == msg.Chat.ID {
		h.onRecipient(ctx, req, msg.Text)
		return
	}
	if msg.Chat.IsPrivate() {
		h.catchAll(ctx, req)
	}
}

func (h *UpdateHandler) handleCallback(ctx context.Context, cb *CallbackQuery) {
	// Always answer so the client stops its spinner.
	if err := h.client.AnswerCallbackQuery(ctx, cb.ID, ""); err != nil {
		h.log.Warn().Err(err).Int64("user", cb.From.ID).Msg("answer callback failed")
	}

	req := request{user: cb.From, chat: Chat{ID: cb.From.ID, Type: ChatTypePrivate}}
	if cb.Message != nil {
		if !h.cfg.Gate.AllowChat(cb.Message.Chat) {
			metrics.GatedTotal.Inc()
			return
		}
		req.chat = cb.Message.Chat
		req.threadID = cb.Message.MessageThreadID
	}

	switch cb.Data {
	case CallbackStart:
		h.cmdStart(ctx, req)
	case CallbackJoin:
		h.cmdJoin(ctx, req)
	case CallbackKudo:
		h.cmdKudo(ctx, req)
	default:
		h.log.Debug().Str("data", cb.Data).Msg("unknown callback payload")
	}
}

// cmdStart points group users to a private chat and sends the join prompt
// privately.
func (h *UpdateHandler) cmdStart(ctx context.Context, req request) {
	if !req.chat.IsPrivate() && req.command {
		h.send(ctx, SendMessageRequest{
			ChatID:          req.chat.ID,
			MessageThreadID: req.threadID,
			Text:            startPointerText(req.user, h.cfg.BotUsername),
			ParseMode:       ParseModeMarkdownV2,
		})
	}
	h.send(ctx, SendMessageRequest{
		ChatID:      req.user.ID,
		Text:        startPromptText(req.user),
		ReplyMarkup: JoinKeyboard(),
	})
}

func (h *UpdateHandler) cmdJoin(ctx context.Context, req request) {
	_, created, err := h.participants.Join(ctx, identityOf(req.user))
	if err != nil {
		h.apologize(ctx, Destination{ChatID: req.user.ID}, errCodeJoin, err)
		return
	}
	text := textAlreadyIn
	if created {
		text = textRegistered
	}
	h.send(ctx, SendMessageRequest{ChatID: req.user.ID, Text: text})
}

func (h *UpdateHandler) cmdGreet(ctx context.Context, req request) {
	metrics.GreetingsTotal.WithLabelValues("manual").Inc()
	h.sendWelcome(ctx, Destination{ChatID: req.chat.ID, ThreadID: req.threadID})
}

func (h *UpdateHandler) cmdMyKudos(ctx context.Context, req request) {
	dest := replyTo(req)
	p, err := h.participants.Find(ctx, req.user.ID)
	if err != nil {
		h.apologize(ctx, dest, errCodeHistory, err)
		return
	}
	if p == nil {
		h.reply(ctx, dest, textJoinFirst, JoinKeyboard())
		return
	}
	all, err := h.kudos.History(ctx, p.ID)
	if err != nil {
		h.apologize(ctx, dest, errCodeHistory, err)
		return
	}
	today := models.RecipientHandles(store.FilterByDate(all, h.kudos.Today()))
	h.reply(ctx, dest, historyText(len(all), today), nil)
}

// catchAll nudges private senders toward /join or /kudo.
func (h *UpdateHandler) catchAll(ctx context.Context, req request) {
	dest := replyTo(req)
	p, err := h.participants.Find(ctx, req.user.ID)
	if err != nil {
		h.apologize(ctx, dest, errCodeCatchAll, err)
		return
	}
	if p == nil {
		h.reply(ctx, dest, textHintJoin, nil)
		return
	}
	h.reply(ctx, dest, textHintKudo, nil)
}

func (h *UpdateHandler) greetNewMembers(ctx context.Context, msg *Message) {
	if onlySelf(msg.NewChatMembers, h.cfg.BotUsername) {
		return
	}
	if !h.cfg.Cooldown.Allow() {
		metrics.GreetingsTotal.WithLabelValues("suppressed").Inc()
		h.log.Debug().Int64("chat", msg.Chat.ID).Msg("greeting suppressed by cooldown")
		return
	}
	dest := Destination{ChatID: msg.Chat.ID, ThreadID: msg.MessageThreadID}
	if h.cfg.GreetTo != nil {
		dest = *h.cfg.GreetTo
	}
	metrics.GreetingsTotal.WithLabelValues("sent").Inc()
	h.sendWelcome(ctx, dest)
}

func (h *UpdateHandler) sendWelcome(ctx context.Context, dest Destination) {
	h.send(ctx, SendMessageRequest{
		ChatID:                dest.ChatID,
		MessageThreadID:       dest.ThreadID,
		Text:                  welcomeText(h.cfg.BotUsername),
		ParseMode:             ParseModeMarkdownV2,
		DisableWebPagePreview: true,
		ReplyMarkup:           StartKeyboard(),
	})
}

func (h *UpdateHandler) reply(ctx context.Context, dest Destination, text string, markup *InlineKeyboardMarkup) {
	h.send(ctx, SendMessageRequest{
		ChatID:          dest.ChatID,
		MessageThreadID: dest.ThreadID,
		Text:            text,
		ReplyMarkup:     markup,
	})
}

func (h *UpdateHandler) apologize(ctx context.Context, dest Destination, code int, err error) {
	h.reply(ctx, dest, apologyText(code, err), nil)
}

// send delivers best-effort: failures are logged and dropped.
func (h *UpdateHandler) send(ctx context.Context, req SendMessageRequest) {
	if _, err := h.client.SendMessage(ctx, req); err != nil {
		h.log.Warn().Err(err).Int64("chat", req.ChatID).Msg("message not delivered")
	}
}

func replyTo(req request) Destination {
	return Destination{ChatID: req.chat.ID, ThreadID: req.threadID}
}

func identityOf(u User) services.Identity {
	return services.Identity{TelegramID: u.ID, Handle: u.Username, Name: u.FullName()}
}

func onlySelf(members []User, botUsername string) bool {
	for _, m := range members {
		if !m.IsBot || !strings.EqualFold(m.Username, botUsername) {
			return false
		}
	}
	return true
}
