package telegram

import (
	"fmt"
	"strings"

	"aligner-bot/internal/apperr"
	"aligner-bot/internal/services"
)

const (
	textRegistered      = "🎉 You're now registered as an Alignooor! Send /kudo to thank someone."
	textAlreadyIn       = "✅ You're already in! Send /kudo to thank someone."
	textJoinFirst       = "You need to join before giving kudos. Hit Join or send /join."
	textAskRecipient    = "💌 Who would you like to thank? Send me their Telegram handle, or /cancel."
	textEmptyHandle     = "That doesn't look like a handle. Send a Telegram handle, or /cancel."
	textCancelled       = "Kudos cancelled, nothing was recorded."
	textNothingToCancel = "Nothing to cancel."
	textHintKudo        = "Send /kudo to thank someone who helped you today."
	textHintJoin        = "Send /join to register as an Alignooor."
)

// escapeMarkdownV2 escapes every character MarkdownV2 reserves outside of
// code and link targets.
func escapeMarkdownV2(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`_*[]()~`+"`"+`>#+-=|{}.!\`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func startPromptText(u User) string {
	return fmt.Sprintf("Hi %s, ready to participate as an Alignooor? Just hit Join.", u.DisplayName())
}

func startPointerText(u User, botUsername string) string {
	return fmt.Sprintf("👋 Hi %s\\! Let's continue our conversation [in DMs](https://t.me/%s)\\.",
		escapeMarkdownV2(u.DisplayName()), botUsername)
}

func welcomeText(botUsername string) string {
	return "🤗 Welcome to our newcomers\\!\n\n" +
		"To register as an Alignooor and be eligible for rewards, " +
		fmt.Sprintf("[send me a DM](https://t.me/%s?start) or hit Start\\.\n\n", botUsername) +
		"Please read the pinned message to know more\\."
}

func thanksText(handle string) string {
	return fmt.Sprintf("💌 Thank you for appreciating %s!", handle)
}

func capReachedText(recipients []string) string {
	return fmt.Sprintf("🙌 You've already given %d kudos today, to %s. Come back tomorrow!",
		services.DailyLimit, strings.Join(recipients, ", "))
}

func historyText(total int, today []string) string {
	if total == 0 {
		return "You haven't given any kudos yet. Send /kudo to start."
	}
	if len(today) == 0 {
		return fmt.Sprintf("You've given %d kudos so far, none today (0/%d).", total, services.DailyLimit)
	}
	return fmt.Sprintf("You've given %d kudos so far. Today (%d/%d): %s.",
		total, len(today), services.DailyLimit, strings.Join(today, ", "))
}

// apologyText numbers the failing call site so reports can be traced back.
func apologyText(code int, err error) string {
	msg := fmt.Sprintf("An unknown error occurred (E%d), we're on it.", code)
	switch apperr.KindOf(err) {
	case apperr.StoreUnavailable:
		msg += " Please try again in a minute."
	case apperr.StoreAuthFailed:
		msg += " An admin has been notified."
	}
	return msg
}

// normalizeHandle trims whitespace and a single leading "@".
func normalizeHandle(text string) string {
	h := strings.TrimSpace(text)
	h = strings.TrimPrefix(h, "@")
	return strings.TrimSpace(h)
}
