package telegram

import (
	"context"

	"aligner-bot/internal/services"
)

// cmdKudo opens the recipient prompt once the sender has joined and has room
// left in today's window. Sending /kudo again restarts the conversation.
func (h *UpdateHandler) cmdKudo(ctx context.Context, req request) {
	dest := replyTo(req)

	res, err := h.kudos.Begin(ctx, req.user.ID)
	if err != nil {
		h.state.Clear(req.user.ID)
		h.apologize(ctx, dest, errCodeKudoBegin, err)
		return
	}

	switch res.Outcome {
	case services.OutcomeNotJoined:
		h.state.Clear(req.user.ID)
		h.reply(ctx, dest, textJoinFirst, JoinKeyboard())
	case services.OutcomeCapReached:
		h.state.Clear(req.user.ID)
		h.reply(ctx, dest, capReachedText(res.Recipients), nil)
	case services.OutcomeReady:
		h.state.Set(req.user.ID, &UserState{
			State:    StateAwaitingRecipient,
			ChatID:   dest.ChatID,
			ThreadID: dest.ThreadID,
			GiverRef: res.GiverRef,
			Date:     res.Date,
		})
		h.reply(ctx, dest, textAskRecipient, nil)
	}
}

// onRecipient consumes the awaited handle and records the kudo against the
// date captured when the conversation began.
func (h *UpdateHandler) onRecipient(ctx context.Context, req request, text string) {
	dest := replyTo(req)

	handle := normalizeHandle(text)
	if handle == "" {
		h.reply(ctx, dest, textEmptyHandle, nil)
		return
	}

	us, ok := h.state.Take(req.user.ID)
	if !ok {
		// expired or consumed by a concurrent message
		return
	}

	res, err := h.kudos.Give(ctx, us.GiverRef, handle, us.Date)
	if err != nil {
		h.apologize(ctx, dest, errCodeKudoSave, err)
		return
	}
	if res.Outcome == services.OutcomeCapReached {
		h.reply(ctx, dest, capReachedText(res.Recipients), nil)
		return
	}
	h.log.Info().Int64("user", req.user.ID).Str("recipient", handle).Msg("kudo given")
	h.reply(ctx, dest, thanksText(handle), nil)
}

func (h *UpdateHandler) cmdCancel(ctx context.Context, req request) {
	if _, ok := h.state.Take(req.user.ID); !ok {
		h.reply(ctx, replyTo(req), textNothingToCancel, nil)
		return
	}
	h.reply(ctx, replyTo(req), textCancelled, nil)
}
