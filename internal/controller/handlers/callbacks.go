package handlers

import (
	"context"
	"strings"

	"github.com/Freeeeeet/trainer_scheduler/internal/controller/formatting"
	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Callback data
const (
	CallbackPolicyToggle      = "policy_toggle"
	CallbackPolicyLatePenalty = "policy_late_penalty"
	CallbackPolicyAutoNoShow  = "policy_auto_noshow"
	CallbackPolicyNotice      = "policy_notice"
	CallbackPolicyThreshold   = "policy_threshold"

	CallbackResolveAlert = "resolve_alert:" // resolve_alert:alert_id
	CallbackCancelReason = "cancel_reason:" // cancel_reason:reason:appointment_id
)

// CancelReasonData cancel_reason:client:<appointment_id>
func CancelReasonData(reason model.CancellationReason, apptID string) string {
	return CallbackCancelReason + string(reason) + ":" + apptID
}

// ParseCancelReason разбирает CancelReasonData
func ParseCancelReason(data string) (model.CancellationReason, string, bool) {
	rest, ok := strings.CutPrefix(data, CallbackCancelReason)
	if !ok {
		return "", "", false
	}
	reason, apptID, ok := strings.Cut(rest, ":")
	if !ok || apptID == "" {
		return "", "", false
	}
	switch model.CancellationReason(reason) {
	case model.CancellationReasonClient, model.CancellationReasonTrainer, model.CancellationReasonOther:
		return model.CancellationReason(reason), apptID, true
	}
	return "", "", false
}

// HandleCallbackQuery - главный обработчик нажатий на inline кнопки
func (h *Handlers) HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}

	callback := update.CallbackQuery
	data := callback.Data
	owner := ownerID(&callback.From)

	h.logger.Info("Callback received",
		zap.String("data", data),
		zap.Int64("user_id", callback.From.ID),
	)

	var chatID int64
	if callback.Message.Message != nil {
		chatID = callback.Message.Message.Chat.ID
	}

	switch {
	case data == CallbackPolicyToggle || data == CallbackPolicyLatePenalty || data == CallbackPolicyAutoNoShow:
		cfg, err := h.togglePolicy(ctx, owner, data)
		if err != nil {
			h.logger.Error("Failed to toggle policy", zap.String("owner_id", owner), zap.Error(err))
			h.answer(ctx, b, callback.ID, userMessage(err), true)
			return
		}
		h.answer(ctx, b, callback.ID, "✅ Сохранено", false)
		h.sendMessage(ctx, b, chatID, formatting.FormatPolicy(cfg), policyKeyboard(cfg))

	case data == CallbackPolicyNotice || data == CallbackPolicyThreshold:
		h.answer(ctx, b, callback.ID, "", false)
		h.sendMessage(ctx, b, chatID, h.beginPolicyDialog(callback.From.ID, data)+"\n\n/cancel - отмена", nil)

	case strings.HasPrefix(data, CallbackResolveAlert):
		text, err := h.resolveAlert(ctx, owner, strings.TrimPrefix(data, CallbackResolveAlert))
		if err != nil {
			h.logger.Error("Failed to resolve alert", zap.String("owner_id", owner), zap.Error(err))
			h.answer(ctx, b, callback.ID, userMessage(err), true)
			return
		}
		h.answer(ctx, b, callback.ID, text, false)

	case strings.HasPrefix(data, CallbackCancelReason):
		reason, apptID, ok := ParseCancelReason(data)
		if !ok {
			h.answer(ctx, b, callback.ID, "❌ Неизвестная кнопка", true)
			return
		}
		h.beginCancellationNote(callback.From.ID, reason, apptID)
		h.answer(ctx, b, callback.ID, "", false)
		h.sendMessage(ctx, b, chatID, "💬 Комментарий к отмене (или \""+noNote+"\" без комментария)", nil)

	default:
		h.logger.Warn("Unknown callback", zap.String("data", data))
		h.answer(ctx, b, callback.ID, "❌ Неизвестная кнопка", true)
	}
}

func (h *Handlers) answer(ctx context.Context, b *bot.Bot, callbackID, text string, alert bool) {
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       alert,
	})
	if err != nil {
		h.logger.Error("Failed to answer callback", zap.Error(err))
	}
}
