package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Freeeeeet/trainer_scheduler/internal/controller/formatting"
	"github.com/Freeeeeet/trainer_scheduler/internal/controller/state"
	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Границы ввода в диалогах
const (
	MaxNoticeHours    = 720
	MaxAlertThreshold = 100
)

func policyKeyboard(cfg *model.PolicyConfig) [][]models.InlineKeyboardButton {
	toggle := "⏸ Выключить политику"
	if !cfg.Active {
		toggle = "▶️ Включить политику"
	}
	return [][]models.InlineKeyboardButton{
		{button(toggle, CallbackPolicyToggle)},
		{button("⏰ Минимальное уведомление", CallbackPolicyNotice)},
		{button("🔔 Порог алерта", CallbackPolicyThreshold)},
		{
			button("💸 Штраф за позднюю отмену", CallbackPolicyLatePenalty),
			button("🤖 Авто no-show", CallbackPolicyAutoNoShow),
		},
	}
}

// HandlePolicy обрабатывает команду /policy
func (h *Handlers) HandlePolicy(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	cfg, err := h.policies.GetOrCreateDefaultPolicy(ctx, ownerID(update.Message.From))
	if err != nil {
		h.fail(ctx, b, update.Message.Chat.ID, "get policy", err)
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, formatting.FormatPolicy(cfg), policyKeyboard(cfg))
}

// togglePolicy переключает булевы настройки с кнопок
func (h *Handlers) togglePolicy(ctx context.Context, owner, data string) (*model.PolicyConfig, error) {
	cfg, err := h.policies.GetOrCreateDefaultPolicy(ctx, owner)
	if err != nil {
		return nil, err
	}

	var patch model.PolicyPatch
	switch data {
	case CallbackPolicyToggle:
		v := !cfg.Active
		patch.Active = &v
	case CallbackPolicyLatePenalty:
		v := !cfg.ApplyLateCancellationPenalty
		patch.ApplyLateCancellationPenalty = &v
	case CallbackPolicyAutoNoShow:
		v := !cfg.AutoMarkNoShow
		patch.AutoMarkNoShow = &v
	}

	return h.policies.UpdatePolicy(ctx, owner, patch)
}

func (h *Handlers) handleNoticeHoursStep(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID

	hours, err := ParseNoticeHours(update.Message.Text)
	if err != nil {
		h.sendError(ctx, b, chatID, fmt.Sprintf("❌ Введите число часов от 0 до %d, например 24 или 1.5", MaxNoticeHours))
		return
	}

	cfg, err := h.policies.UpdatePolicy(ctx, ownerID(update.Message.From), model.PolicyPatch{MinimumNoticeHours: &hours})
	h.stateManager.ClearState(update.Message.From.ID)
	if err != nil {
		h.fail(ctx, b, chatID, "update notice hours", err)
		return
	}

	h.logger.Info("Minimum notice updated",
		zap.String("owner_id", cfg.OwnerID),
		zap.Float64("hours", hours))
	h.sendMessage(ctx, b, chatID, "✅ Сохранено\n\n"+formatting.FormatPolicy(cfg), policyKeyboard(cfg))
}

func (h *Handlers) handleAlertThresholdStep(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID

	threshold, err := ParseThreshold(update.Message.Text)
	if err != nil {
		h.sendError(ctx, b, chatID, fmt.Sprintf("❌ Введите целое число от 1 до %d", MaxAlertThreshold))
		return
	}

	cfg, err := h.policies.UpdatePolicy(ctx, ownerID(update.Message.From), model.PolicyPatch{AlertThreshold: &threshold})
	h.stateManager.ClearState(update.Message.From.ID)
	if err != nil {
		h.fail(ctx, b, chatID, "update alert threshold", err)
		return
	}

	h.sendMessage(ctx, b, chatID, "✅ Сохранено\n\n"+formatting.FormatPolicy(cfg), policyKeyboard(cfg))
}

func (h *Handlers) beginPolicyDialog(telegramID int64, data string) string {
	switch data {
	case CallbackPolicyNotice:
		h.stateManager.Begin(telegramID, state.StateEnteringNoticeHours, nil)
		return "⏰ Сколько часов до сессии клиент должен предупредить об отмене?"
	default:
		h.stateManager.Begin(telegramID, state.StateEnteringAlertThreshold, nil)
		return "🔔 После скольких no-show показывать алерт?"
	}
}

// ParseNoticeHours принимает "24", "1.5" и "1,5"
func ParseNoticeHours(text string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(text), ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("parse notice hours: %w", err)
	}
	if v < 0 || v > MaxNoticeHours {
		return 0, fmt.Errorf("notice hours out of range: %v", v)
	}
	return v, nil
}

func ParseThreshold(text string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("parse threshold: %w", err)
	}
	if v < 1 || v > MaxAlertThreshold {
		return 0, fmt.Errorf("threshold out of range: %d", v)
	}
	return v, nil
}
