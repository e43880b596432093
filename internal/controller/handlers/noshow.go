package handlers

import (
	"context"

	"github.com/Freeeeeet/trainer_scheduler/internal/controller/formatting"
	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/Freeeeeet/trainer_scheduler/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// statisticsLimit столько клиентов помещается в одно сообщение
const statisticsLimit = 20

func alertsKeyboard(alerts []model.NoShowAlert) [][]models.InlineKeyboardButton {
	keyboard := make([][]models.InlineKeyboardButton, 0, len(alerts))
	for _, a := range alerts {
		keyboard = append(keyboard, []models.InlineKeyboardButton{
			button("✔️ Закрыть: "+a.Client.Name, CallbackResolveAlert+a.ID),
		})
	}
	return keyboard
}

// HandleAlerts обрабатывает команду /alerts
func (h *Handlers) HandleAlerts(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	alerts, err := h.alerts.ListActive(ctx, ownerID(update.Message.From))
	if err != nil {
		h.fail(ctx, b, update.Message.Chat.ID, "list alerts", err)
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, formatting.FormatAlerts(alerts), alertsKeyboard(alerts))
}

// HandleRefresh обрабатывает команду /refresh
func (h *Handlers) HandleRefresh(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	owner := ownerID(update.Message.From)
	alerts, err := h.alerts.RefreshAlerts(ctx, owner, h.window())
	if err != nil {
		h.fail(ctx, b, update.Message.Chat.ID, "refresh alerts", err)
		return
	}

	h.logger.Info("Alerts refreshed from chat",
		zap.String("owner_id", owner),
		zap.Int("active", len(alerts)))
	h.sendMessage(ctx, b, update.Message.Chat.ID, formatting.FormatAlerts(alerts), alertsKeyboard(alerts))
}

// HandleResolve обрабатывает команду /resolve <id>
func (h *Handlers) HandleResolve(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	alertID := commandArg(update.Message.Text)
	if alertID == "" {
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Укажите ID алерта: /resolve <id>")
		return
	}

	text, err := h.resolveAlert(ctx, ownerID(update.Message.From), alertID)
	if err != nil {
		h.fail(ctx, b, update.Message.Chat.ID, "resolve alert", err)
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, text, nil)
}

func (h *Handlers) resolveAlert(ctx context.Context, owner, alertID string) (string, error) {
	alert, err := h.alerts.ResolveAlert(ctx, owner, alertID)
	if err != nil {
		return "", err
	}
	return "✅ Алерт по клиенту " + alert.Client.Name + " закрыт", nil
}

// HandleNoShows обрабатывает команду /noshows
func (h *Handlers) HandleNoShows(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	stats, err := h.statistics.ComputeAllClientStatistics(ctx, ownerID(update.Message.From), h.window())
	if err != nil {
		h.fail(ctx, b, update.Message.Chat.ID, "client statistics", err)
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, formatting.FormatStatistics(stats, statisticsLimit), nil)
}

// HandleClient обрабатывает команду /client <id>
func (h *Handlers) HandleClient(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	clientID := commandArg(update.Message.Text)
	if clientID == "" {
		h.sendError(ctx, b, update.Message.Chat.ID, "❌ Укажите ID клиента: /client <id>")
		return
	}

	report, err := h.statistics.ClientReport(ctx, ownerID(update.Message.From), clientID, h.window())
	if err != nil {
		h.fail(ctx, b, update.Message.Chat.ID, "client report", err)
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, formatting.FormatReport(report), nil)
}

// HandleCompliance обрабатывает команду /compliance
func (h *Handlers) HandleCompliance(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	stats, err := h.cancellations.ComplianceStatistics(ctx, ownerID(update.Message.From), service.CurrentMonth(h.now()))
	if err != nil {
		h.fail(ctx, b, update.Message.Chat.ID, "compliance statistics", err)
		return
	}

	h.sendMessage(ctx, b, update.Message.Chat.ID, formatting.FormatCompliance(stats), nil)
}
