package handlers

import (
	"context"
	"strings"

	"github.com/Freeeeeet/trainer_scheduler/internal/controller/state"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const helpText = "📚 Справка по командам:\n\n" +
	"Политика отмены:\n" +
	"/policy - Настройки политики\n" +
	"/cancelsession <id> - Отменить запись клиента\n" +
	"/compliance - Соблюдение политики за месяц\n\n" +
	"No-show:\n" +
	"/noshows - Статистика по клиентам\n" +
	"/client <id> - Отчёт по клиенту\n" +
	"/alerts - Активные алерты\n" +
	"/refresh - Пересчитать алерты\n" +
	"/resolve <id> - Закрыть алерт\n\n" +
	"/cancel - Прервать текущий диалог"

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	owner := ownerID(update.Message.From)

	// Политика создаётся при первом обращении
	if _, err := h.policies.GetOrCreateDefaultPolicy(ctx, owner); err != nil {
		h.fail(ctx, b, update.Message.Chat.ID, "start", err)
		return
	}

	h.logger.Info("Owner started bot", zap.String("owner_id", owner))

	h.sendMessage(ctx, b, update.Message.Chat.ID,
		"👋 Привет, "+update.Message.From.FirstName+"!\n\n"+
			"Я слежу за поздними отменами и пропусками ваших клиентов.\n\n"+helpText,
		nil)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText, nil)
}

// HandleCancel обрабатывает команду /cancel - отмена текущего диалога
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	telegramID := update.Message.From.ID
	if h.stateManager.GetState(telegramID) == state.StateNone {
		h.sendMessage(ctx, b, update.Message.Chat.ID, "❌ Нет активных операций для отмены.", nil)
		return
	}

	h.stateManager.ClearState(telegramID)
	h.sendMessage(ctx, b, update.Message.Chat.ID, "✅ Операция отменена.", nil)
}

// HandleTextMessage обрабатывает текстовые сообщения в зависимости от состояния пользователя
func (h *Handlers) HandleTextMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	// Команды обрабатываются другими handlers
	if strings.HasPrefix(update.Message.Text, "/") {
		return
	}

	telegramID := update.Message.From.ID
	currentState := h.stateManager.GetState(telegramID)
	if currentState == state.StateNone {
		return
	}

	switch currentState {
	case state.StateEnteringNoticeHours:
		h.handleNoticeHoursStep(ctx, b, update)
	case state.StateEnteringAlertThreshold:
		h.handleAlertThresholdStep(ctx, b, update)
	case state.StateEnteringCancellationNote:
		h.handleCancellationNoteStep(ctx, b, update)
	default:
		h.logger.Warn("Unknown state", zap.String("state", string(currentState)))
		h.stateManager.ClearState(telegramID)
	}
}
