package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/Freeeeeet/trainer_scheduler/internal/apperr"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// ownerID владелец политики = Telegram-аккаунт тренера
func ownerID(from *models.User) string {
	return strconv.FormatInt(from.ID, 10)
}

// commandArg "/client 42" -> "42"
func commandArg(text string) string {
	_, arg, _ := strings.Cut(strings.TrimSpace(text), " ")
	return strings.TrimSpace(arg)
}

// userMessage текст ошибки для пользователя
func userMessage(err error) string {
	var ae *apperr.Error
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		if errors.As(err, &ae) {
			return "❌ Не найдено: " + ae.Message()
		}
		return "❌ Не найдено."
	case errors.Is(err, apperr.ErrValidation):
		if errors.As(err, &ae) {
			return "❌ Некорректные данные: " + ae.Message()
		}
		return "❌ Некорректные данные."
	case errors.Is(err, apperr.ErrPolicyInactive):
		return "❌ Политика отмены выключена. Включите её в /policy."
	case errors.Is(err, apperr.ErrConcurrentModification):
		return "❌ Политику только что изменили. Попробуйте ещё раз."
	default:
		return "❌ Произошла ошибка. Попробуйте позже."
	}
}

// fail логирует ошибку и отвечает пользователю
func (h *Handlers) fail(ctx context.Context, b *bot.Bot, chatID int64, operation string, err error) {
	h.logger.Error("Operation failed",
		zap.String("operation", operation),
		zap.Int64("chat_id", chatID),
		zap.Error(err),
	)
	h.sendError(ctx, b, chatID, userMessage(err))
}

// sendError отправляет сообщение об ошибке и логирует если не удалось
func (h *Handlers) sendError(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send error message",
			zap.Int64("chat_id", chatID),
			zap.String("text", text),
			zap.Error(err),
		)
	}
}

// sendMessage отправляет сообщение и логирует если не удалось
func (h *Handlers) sendMessage(ctx context.Context, b *bot.Bot, chatID int64, text string, keyboard [][]models.InlineKeyboardButton) {
	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}
	if len(keyboard) > 0 {
		params.ReplyMarkup = &models.InlineKeyboardMarkup{InlineKeyboard: keyboard}
	}

	if _, err := b.SendMessage(ctx, params); err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}

func button(text, data string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{Text: text, CallbackData: data}
}
