package handlers

import (
	"context"
	"strings"

	"github.com/Freeeeeet/trainer_scheduler/internal/apperr"
	"github.com/Freeeeeet/trainer_scheduler/internal/controller/formatting"
	"github.com/Freeeeeet/trainer_scheduler/internal/controller/state"
	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Ключи данных диалога отмены
const (
	dataAppointmentID = "appointment_id"
	dataReason        = "reason"
)

// noNote ответ "без комментария"
const noNote = "-"

// HandleCancelSession обрабатывает команду /cancelsession <id>:
// показывает вердикт и предлагает выбрать причину
func (h *Handlers) HandleCancelSession(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	apptID := commandArg(update.Message.Text)
	if apptID == "" {
		h.sendError(ctx, b, chatID, "❌ Укажите ID записи: /cancelsession <id>")
		return
	}

	owner := ownerID(update.Message.From)
	appt, err := h.appointment(ctx, owner, apptID)
	if err != nil {
		h.fail(ctx, b, chatID, "get appointment", err)
		return
	}
	if !appt.Status.IsOpen() {
		h.sendError(ctx, b, chatID, "❌ Эту запись уже нельзя отменить")
		return
	}

	verdict, err := h.cancellations.EvaluateCancellation(ctx, *appt, h.now(), owner)
	if err != nil {
		h.fail(ctx, b, chatID, "evaluate cancellation", err)
		return
	}

	keyboard := [][]models.InlineKeyboardButton{
		{
			button("👤 Клиент", CancelReasonData(model.CancellationReasonClient, appt.ID)),
			button("🏋️ Тренер", CancelReasonData(model.CancellationReasonTrainer, appt.ID)),
			button("❔ Другое", CancelReasonData(model.CancellationReasonOther, appt.ID)),
		},
	}
	h.sendMessage(ctx, b, chatID, formatting.FormatVerdict(*appt, verdict)+"\nКто отменяет?", keyboard)
}

// beginCancellationNote запоминает запись и причину, ждёт комментарий
func (h *Handlers) beginCancellationNote(telegramID int64, reason model.CancellationReason, apptID string) {
	h.stateManager.Begin(telegramID, state.StateEnteringCancellationNote, map[string]string{
		dataAppointmentID: apptID,
		dataReason:        string(reason),
	})
}

func (h *Handlers) handleCancellationNoteStep(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID := update.Message.Chat.ID
	telegramID := update.Message.From.ID

	apptID := h.stateManager.GetString(telegramID, dataAppointmentID)
	reason := model.CancellationReason(h.stateManager.GetString(telegramID, dataReason))
	h.stateManager.ClearState(telegramID)

	if apptID == "" {
		h.sendError(ctx, b, chatID, "❌ Ошибка: данные не найдены. Начните заново через /cancelsession")
		return
	}

	note := strings.TrimSpace(update.Message.Text)
	if note == noNote {
		note = ""
	}

	owner := ownerID(update.Message.From)
	appt, err := h.appointment(ctx, owner, apptID)
	if err != nil {
		h.fail(ctx, b, chatID, "get appointment", err)
		return
	}

	rec, err := h.cancellations.RecordCancellation(ctx, owner, *appt, reason, note)
	if err != nil {
		h.fail(ctx, b, chatID, "record cancellation", err)
		return
	}

	h.logger.Info("Cancellation recorded from chat",
		zap.String("owner_id", owner),
		zap.String("appointment_id", appt.ID),
		zap.Bool("is_late", rec.IsLate))

	text := "✅ Отмена записана"
	if rec.IsLate {
		text += "\n⚠️ Поздняя отмена, штраф: " + formatting.PenaltyName(rec.Penalty)
	}
	h.sendMessage(ctx, b, chatID, text, nil)
}

func (h *Handlers) appointment(ctx context.Context, owner, id string) (*model.Appointment, error) {
	appt, err := h.appointments.GetByID(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if appt == nil {
		return nil, apperr.NotFound("appointment").Arg("appointment_id", id)
	}
	return appt, nil
}
