package service

import (
	"context"

	"github.com/Freeeeeet/trainer_scheduler/internal/events"
	"go.uber.org/zap"
)

// publish отправляет события. Ошибка доставки не отменяет уже сохранённое изменение,
// поэтому только логируется. Вызывается после снятия блокировки владельца.
func publish(ctx context.Context, publisher events.Publisher, logger *zap.Logger, evs ...events.Event) {
	if publisher == nil || len(evs) == 0 {
		return
	}
	if err := publisher.Publish(ctx, evs...); err != nil {
		logger.Warn("Failed to publish events",
			zap.Int("count", len(evs)),
			zap.String("type", evs[0].Type),
			zap.Error(err),
		)
	}
}
