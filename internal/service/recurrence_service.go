package service

import (
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/Freeeeeet/trainer_scheduler/internal/recurrence"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RecurrenceService struct {
	logger *zap.Logger
}

func NewRecurrenceService(logger *zap.Logger) *RecurrenceService {
	return &RecurrenceService{logger: logger}
}

// GenerateRecurrence проверяет правило и разворачивает его в сессии.
// Серии без ID получают новый; правило возвращается с заполненным SeriesID,
// чтобы бронирование могло связать сессии с серией.
func (s *RecurrenceService) GenerateRecurrence(rule model.RecurrenceRule, duration time.Duration) (model.RecurrenceRule, []model.Instance, error) {
	if err := recurrence.Validate(rule, duration); err != nil {
		return model.RecurrenceRule{}, nil, err
	}
	if rule.SeriesID == uuid.Nil {
		rule.SeriesID = uuid.New()
	}

	instances := recurrence.Generate(rule, duration)

	s.logger.Debug("Recurrence generated",
		zap.String("series_id", rule.SeriesID.String()),
		zap.String("frequency", string(rule.Frequency)),
		zap.Int("instances", len(instances)),
	)
	return rule, instances, nil
}
