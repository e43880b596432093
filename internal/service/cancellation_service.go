package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/apperr"
	"github.com/Freeeeeet/trainer_scheduler/internal/events"
	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/Freeeeeet/trainer_scheduler/internal/policy"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type CancellationService struct {
	policies  PolicyProvider
	store     CancellationStore
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

func NewCancellationService(policies PolicyProvider, store CancellationStore, publisher events.Publisher, logger *zap.Logger) *CancellationService {
	return &CancellationService{
		policies:  policies,
		store:     store,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// EvaluateCancellation проверяет отмену по политике владельца, ничего не сохраняя
func (s *CancellationService) EvaluateCancellation(ctx context.Context, appt model.Appointment, cancelledAt time.Time, ownerID string) (verdict model.CancellationVerdict, err error) {
	ctx, span := startSpan(ctx, "CancellationService.EvaluateCancellation", ownerID, attribute.String("appointment.id", appt.ID))
	defer func() { finishSpan(span, err) }()

	cfg, err := s.policies.GetOrCreateDefaultPolicy(ctx, ownerID)
	if err != nil {
		return model.CancellationVerdict{}, fmt.Errorf("get policy: %w", err)
	}

	verdict = policy.Evaluate(*cfg, cfg.Exceptions, appt, cancelledAt)
	span.SetAttributes(attribute.Bool("cancellation.late", verdict.IsLate))
	return verdict, nil
}

// RecordCancellation проверяет отмену и добавляет запись в журнал.
// При выключенной политике журнал не ведётся.
func (s *CancellationService) RecordCancellation(ctx context.Context, ownerID string, appt model.Appointment, reason model.CancellationReason, note string) (rec *model.CancellationRecord, err error) {
	ctx, span := startSpan(ctx, "CancellationService.RecordCancellation", ownerID, attribute.String("appointment.id", appt.ID))
	defer func() { finishSpan(span, err) }()

	switch reason {
	case model.CancellationReasonClient, model.CancellationReasonTrainer, model.CancellationReasonOther:
	default:
		return nil, apperr.Validation("unknown cancellation reason").Arg("reason", reason)
	}

	cfg, err := s.policies.GetOrCreateDefaultPolicy(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get policy: %w", err)
	}
	if !cfg.Active {
		return nil, apperr.PolicyInactive("cannot record cancellation").Arg("owner_id", ownerID)
	}

	now := s.now()
	verdict := policy.Evaluate(*cfg, cfg.Exceptions, appt, now)

	rec = &model.CancellationRecord{
		ID:                  s.newID(),
		OwnerID:             ownerID,
		AppointmentID:       appt.ID,
		Client:              appt.Client,
		SessionTime:         appt.StartTime,
		CancelledAt:         now,
		NoticeHours:         verdict.NoticeHours,
		RequiredNoticeHours: verdict.RequiredNoticeHours,
		IsLate:              verdict.IsLate,
		Penalty:             verdict.Penalty,
		MatchedExceptionID:  verdict.MatchedExceptionID,
		Reason:              reason,
		Note:                note,
		CreatedAt:           now,
	}

	if err := s.store.Append(ctx, *rec); err != nil {
		return nil, fmt.Errorf("append cancellation: %w", err)
	}

	s.logger.Info("Cancellation recorded",
		zap.String("owner_id", ownerID),
		zap.String("appointment_id", appt.ID),
		zap.String("client_id", appt.Client.ID),
		zap.Bool("late", rec.IsLate),
		zap.String("penalty", string(rec.Penalty)),
		zap.Float64("notice_hours", rec.NoticeHours),
	)

	publish(ctx, s.publisher, s.logger, events.New(events.TypeCancellationRecorded, ownerID, appt.Client.ID, now, rec))

	return rec, nil
}

// ListCancellations журнал отмен за окно, новые первыми
func (s *CancellationService) ListCancellations(ctx context.Context, ownerID string, window model.Window) (records []model.CancellationRecord, err error) {
	ctx, span := startSpan(ctx, "CancellationService.ListCancellations", ownerID)
	defer func() { finishSpan(span, err) }()

	records, err = s.store.List(ctx, ownerID, window)
	if err != nil {
		return nil, fmt.Errorf("list cancellations: %w", err)
	}
	return records, nil
}

// ComplianceStatistics сводка соблюдения политики за окно
func (s *CancellationService) ComplianceStatistics(ctx context.Context, ownerID string, window model.Window) (stats *model.ComplianceStatistics, err error) {
	ctx, span := startSpan(ctx, "CancellationService.ComplianceStatistics", ownerID)
	defer func() { finishSpan(span, err) }()

	records, err := s.store.List(ctx, ownerID, window)
	if err != nil {
		return nil, fmt.Errorf("list cancellations: %w", err)
	}

	result := policy.Compliance(records, window)
	return &result, nil
}

// CurrentMonth окно от начала текущего месяца до now
func CurrentMonth(now time.Time) model.Window {
	return model.Window{
		From: time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()),
		To:   now,
	}
}
