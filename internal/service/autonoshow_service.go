package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/Freeeeeet/trainer_scheduler/internal/policy"
	"go.uber.org/zap"
)

// autoNoShowLookback насколько далеко назад ищем незакрытые записи
const autoNoShowLookback = 7 * 24 * time.Hour

// AutoNoShowService помечает как no-show записи, по которым клиент не пришёл и тренер не отметил визит
type AutoNoShowService struct {
	policies     PolicyProvider
	appointments AppointmentMarker
	logger       *zap.Logger
	now          func() time.Time
}

func NewAutoNoShowService(policies PolicyProvider, appointments AppointmentMarker, logger *zap.Logger) *AutoNoShowService {
	return &AutoNoShowService{
		policies:     policies,
		appointments: appointments,
		logger:       logger,
		now:          time.Now,
	}
}

// MarkOverdue возвращает число помеченных записей. При выключенной автопометке ничего не делает.
func (s *AutoNoShowService) MarkOverdue(ctx context.Context, ownerID string) (marked int64, err error) {
	ctx, span := startSpan(ctx, "AutoNoShowService.MarkOverdue", ownerID)
	defer func() { finishSpan(span, err) }()

	cfg, err := s.policies.GetOrCreateDefaultPolicy(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("get policy: %w", err)
	}
	if !cfg.Active || !cfg.AutoMarkNoShow {
		return 0, nil
	}

	now := s.now()
	window := model.Window{From: now.Add(-autoNoShowLookback), To: now}
	appts, err := s.appointments.GetAppointments(ctx, ownerID, window, model.AppointmentFilter{
		Statuses: []model.AppointmentStatus{model.AppointmentStatusScheduled, model.AppointmentStatusConfirmed},
	})
	if err != nil {
		return 0, fmt.Errorf("get open appointments: %w", err)
	}

	candidates := policy.AutoNoShowCandidates(*cfg, appts, now)
	if len(candidates) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(candidates))
	for _, appt := range candidates {
		ids = append(ids, appt.ID)
	}

	marked, err = s.appointments.MarkNoShow(ctx, ownerID, ids, now)
	if err != nil {
		return 0, fmt.Errorf("mark no-show: %w", err)
	}

	s.logger.Info("Appointments marked as no-show",
		zap.String("owner_id", ownerID),
		zap.Int64("marked", marked),
		zap.Int("grace_minutes", cfg.GraceMinutes),
	)
	return marked, nil
}
