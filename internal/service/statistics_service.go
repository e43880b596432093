package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/apperr"
	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/Freeeeeet/trainer_scheduler/internal/noshow"
	"github.com/Freeeeeet/trainer_scheduler/internal/policy"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// StatisticsService статистика посещаемости. Ничего не хранит: всё считается из истории записей.
type StatisticsService struct {
	policies     PolicyProvider
	appointments AppointmentStore
	logger       *zap.Logger
	now          func() time.Time
}

func NewStatisticsService(policies PolicyProvider, appointments AppointmentStore, logger *zap.Logger) *StatisticsService {
	return &StatisticsService{
		policies:     policies,
		appointments: appointments,
		logger:       logger,
		now:          time.Now,
	}
}

// ComputeClientStatistics статистика одного клиента за окно
func (s *StatisticsService) ComputeClientStatistics(ctx context.Context, ownerID, clientID string, window model.Window) (stats *model.ClientStatistics, err error) {
	ctx, span := startSpan(ctx, "StatisticsService.ComputeClientStatistics", ownerID, attribute.String("client.id", clientID))
	defer func() { finishSpan(span, err) }()

	threshold, err := s.alertThreshold(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	appts, err := s.appointments.GetAppointments(ctx, ownerID, window, model.AppointmentFilter{ClientID: clientID})
	if err != nil {
		return nil, fmt.Errorf("get appointments: %w", err)
	}

	for _, st := range noshow.Aggregate(appts, window, threshold) {
		if st.Client.ID == clientID {
			return &st, nil
		}
	}

	return nil, apperr.NotFound("client has no sessions in window").Arg("client_id", clientID)
}

// ComputeAllClientStatistics статистика всех клиентов с записями в окне, по убыванию no-show
func (s *StatisticsService) ComputeAllClientStatistics(ctx context.Context, ownerID string, window model.Window) (stats []model.ClientStatistics, err error) {
	ctx, span := startSpan(ctx, "StatisticsService.ComputeAllClientStatistics", ownerID)
	defer func() { finishSpan(span, err) }()

	threshold, err := s.alertThreshold(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	appts, err := s.appointments.GetAppointments(ctx, ownerID, window, model.AppointmentFilter{})
	if err != nil {
		return nil, fmt.Errorf("get appointments: %w", err)
	}

	stats = noshow.Aggregate(appts, window, threshold)
	s.logger.Debug("Client statistics computed",
		zap.String("owner_id", ownerID),
		zap.Int("appointments", len(appts)),
		zap.Int("clients", len(stats)),
	)
	return stats, nil
}

// ClientTrend помесячный тренд клиента за три последних календарных месяца
func (s *StatisticsService) ClientTrend(ctx context.Context, ownerID, clientID string) (trend []model.TrendPoint, err error) {
	ctx, span := startSpan(ctx, "StatisticsService.ClientTrend", ownerID, attribute.String("client.id", clientID))
	defer func() { finishSpan(span, err) }()

	now := s.now()
	appts, err := s.appointments.GetAppointments(ctx, ownerID, noshow.TrendWindow(now), model.AppointmentFilter{ClientID: clientID})
	if err != nil {
		return nil, fmt.Errorf("get appointments: %w", err)
	}

	return noshow.Trend(appts, now), nil
}

// SuggestConversation подсказка для разговора с клиентом
func (s *StatisticsService) SuggestConversation(clientID string, stats model.ClientStatistics, trend []model.TrendPoint) *model.ConversationSuggestion {
	if stats.Client.ID == "" {
		stats.Client.ID = clientID
	}
	return noshow.Suggest(stats, trend)
}

// ClientReport статистика, тренд, подсказка и процент посещаемости одним ответом
func (s *StatisticsService) ClientReport(ctx context.Context, ownerID, clientID string, window model.Window) (report *model.ClientReport, err error) {
	ctx, span := startSpan(ctx, "StatisticsService.ClientReport", ownerID, attribute.String("client.id", clientID))
	defer func() { finishSpan(span, err) }()

	stats, err := s.ComputeClientStatistics(ctx, ownerID, clientID, window)
	if err != nil {
		return nil, err
	}

	trend, err := s.ClientTrend(ctx, ownerID, clientID)
	if err != nil {
		return nil, err
	}

	return &model.ClientReport{
		Statistics: *stats,
		Trend:      trend,
		Suggestion: s.SuggestConversation(clientID, *stats, trend),
		Adherence:  stats.AttendanceRate,
	}, nil
}

func (s *StatisticsService) alertThreshold(ctx context.Context, ownerID string) (int, error) {
	cfg, err := s.policies.GetOrCreateDefaultPolicy(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("get policy: %w", err)
	}
	return policy.AlertThreshold(*cfg), nil
}
