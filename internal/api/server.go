// Package api exposes the engine over HTTP for the booking layer.
package api

import (
	"context"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestTimeout = 10 * time.Second

type PolicyAPI interface {
	GetOrCreateDefaultPolicy(ctx context.Context, ownerID string) (*model.PolicyConfig, error)
	UpdatePolicy(ctx context.Context, ownerID string, patch model.PolicyPatch) (*model.PolicyConfig, error)
	AddException(ctx context.Context, ownerID string, exc model.PolicyException) (*model.PolicyException, error)
	RemoveException(ctx context.Context, ownerID, exceptionID string) error
}

type CancellationAPI interface {
	EvaluateCancellation(ctx context.Context, appt model.Appointment, cancelledAt time.Time, ownerID string) (model.CancellationVerdict, error)
	RecordCancellation(ctx context.Context, ownerID string, appt model.Appointment, reason model.CancellationReason, note string) (*model.CancellationRecord, error)
	ListCancellations(ctx context.Context, ownerID string, window model.Window) ([]model.CancellationRecord, error)
	ComplianceStatistics(ctx context.Context, ownerID string, window model.Window) (*model.ComplianceStatistics, error)
}

type StatisticsAPI interface {
	ComputeClientStatistics(ctx context.Context, ownerID, clientID string, window model.Window) (*model.ClientStatistics, error)
	ComputeAllClientStatistics(ctx context.Context, ownerID string, window model.Window) ([]model.ClientStatistics, error)
	ClientTrend(ctx context.Context, ownerID, clientID string) ([]model.TrendPoint, error)
	ClientReport(ctx context.Context, ownerID, clientID string, window model.Window) (*model.ClientReport, error)
}

type AlertAPI interface {
	RefreshAlerts(ctx context.Context, ownerID string, window model.Window) ([]model.NoShowAlert, error)
	ResolveAlert(ctx context.Context, ownerID, alertID string) (*model.NoShowAlert, error)
	ListActive(ctx context.Context, ownerID string) ([]model.NoShowAlert, error)
}

type RecurrenceAPI interface {
	GenerateRecurrence(rule model.RecurrenceRule, duration time.Duration) (model.RecurrenceRule, []model.Instance, error)
}

type AppointmentLookup interface {
	GetByID(ctx context.Context, ownerID, id string) (*model.Appointment, error)
}

type Deps struct {
	Policies      PolicyAPI
	Cancellations CancellationAPI
	Statistics    StatisticsAPI
	Alerts        AlertAPI
	Recurrence    RecurrenceAPI
	Appointments  AppointmentLookup
	WindowDays    int // окно статистики по умолчанию
	Logger        *zap.Logger
}

// NewServer собирает fiber-приложение со всеми маршрутами
func NewServer(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return FromError(c, err)
		},
	})

	app.Use(recover.New())
	app.Use(requestContext(deps.Logger))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	h := &Handler{deps: deps, now: time.Now}
	h.Register(app.Group("/api/v1/owners/:owner"))

	return app
}

// requestContext проставляет X-Request-ID, таймаут запроса и пишет access-лог
func requestContext(logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(fiber.HeaderXRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(fiber.HeaderXRequestID, id)
		c.Locals("reqid", id)

		ctx, cancel := context.WithTimeout(c.UserContext(), requestTimeout)
		defer cancel()
		c.SetUserContext(ctx)

		start := time.Now()
		err := c.Next()
		if err != nil {
			// Ответ формирует ErrorHandler; статус нужен для лога
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				return herr
			}
		}

		logger.Debug("HTTP request",
			zap.String("request_id", id),
			zap.String("method", c.Method()),
			zap.String("path", c.OriginalURL()),
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("duration", time.Since(start)),
		)
		return nil
	}
}
