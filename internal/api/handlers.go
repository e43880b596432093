package api

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/apperr"
	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/Freeeeeet/trainer_scheduler/internal/service"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const defaultWindowDays = 90

var validate = validator.New()

type Handler struct {
	deps Deps
	now  func() time.Time
}

func (h *Handler) Register(r fiber.Router) {
	r.Get("/policy", h.getPolicy)
	r.Patch("/policy", h.updatePolicy)
	r.Post("/policy/exceptions", h.addException)
	r.Delete("/policy/exceptions/:id", h.removeException)

	r.Post("/cancellations/evaluate", h.evaluateCancellation)
	r.Post("/cancellations", h.recordCancellation)
	r.Get("/cancellations", h.listCancellations)
	r.Get("/cancellations/compliance", h.compliance)

	r.Get("/statistics", h.allStatistics)
	r.Get("/clients/:client/statistics", h.clientStatistics)
	r.Get("/clients/:client/trend", h.clientTrend)
	r.Get("/clients/:client/report", h.clientReport)

	r.Get("/alerts", h.listAlerts)
	r.Post("/alerts/refresh", h.refreshAlerts)
	r.Post("/alerts/:id/resolve", h.resolveAlert)

	r.Post("/recurrence/preview", h.previewRecurrence)
}

// ---- policy ----

func (h *Handler) getPolicy(c *fiber.Ctx) error {
	cfg, err := h.deps.Policies.GetOrCreateDefaultPolicy(c.UserContext(), c.Params("owner"))
	if err != nil {
		return err
	}
	return Success(c, "policy", cfg)
}

func (h *Handler) updatePolicy(c *fiber.Ctx) error {
	var patch model.PolicyPatch
	if err := h.bind(c, &patch); err != nil {
		return err
	}

	cfg, err := h.deps.Policies.UpdatePolicy(c.UserContext(), c.Params("owner"), patch)
	if err != nil {
		return err
	}
	return Success(c, "policy updated", cfg)
}

func (h *Handler) addException(c *fiber.Ctx) error {
	var req ExceptionRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	exc, err := h.deps.Policies.AddException(c.UserContext(), c.Params("owner"), req.toModel())
	if err != nil {
		return err
	}
	return SuccessWithCode(c, fiber.StatusCreated, "exception added", exc)
}

func (h *Handler) removeException(c *fiber.Ctx) error {
	if err := h.deps.Policies.RemoveException(c.UserContext(), c.Params("owner"), c.Params("id")); err != nil {
		return err
	}
	return Success(c, "exception removed", nil)
}

// ---- cancellations ----

func (h *Handler) evaluateCancellation(c *fiber.Ctx) error {
	var req EvaluateRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	ownerID := c.Params("owner")
	appt, err := h.appointment(c, ownerID, req.AppointmentID)
	if err != nil {
		return err
	}

	cancelledAt := h.now()
	if req.CancelledAt != nil {
		cancelledAt = *req.CancelledAt
	}

	verdict, err := h.deps.Cancellations.EvaluateCancellation(c.UserContext(), *appt, cancelledAt, ownerID)
	if err != nil {
		return err
	}
	return Success(c, "verdict", verdict)
}

func (h *Handler) recordCancellation(c *fiber.Ctx) error {
	var req CancellationRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	ownerID := c.Params("owner")
	appt, err := h.appointment(c, ownerID, req.AppointmentID)
	if err != nil {
		return err
	}

	rec, err := h.deps.Cancellations.RecordCancellation(c.UserContext(), ownerID, *appt, req.Reason, req.Note)
	if err != nil {
		return err
	}
	return SuccessWithCode(c, fiber.StatusCreated, "cancellation recorded", rec)
}

func (h *Handler) listCancellations(c *fiber.Ctx) error {
	window, err := h.window(c, h.currentMonth())
	if err != nil {
		return err
	}

	records, err := h.deps.Cancellations.ListCancellations(c.UserContext(), c.Params("owner"), window)
	if err != nil {
		return err
	}
	return Success(c, "cancellations", records)
}

func (h *Handler) compliance(c *fiber.Ctx) error {
	window, err := h.window(c, h.currentMonth())
	if err != nil {
		return err
	}

	stats, err := h.deps.Cancellations.ComplianceStatistics(c.UserContext(), c.Params("owner"), window)
	if err != nil {
		return err
	}
	return Success(c, "compliance", stats)
}

// ---- statistics ----

func (h *Handler) allStatistics(c *fiber.Ctx) error {
	window, err := h.window(c, h.trailing())
	if err != nil {
		return err
	}

	stats, err := h.deps.Statistics.ComputeAllClientStatistics(c.UserContext(), c.Params("owner"), window)
	if err != nil {
		return err
	}
	return Success(c, "statistics", stats)
}

func (h *Handler) clientStatistics(c *fiber.Ctx) error {
	window, err := h.window(c, h.trailing())
	if err != nil {
		return err
	}

	stats, err := h.deps.Statistics.ComputeClientStatistics(c.UserContext(), c.Params("owner"), c.Params("client"), window)
	if err != nil {
		return err
	}
	return Success(c, "statistics", stats)
}

func (h *Handler) clientTrend(c *fiber.Ctx) error {
	trend, err := h.deps.Statistics.ClientTrend(c.UserContext(), c.Params("owner"), c.Params("client"))
	if err != nil {
		return err
	}
	return Success(c, "trend", trend)
}

func (h *Handler) clientReport(c *fiber.Ctx) error {
	window, err := h.window(c, h.trailing())
	if err != nil {
		return err
	}

	report, err := h.deps.Statistics.ClientReport(c.UserContext(), c.Params("owner"), c.Params("client"), window)
	if err != nil {
		return err
	}
	return Success(c, "report", report)
}

// ---- alerts ----

func (h *Handler) listAlerts(c *fiber.Ctx) error {
	alerts, err := h.deps.Alerts.ListActive(c.UserContext(), c.Params("owner"))
	if err != nil {
		return err
	}
	return Success(c, "alerts", alerts)
}

func (h *Handler) refreshAlerts(c *fiber.Ctx) error {
	window, err := h.window(c, h.trailing())
	if err != nil {
		return err
	}

	alerts, err := h.deps.Alerts.RefreshAlerts(c.UserContext(), c.Params("owner"), window)
	if err != nil {
		return err
	}
	return Success(c, "alerts refreshed", alerts)
}

func (h *Handler) resolveAlert(c *fiber.Ctx) error {
	alert, err := h.deps.Alerts.ResolveAlert(c.UserContext(), c.Params("owner"), c.Params("id"))
	if err != nil {
		return err
	}
	return Success(c, "alert resolved", alert)
}

// ---- recurrence ----

func (h *Handler) previewRecurrence(c *fiber.Ctx) error {
	var req RecurrenceRequest
	if err := h.bind(c, &req); err != nil {
		return err
	}

	rule, instances, err := h.deps.Recurrence.GenerateRecurrence(req.Rule, time.Duration(req.DurationMinutes)*time.Minute)
	if err != nil {
		return err
	}
	return Success(c, "recurrence", RecurrenceResponse{
		SeriesID:  rule.SeriesID,
		Count:     len(instances),
		Instances: instances,
	})
}

// ---- helpers ----

func (h *Handler) bind(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		h.deps.Logger.Debug("Failed to parse request body", zap.Error(err))
		return apperr.Validation("invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		return apperr.Validation("invalid request").Wrap(err)
	}
	return nil
}

func (h *Handler) appointment(c *fiber.Ctx, ownerID, id string) (*model.Appointment, error) {
	appt, err := h.deps.Appointments.GetByID(c.UserContext(), ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	if appt == nil {
		return nil, apperr.NotFound("appointment not found").Arg("appointment_id", id)
	}
	return appt, nil
}

// window читает from/to (RFC3339) из query, недостающие границы берёт из def
func (h *Handler) window(c *fiber.Ctx, def model.Window) (model.Window, error) {
	w := def
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return w, apperr.Validation("from must be RFC3339").Arg("from", v)
		}
		w.From = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return w, apperr.Validation("to must be RFC3339").Arg("to", v)
		}
		w.To = t
	}
	if w.To.Before(w.From) {
		return w, apperr.Validation("window end is before its start")
	}
	return w, nil
}

func (h *Handler) trailing() model.Window {
	days := h.deps.WindowDays
	if days <= 0 {
		days = defaultWindowDays
	}
	return model.TrailingWindow(h.now(), days)
}

func (h *Handler) currentMonth() model.Window {
	return service.CurrentMonth(h.now())
}
