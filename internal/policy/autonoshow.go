package policy

import (
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
)

// AutoNoShowCandidates записи, которые пора пометить как no-show:
// ещё открыты, а начало плюс льготные минуты уже в прошлом.
// При выключенной автопометке или неактивной политике список пуст.
func AutoNoShowCandidates(cfg model.PolicyConfig, appointments []model.Appointment, now time.Time) []model.Appointment {
	if !cfg.Active || !cfg.AutoMarkNoShow {
		return nil
	}

	grace := time.Duration(cfg.GraceMinutes) * time.Minute

	var out []model.Appointment
	for _, appt := range appointments {
		if !appt.Status.IsOpen() {
			continue
		}
		if now.After(appt.StartTime.Add(grace)) {
			out = append(out, appt)
		}
	}
	return out
}
