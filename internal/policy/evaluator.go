package policy

import (
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
)

// MatchException returns the first active exception that applies to the
// appointment. List order is the only precedence: callers that need a
// specific exception to win must put it first.
func MatchException(exceptions []model.PolicyException, appt model.Appointment) *model.PolicyException {
	for i := range exceptions {
		exc := &exceptions[i]
		if !exc.Active {
			continue
		}
		switch exc.Kind {
		case model.ExceptionClient:
			if exc.ClientID != "" && exc.ClientID == appt.Client.ID {
				return exc
			}
		case model.ExceptionSessionType:
			if exc.SessionType != "" && exc.SessionType == appt.SessionType {
				return exc
			}
		case model.ExceptionSituation:
			return exc
		}
	}
	return nil
}

// Evaluate decides whether cancelling appt at cancelledAt is late and which
// penalty applies.
//
// A cancellation after the session start has negative notice: it is reported
// as zero hours but is always late.
func Evaluate(cfg model.PolicyConfig, exceptions []model.PolicyException, appt model.Appointment, cancelledAt time.Time) model.CancellationVerdict {
	noticeHours := appt.StartTime.Sub(cancelledAt).Hours()

	verdict := model.CancellationVerdict{
		NoticeHours:         max(0, noticeHours),
		RequiredNoticeHours: cfg.MinimumNoticeHours,
		Penalty:             model.PenaltyNone,
	}

	if !cfg.Active {
		return verdict
	}

	matched := MatchException(exceptions, appt)
	if matched != nil {
		id := matched.ID
		verdict.MatchedExceptionID = &id
		if matched.MinimumNoticeHours != nil {
			verdict.RequiredNoticeHours = *matched.MinimumNoticeHours
		}
	}

	verdict.IsLate = noticeHours < verdict.RequiredNoticeHours

	waived := matched != nil && matched.WaivePenalty
	if verdict.IsLate && !waived && cfg.ApplyLateCancellationPenalty {
		verdict.Penalty = cfg.LateCancellationPenaltyKind
		if verdict.Penalty == "" || verdict.Penalty == model.PenaltyNone {
			verdict.Penalty = model.PenaltyWarning
		}
	}

	return verdict
}
