// Package recurrence expands a recurrence rule into concrete session instances.
package recurrence

import (
	"slices"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/apperr"
	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/go-playground/validator/v10"
)

const (
	// MaxHorizonYears hard limit for any series, independent of the requested end date.
	MaxHorizonYears = 2
	// MaxWeeklyInstances weekly generation stops as soon as this many instances exist.
	MaxWeeklyInstances = 500
)

var validate = validator.New()

// Validate проверяет правило до генерации
func Validate(rule model.RecurrenceRule, duration time.Duration) error {
	if err := validate.Struct(rule); err != nil {
		return apperr.Validation("invalid recurrence rule").Wrap(err)
	}

	if rule.Anchor.IsZero() {
		return apperr.Validation("series start is required")
	}

	if duration <= 0 {
		return apperr.Validation("session duration must be positive").Arg("duration", duration)
	}

	if rule.Frequency == model.FrequencyWeekly && len(rule.Weekdays) == 0 {
		return apperr.Validation("weekly recurrence requires at least one weekday")
	}

	if !rule.UntilCancelled {
		if rule.EndDate == nil {
			return apperr.Validation("end date is required unless the series runs until cancelled")
		}
		if rule.EndDate.Before(rule.Anchor) {
			return apperr.Validation("end date is before the series start").
				Arg("anchor", rule.Anchor).
				Arg("end_date", *rule.EndDate)
		}
	}

	return nil
}

// Bound возвращает последний допустимый момент серии:
// min(дата окончания, якорь + 2 года)
func Bound(rule model.RecurrenceRule) time.Time {
	limit := rule.Anchor.AddDate(MaxHorizonYears, 0, 0)
	if !rule.UntilCancelled && rule.EndDate != nil && rule.EndDate.Before(limit) {
		return *rule.EndDate
	}
	return limit
}

// Generate разворачивает правило в отсортированный список сессий без дублей.
// Для некорректного правила возвращает пустой список, а не ошибку.
func Generate(rule model.RecurrenceRule, duration time.Duration) []model.Instance {
	bound := Bound(rule)

	var starts []time.Time
	switch rule.Frequency {
	case model.FrequencyDaily:
		starts = stepDays(rule.Anchor, bound, 1)
	case model.FrequencyWeekly:
		starts = weekly(rule.Anchor, bound, rule.Weekdays)
	case model.FrequencyBiweekly:
		starts = stepDays(rule.Anchor, bound, 14)
	case model.FrequencyMonthly:
		starts = monthly(rule.Anchor, bound)
	}

	slices.SortFunc(starts, func(a, b time.Time) int { return a.Compare(b) })
	starts = slices.CompactFunc(starts, func(a, b time.Time) bool { return a.Equal(b) })

	instances := make([]model.Instance, 0, len(starts))
	for _, start := range starts {
		instances = append(instances, model.Instance{Start: start, End: start.Add(duration)})
	}
	return instances
}

// stepDays шагает по календарю с сохранением времени суток якоря
func stepDays(anchor, bound time.Time, step int) []time.Time {
	var out []time.Time
	for i := 0; ; i++ {
		t := anchor.AddDate(0, 0, i*step)
		if t.After(bound) {
			break
		}
		out = append(out, t)
	}
	return out
}

func weekly(anchor, bound time.Time, weekdays []int) []time.Time {
	var days [7]bool
	for _, wd := range weekdays {
		if wd >= 0 && wd <= 6 {
			days[wd] = true
		}
	}

	var out []time.Time
	for i := 0; ; i++ {
		t := anchor.AddDate(0, 0, i)
		if t.After(bound) {
			break
		}
		if days[t.Weekday()] {
			out = append(out, t)
			if len(out) >= MaxWeeklyInstances {
				break
			}
		}
	}
	return out
}

func monthly(anchor, bound time.Time) []time.Time {
	var out []time.Time
	for i := 0; ; i++ {
		t := addMonthsClamped(anchor, i)
		if t.After(bound) {
			break
		}
		out = append(out, t)
	}
	return out
}

// addMonthsClamped сдвигает дату на n месяцев; 31 января -> 28/29 февраля, а не 3 марта
func addMonthsClamped(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
