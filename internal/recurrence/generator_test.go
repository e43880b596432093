package recurrence

import (
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/apperr"
	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hour = time.Hour

func ptrTime(t time.Time) *time.Time { return &t }

// 2026-01-05 is a Monday.
func monday() time.Time { return time.Date(2026, time.January, 5, 9, 30, 0, 0, time.UTC) }

func assertStrictlyAscending(t *testing.T, instances []model.Instance) {
	t.Helper()
	for i := 1; i < len(instances); i++ {
		require.True(t, instances[i-1].Start.Before(instances[i].Start),
			"instance %d (%s) is not after instance %d (%s)", i, instances[i].Start, i-1, instances[i-1].Start)
	}
}

func TestWeeklyMonWedFri(t *testing.T) {
	rule := model.RecurrenceRule{
		Frequency:      model.FrequencyWeekly,
		Weekdays:       []int{1, 3, 5},
		Anchor:         monday(),
		UntilCancelled: true,
	}
	require.NoError(t, Validate(rule, hour))

	instances := Generate(rule, hour)
	require.GreaterOrEqual(t, len(instances), 6)

	want := []time.Weekday{time.Monday, time.Wednesday, time.Friday, time.Monday, time.Wednesday, time.Friday}
	for i, wd := range want {
		assert.Equal(t, wd, instances[i].Start.Weekday(), "instance %d", i)
		assert.Equal(t, 9, instances[i].Start.Hour())
		assert.Equal(t, 30, instances[i].Start.Minute())
		assert.Equal(t, hour, instances[i].End.Sub(instances[i].Start))
	}
	assert.Equal(t, monday(), instances[0].Start)
	assert.Equal(t, monday().AddDate(0, 0, 11), instances[5].Start)
}

func TestWeeklyCapsAt500(t *testing.T) {
	rule := model.RecurrenceRule{
		Frequency:      model.FrequencyWeekly,
		Weekdays:       []int{0, 1, 2, 3, 4, 5, 6},
		Anchor:         monday(),
		UntilCancelled: true,
	}

	instances := Generate(rule, hour)

	assert.Len(t, instances, MaxWeeklyInstances)
	assertStrictlyAscending(t, instances)
}

func TestNeverBeyondTwoYears(t *testing.T) {
	limit := monday().AddDate(MaxHorizonYears, 0, 0)
	far := monday().AddDate(10, 0, 0)

	for _, freq := range []model.Frequency{model.FrequencyDaily, model.FrequencyWeekly, model.FrequencyBiweekly, model.FrequencyMonthly} {
		t.Run(string(freq), func(t *testing.T) {
			rule := model.RecurrenceRule{
				Frequency: freq,
				Weekdays:  []int{2},
				Anchor:    monday(),
				EndDate:   ptrTime(far),
			}

			instances := Generate(rule, hour)
			require.NotEmpty(t, instances)
			assert.False(t, instances[len(instances)-1].Start.After(limit))
			assertStrictlyAscending(t, instances)
		})
	}
}

func TestDailyInclusiveBounds(t *testing.T) {
	end := monday().AddDate(0, 0, 6)
	rule := model.RecurrenceRule{
		Frequency: model.FrequencyDaily,
		Anchor:    monday(),
		EndDate:   ptrTime(end),
	}

	instances := Generate(rule, hour)

	require.Len(t, instances, 7)
	assert.Equal(t, monday(), instances[0].Start)
	assert.Equal(t, end, instances[6].Start)
}

func TestDailyUntilCancelledCoversTwoYears(t *testing.T) {
	rule := model.RecurrenceRule{
		Frequency:      model.FrequencyDaily,
		Anchor:         monday(),
		UntilCancelled: true,
	}

	instances := Generate(rule, hour)

	// 2026-01-05 .. 2028-01-05 inclusive
	assert.Len(t, instances, 731)
}

func TestBiweeklyStepsFourteenDays(t *testing.T) {
	rule := model.RecurrenceRule{
		Frequency: model.FrequencyBiweekly,
		Anchor:    monday(),
		EndDate:   ptrTime(monday().AddDate(0, 0, 56)),
	}

	instances := Generate(rule, hour)

	require.Len(t, instances, 5)
	for i := 1; i < len(instances); i++ {
		assert.Equal(t, 14*24*time.Hour, instances[i].Start.Sub(instances[i-1].Start))
	}
}

func TestMonthlyClampsToMonthEnd(t *testing.T) {
	anchor := time.Date(2026, time.January, 31, 18, 0, 0, 0, time.UTC)
	rule := model.RecurrenceRule{
		Frequency: model.FrequencyMonthly,
		Anchor:    anchor,
		EndDate:   ptrTime(time.Date(2026, time.May, 31, 23, 59, 59, 0, time.UTC)),
	}

	instances := Generate(rule, hour)

	require.Len(t, instances, 5)
	days := make([]int, 0, len(instances))
	months := make([]time.Month, 0, len(instances))
	for _, in := range instances {
		days = append(days, in.Start.Day())
		months = append(months, in.Start.Month())
	}
	assert.Equal(t, []int{31, 28, 31, 30, 31}, days)
	assert.Equal(t, []time.Month{time.January, time.February, time.March, time.April, time.May}, months)
}

func TestMonthlyUntilCancelledHasAtMost25(t *testing.T) {
	rule := model.RecurrenceRule{
		Frequency:      model.FrequencyMonthly,
		Anchor:         monday(),
		UntilCancelled: true,
	}

	instances := Generate(rule, hour)

	assert.Len(t, instances, 25)
}

func TestEndBeforeAnchorYieldsNothing(t *testing.T) {
	rule := model.RecurrenceRule{
		Frequency: model.FrequencyDaily,
		Anchor:    monday(),
		EndDate:   ptrTime(monday().AddDate(0, 0, -1)),
	}

	assert.Empty(t, Generate(rule, hour))
	assert.True(t, errors.Is(Validate(rule, hour), apperr.ErrValidation))
}

func TestValidateRejectsEmptyWeekdays(t *testing.T) {
	rule := model.RecurrenceRule{
		Frequency:      model.FrequencyWeekly,
		Weekdays:       []int{},
		Anchor:         monday(),
		UntilCancelled: true,
	}

	err := Validate(rule, hour)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	// The generator itself terminates at the bound with no matches.
	assert.Empty(t, Generate(rule, hour))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		rule     model.RecurrenceRule
		duration time.Duration
		wantErr  bool
	}{
		{
			name:     "daily until cancelled",
			rule:     model.RecurrenceRule{Frequency: model.FrequencyDaily, Anchor: monday(), UntilCancelled: true},
			duration: hour,
		},
		{
			name:     "unknown frequency",
			rule:     model.RecurrenceRule{Frequency: "yearly", Anchor: monday(), UntilCancelled: true},
			duration: hour,
			wantErr:  true,
		},
		{
			name:     "weekday out of range",
			rule:     model.RecurrenceRule{Frequency: model.FrequencyWeekly, Weekdays: []int{7}, Anchor: monday(), UntilCancelled: true},
			duration: hour,
			wantErr:  true,
		},
		{
			name:     "missing end date",
			rule:     model.RecurrenceRule{Frequency: model.FrequencyMonthly, Anchor: monday()},
			duration: hour,
			wantErr:  true,
		},
		{
			name:     "zero duration",
			rule:     model.RecurrenceRule{Frequency: model.FrequencyDaily, Anchor: monday(), UntilCancelled: true},
			duration: 0,
			wantErr:  true,
		},
		{
			name:     "missing anchor",
			rule:     model.RecurrenceRule{Frequency: model.FrequencyDaily, UntilCancelled: true},
			duration: hour,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.rule, tt.duration)
			if tt.wantErr {
				assert.True(t, errors.Is(err, apperr.ErrValidation), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
