package service

import (
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/apperr"
	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGenerateRecurrence(t *testing.T) {
	svc := NewRecurrenceService(zap.NewNop())
	anchor := time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)
	end := anchor.AddDate(0, 0, 13)

	rule, instances, err := svc.GenerateRecurrence(model.RecurrenceRule{
		Frequency: model.FrequencyWeekly,
		Weekdays:  []int{1, 3, 5},
		Anchor:    anchor,
		EndDate:   &end,
	}, 45*time.Minute)
	require.NoError(t, err)
	require.Len(t, instances, 6)
	assert.Equal(t, anchor.Add(45*time.Minute), instances[0].End)
	assert.NotEqual(t, uuid.Nil, rule.SeriesID)
}

func TestGenerateRecurrenceSeriesID(t *testing.T) {
	svc := NewRecurrenceService(zap.NewNop())
	anchor := time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)
	end := anchor.AddDate(0, 0, 2)
	base := model.RecurrenceRule{
		Frequency: model.FrequencyDaily,
		Anchor:    anchor,
		EndDate:   &end,
	}

	first, _, err := svc.GenerateRecurrence(base, time.Hour)
	require.NoError(t, err)
	second, _, err := svc.GenerateRecurrence(base, time.Hour)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, first.SeriesID)
	assert.NotEqual(t, first.SeriesID, second.SeriesID)

	given := base
	given.SeriesID = uuid.New()
	kept, instances, err := svc.GenerateRecurrence(given, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, given.SeriesID, kept.SeriesID)
	assert.Len(t, instances, 3)
}

func TestGenerateRecurrenceRejectsEmptyWeekdays(t *testing.T) {
	svc := NewRecurrenceService(zap.NewNop())

	_, _, err := svc.GenerateRecurrence(model.RecurrenceRule{
		Frequency:      model.FrequencyWeekly,
		Anchor:         time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC),
		UntilCancelled: true,
	}, time.Hour)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}
