package model

import (
	"time"

	"github.com/google/uuid"
)

type Frequency string

const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
)

// RecurrenceRule правило повторения серии записей. После создания не меняется:
// чтобы изменить серию, создаётся новое правило с новым SeriesID.
type RecurrenceRule struct {
	SeriesID       uuid.UUID  `json:"series_id"`
	Frequency      Frequency  `json:"frequency" validate:"required,oneof=daily weekly biweekly monthly"`
	Weekdays       []int      `json:"weekdays" validate:"required_if=Frequency weekly,dive,gte=0,lte=6"` // 0 = Sunday, 6 = Saturday
	Anchor         time.Time  `json:"anchor" validate:"required"`
	EndDate        *time.Time `json:"end_date"`
	UntilCancelled bool       `json:"until_cancelled"`
}

// Instance конкретная сессия, сгенерированная правилом
type Instance struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}
