package model

import "time"

type AlertSeverity string

const (
	AlertSeverityWarning  AlertSeverity = "warning"
	AlertSeverityCritical AlertSeverity = "critical"
)

// NoShowAlert алерт по клиенту. На клиента не больше одного алерта,
// алерты не удаляются, только деактивируются.
type NoShowAlert struct {
	ID           string        `json:"id"`
	OwnerID      string        `json:"owner_id"`
	Client       ClientRef     `json:"client"`
	Severity     AlertSeverity `json:"severity"`
	Message      string        `json:"message"`
	NoShowCount  int           `json:"no_show_count"`
	LastNoShowAt time.Time     `json:"last_no_show_at"`
	Active       bool          `json:"active"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}
