package model

import "time"

type CancellationReason string

const (
	CancellationReasonClient  CancellationReason = "client"
	CancellationReasonTrainer CancellationReason = "trainer"
	CancellationReasonOther   CancellationReason = "other"
)

// CancellationRecord запись журнала отмен. После создания не меняется.
type CancellationRecord struct {
	ID                  string             `json:"id"`
	OwnerID             string             `json:"owner_id"`
	AppointmentID       string             `json:"appointment_id"`
	Client              ClientRef          `json:"client"`
	SessionTime         time.Time          `json:"session_time"`
	CancelledAt         time.Time          `json:"cancelled_at"`
	NoticeHours         float64            `json:"notice_hours"`
	RequiredNoticeHours float64            `json:"required_notice_hours"`
	IsLate              bool               `json:"is_late"`
	Penalty             PenaltyKind        `json:"penalty"`
	MatchedExceptionID  *string            `json:"matched_exception_id"`
	Reason              CancellationReason `json:"reason"`
	Note                string             `json:"note"`
	CreatedAt           time.Time          `json:"created_at"`
}

// ClientCompliance соблюдение политики одним клиентом
type ClientCompliance struct {
	Client             ClientRef `json:"client"`
	TotalCancellations int       `json:"total_cancellations"`
	LateCancellations  int       `json:"late_cancellations"`
	ComplianceRate     int       `json:"compliance_rate"`
}

// ComplianceStatistics сводка по соблюдению политики отмены за период
type ComplianceStatistics struct {
	Period              string             `json:"period"`
	TotalCancellations  int                `json:"total_cancellations"`
	LateCancellations   int                `json:"late_cancellations"`
	OnTimeCancellations int                `json:"on_time_cancellations"`
	ComplianceRate      int                `json:"compliance_rate"`
	AverageNoticeHours  float64            `json:"average_notice_hours"`
	PenaltiesApplied    int                `json:"penalties_applied"`
	ExceptionsApplied   int                `json:"exceptions_applied"`
	PerClient           []ClientCompliance `json:"per_client"`
}
