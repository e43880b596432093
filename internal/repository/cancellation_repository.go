package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/Freeeeeet/trainer_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

// CancellationRepository журнал отмен. Только вставка и чтение.
type CancellationRepository struct {
	*base.Repository
}

func NewCancellationRepository(b *base.Repository) *CancellationRepository {
	return &CancellationRepository{Repository: b}
}

// Append добавляет запись в журнал
func (r *CancellationRepository) Append(ctx context.Context, rec model.CancellationRecord) error {
	query := `
		INSERT INTO cancellation_records (
			id, owner_id, appointment_id, client_id, client_name, session_time, cancelled_at,
			notice_hours, required_notice_hours, is_late, penalty, matched_exception_id, reason, note, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := r.Pool().Exec(ctx, query,
		rec.ID,
		rec.OwnerID,
		rec.AppointmentID,
		rec.Client.ID,
		rec.Client.Name,
		rec.SessionTime,
		rec.CancelledAt,
		rec.NoticeHours,
		rec.RequiredNoticeHours,
		rec.IsLate,
		rec.Penalty,
		rec.MatchedExceptionID,
		rec.Reason,
		rec.Note,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append cancellation record: %w", err)
	}
	return nil
}

// List записи владельца с моментом отмены внутри окна, новые первыми
func (r *CancellationRepository) List(ctx context.Context, ownerID string, window model.Window) ([]model.CancellationRecord, error) {
	query := `
		SELECT id, owner_id, appointment_id, client_id, client_name, session_time, cancelled_at,
			notice_hours, required_notice_hours, is_late, penalty, matched_exception_id, reason, note, created_at
		FROM cancellation_records
		WHERE owner_id = $1 AND cancelled_at >= $2 AND cancelled_at <= $3
		ORDER BY cancelled_at DESC, created_at DESC
	`

	rows, err := r.Pool().Query(ctx, query, ownerID, window.From, window.To)
	if err != nil {
		return nil, fmt.Errorf("list cancellation records: %w", err)
	}
	defer rows.Close()

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.CancellationRecord, error) {
		var rec model.CancellationRecord
		err := row.Scan(
			&rec.ID,
			&rec.OwnerID,
			&rec.AppointmentID,
			&rec.Client.ID,
			&rec.Client.Name,
			&rec.SessionTime,
			&rec.CancelledAt,
			&rec.NoticeHours,
			&rec.RequiredNoticeHours,
			&rec.IsLate,
			&rec.Penalty,
			&rec.MatchedExceptionID,
			&rec.Reason,
			&rec.Note,
			&rec.CreatedAt,
		)
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan cancellation record: %w", err)
	}
	return records, nil
}
