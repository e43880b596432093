package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/Freeeeeet/trainer_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

// AppointmentRepository читает записи, которые ведёт слой бронирования.
// Из записи ядро меняет только статус: автопометка no-show.
type AppointmentRepository struct {
	*base.Repository
}

func NewAppointmentRepository(b *base.Repository) *AppointmentRepository {
	return &AppointmentRepository{Repository: b}
}

const appointmentColumns = `id, owner_id, client_id, client_name, start_time, end_time, status, session_type, series_id, created_at`

// GetAppointments записи владельца, начало которых попадает в окно
func (r *AppointmentRepository) GetAppointments(ctx context.Context, ownerID string, window model.Window, filter model.AppointmentFilter) ([]model.Appointment, error) {
	var (
		where = []string{"owner_id = $1", "start_time >= $2", "start_time <= $3"}
		args  = []any{ownerID, window.From, window.To}
	)

	if filter.ClientID != "" {
		args = append(args, filter.ClientID)
		where = append(where, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		args = append(args, statuses)
		where = append(where, fmt.Sprintf("status = ANY($%d)", len(args)))
	}

	query := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY start_time`

	rows, err := r.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get appointments: %w", err)
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		appts = append(appts, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate appointments: %w", err)
	}

	return appts, nil
}

// GetByID получает запись по ID
func (r *AppointmentRepository) GetByID(ctx context.Context, ownerID, id string) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE owner_id = $1 AND id = $2`

	appt, err := scanAppointment(r.Pool().QueryRow(ctx, query, ownerID, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get appointment by id: %w", err)
	}
	return &appt, nil
}

// MarkNoShow переводит открытые записи в no-show. Закрытые записи не трогает.
func (r *AppointmentRepository) MarkNoShow(ctx context.Context, ownerID string, ids []string, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `
		UPDATE appointments
		SET status = $1, updated_at = $2
		WHERE owner_id = $3 AND id = ANY($4) AND status IN ($5, $6)
	`

	affected, err := base.ExecAffected(ctx, r.Pool(), query,
		model.AppointmentStatusNoShow, now, ownerID, ids,
		model.AppointmentStatusScheduled, model.AppointmentStatusConfirmed,
	)
	if err != nil {
		return 0, fmt.Errorf("mark no-show: %w", err)
	}
	return affected, nil
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var appt model.Appointment
	err := row.Scan(
		&appt.ID,
		&appt.OwnerID,
		&appt.Client.ID,
		&appt.Client.Name,
		&appt.StartTime,
		&appt.EndTime,
		&appt.Status,
		&appt.SessionType,
		&appt.SeriesID,
		&appt.CreatedAt,
	)
	return appt, err
}
