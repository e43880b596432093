package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/Freeeeeet/trainer_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

// AlertRepository алерты no-show. Уникальный индекс (owner_id, client_id)
// гарантирует не больше одного алерта на клиента.
type AlertRepository struct {
	*base.Repository
}

func NewAlertRepository(b *base.Repository) *AlertRepository {
	return &AlertRepository{Repository: b}
}

const alertColumns = `id, owner_id, client_id, client_name, severity, message, no_show_count, last_no_show_at, active, created_at, updated_at`

// ListByOwner все алерты владельца, включая решённые
func (r *AlertRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.NoShowAlert, error) {
	return listAlerts(ctx, r.Pool(), ownerID, false)
}

// Sync читает алерты владельца под блокировкой строк, передаёт их в fn
// и сохраняет то, что fn вернул. Всё в одной транзакции.
func (r *AlertRepository) Sync(ctx context.Context, ownerID string, fn func(existing []model.NoShowAlert) ([]model.NoShowAlert, error)) error {
	return r.WithTx(ctx, func(tx pgx.Tx) error {
		existing, err := listAlerts(ctx, tx, ownerID, true)
		if err != nil {
			return err
		}

		changed, err := fn(existing)
		if err != nil {
			return err
		}

		for _, alert := range changed {
			if err := upsertAlert(ctx, tx, alert); err != nil {
				return err
			}
		}
		return nil
	})
}

func listAlerts(ctx context.Context, q base.Querier, ownerID string, forUpdate bool) ([]model.NoShowAlert, error) {
	query := `SELECT ` + alertColumns + ` FROM noshow_alerts WHERE owner_id = $1 ORDER BY created_at, id`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	rows, err := q.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	alerts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.NoShowAlert, error) {
		return scanAlert(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan alert: %w", err)
	}
	return alerts, nil
}

func upsertAlert(ctx context.Context, q base.Querier, alert model.NoShowAlert) error {
	query := `
		INSERT INTO noshow_alerts (` + alertColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (owner_id, client_id) DO UPDATE SET
			client_name = EXCLUDED.client_name,
			severity = EXCLUDED.severity,
			message = EXCLUDED.message,
			no_show_count = EXCLUDED.no_show_count,
			last_no_show_at = EXCLUDED.last_no_show_at,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
	`

	_, err := q.Exec(ctx, query,
		alert.ID,
		alert.OwnerID,
		alert.Client.ID,
		alert.Client.Name,
		alert.Severity,
		alert.Message,
		alert.NoShowCount,
		alert.LastNoShowAt,
		alert.Active,
		alert.CreatedAt,
		alert.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert alert: %w", err)
	}
	return nil
}

func scanAlert(row pgx.Row) (model.NoShowAlert, error) {
	var alert model.NoShowAlert
	err := row.Scan(
		&alert.ID,
		&alert.OwnerID,
		&alert.Client.ID,
		&alert.Client.Name,
		&alert.Severity,
		&alert.Message,
		&alert.NoShowCount,
		&alert.LastNoShowAt,
		&alert.Active,
		&alert.CreatedAt,
		&alert.UpdatedAt,
	)
	return alert, err
}
