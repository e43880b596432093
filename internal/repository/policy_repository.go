package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Freeeeeet/trainer_scheduler/internal/apperr"
	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/Freeeeeet/trainer_scheduler/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

// PolicyRepository политики отмены, одна строка на владельца.
// Исключения хранятся упорядоченным JSONB-массивом, version защищает от потерянных обновлений.
type PolicyRepository struct {
	*base.Repository
}

func NewPolicyRepository(b *base.Repository) *PolicyRepository {
	return &PolicyRepository{Repository: b}
}

const policyColumns = `id, owner_id, active, minimum_notice_hours, no_show_penalty, no_show_penalty_kind,
	alert_threshold, penalty_threshold, auto_mark_no_show, grace_minutes, notify_on_create, policy_message,
	apply_late_cancellation_penalty, late_cancellation_penalty_kind, exceptions, version, created_at, updated_at`

// GetByOwner возвращает политику владельца или nil, если её ещё нет
func (r *PolicyRepository) GetByOwner(ctx context.Context, ownerID string) (*model.PolicyConfig, error) {
	query := `SELECT ` + policyColumns + ` FROM cancellation_policies WHERE owner_id = $1`

	cfg, err := scanPolicy(r.Pool().QueryRow(ctx, query, ownerID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get policy by owner: %w", err)
	}
	return cfg, nil
}

// CreateIfAbsent сохраняет политику, если у владельца её нет, и возвращает действующую.
// При гонке двух создателей оба получат одну и ту же строку.
func (r *PolicyRepository) CreateIfAbsent(ctx context.Context, cfg model.PolicyConfig) (*model.PolicyConfig, error) {
	exceptions, err := marshalExceptions(cfg.Exceptions)
	if err != nil {
		return nil, err
	}

	query := `
		INSERT INTO cancellation_policies (
			id, owner_id, active, minimum_notice_hours, no_show_penalty, no_show_penalty_kind,
			alert_threshold, penalty_threshold, auto_mark_no_show, grace_minutes, notify_on_create, policy_message,
			apply_late_cancellation_penalty, late_cancellation_penalty_kind, exceptions, version, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, 1, $16, $16)
		ON CONFLICT (owner_id) DO NOTHING
		RETURNING ` + policyColumns

	created, err := scanPolicy(r.Pool().QueryRow(ctx, query,
		cfg.ID,
		cfg.OwnerID,
		cfg.Active,
		cfg.MinimumNoticeHours,
		cfg.NoShowPenalty,
		cfg.NoShowPenaltyKind,
		cfg.AlertThreshold,
		cfg.PenaltyThreshold,
		cfg.AutoMarkNoShow,
		cfg.GraceMinutes,
		cfg.NotifyOnCreate,
		cfg.PolicyMessage,
		cfg.ApplyLateCancellationPenalty,
		cfg.LateCancellationPenaltyKind,
		exceptions,
		cfg.CreatedAt,
	))
	if err == nil {
		return created, nil
	}
	if !base.IsNotFound(err) {
		return nil, fmt.Errorf("create policy: %w", err)
	}

	// Строку успел вставить кто-то другой
	existing, err := r.GetByOwner(ctx, cfg.OwnerID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("create policy: row vanished after conflict")
	}
	return existing, nil
}

// Update сохраняет политику, если версия в базе всё ещё равна cfg.Version.
// Возвращает политику с новой версией или ErrConcurrentModification.
func (r *PolicyRepository) Update(ctx context.Context, cfg model.PolicyConfig) (*model.PolicyConfig, error) {
	exceptions, err := marshalExceptions(cfg.Exceptions)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE cancellation_policies SET
			active = $1,
			minimum_notice_hours = $2,
			no_show_penalty = $3,
			no_show_penalty_kind = $4,
			alert_threshold = $5,
			penalty_threshold = $6,
			auto_mark_no_show = $7,
			grace_minutes = $8,
			notify_on_create = $9,
			policy_message = $10,
			apply_late_cancellation_penalty = $11,
			late_cancellation_penalty_kind = $12,
			exceptions = $13,
			updated_at = $14,
			version = version + 1
		WHERE owner_id = $15 AND version = $16
		RETURNING ` + policyColumns

	updated, err := scanPolicy(r.Pool().QueryRow(ctx, query,
		cfg.Active,
		cfg.MinimumNoticeHours,
		cfg.NoShowPenalty,
		cfg.NoShowPenaltyKind,
		cfg.AlertThreshold,
		cfg.PenaltyThreshold,
		cfg.AutoMarkNoShow,
		cfg.GraceMinutes,
		cfg.NotifyOnCreate,
		cfg.PolicyMessage,
		cfg.ApplyLateCancellationPenalty,
		cfg.LateCancellationPenaltyKind,
		exceptions,
		cfg.UpdatedAt,
		cfg.OwnerID,
		cfg.Version,
	))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, apperr.ConcurrentModification("policy was changed concurrently").
				Arg("owner_id", cfg.OwnerID).
				Arg("version", cfg.Version)
		}
		return nil, fmt.Errorf("update policy: %w", err)
	}
	return updated, nil
}

// ListOwners владельцы, у которых сохранена политика
func (r *PolicyRepository) ListOwners(ctx context.Context) ([]string, error) {
	rows, err := r.Pool().Query(ctx, `SELECT owner_id FROM cancellation_policies ORDER BY owner_id`)
	if err != nil {
		return nil, fmt.Errorf("list policy owners: %w", err)
	}
	defer rows.Close()

	owners, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan policy owner: %w", err)
	}
	return owners, nil
}

func marshalExceptions(exceptions []model.PolicyException) ([]byte, error) {
	if exceptions == nil {
		exceptions = []model.PolicyException{}
	}
	data, err := json.Marshal(exceptions)
	if err != nil {
		return nil, fmt.Errorf("marshal policy exceptions: %w", err)
	}
	return data, nil
}

func scanPolicy(row pgx.Row) (*model.PolicyConfig, error) {
	var (
		cfg        model.PolicyConfig
		exceptions []byte
	)
	err := row.Scan(
		&cfg.ID,
		&cfg.OwnerID,
		&cfg.Active,
		&cfg.MinimumNoticeHours,
		&cfg.NoShowPenalty,
		&cfg.NoShowPenaltyKind,
		&cfg.AlertThreshold,
		&cfg.PenaltyThreshold,
		&cfg.AutoMarkNoShow,
		&cfg.GraceMinutes,
		&cfg.NotifyOnCreate,
		&cfg.PolicyMessage,
		&cfg.ApplyLateCancellationPenalty,
		&cfg.LateCancellationPenaltyKind,
		&exceptions,
		&cfg.Version,
		&cfg.CreatedAt,
		&cfg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	cfg.Exceptions = []model.PolicyException{}
	if len(exceptions) > 0 {
		if err := json.Unmarshal(exceptions, &cfg.Exceptions); err != nil {
			return nil, fmt.Errorf("unmarshal policy exceptions: %w", err)
		}
	}
	return &cfg, nil
}
