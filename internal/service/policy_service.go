package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/trainer_scheduler/internal/apperr"
	"github.com/Freeeeeet/trainer_scheduler/internal/events"
	"github.com/Freeeeeet/trainer_scheduler/internal/lock"
	"github.com/Freeeeeet/trainer_scheduler/internal/model"
	"github.com/Freeeeeet/trainer_scheduler/internal/policy"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const policyLockScope = "policy"

type PolicyService struct {
	store     PolicyStore
	locker    lock.Locker
	publisher events.Publisher
	defaults  policy.Defaults
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

func NewPolicyService(store PolicyStore, locker lock.Locker, publisher events.Publisher, defaults policy.Defaults, logger *zap.Logger) *PolicyService {
	return &PolicyService{
		store:     store,
		locker:    locker,
		publisher: publisher,
		defaults:  defaults,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// GetOrCreateDefaultPolicy возвращает политику владельца, при первом обращении создаёт её со значениями по умолчанию
func (s *PolicyService) GetOrCreateDefaultPolicy(ctx context.Context, ownerID string) (cfg *model.PolicyConfig, err error) {
	ctx, span := startSpan(ctx, "PolicyService.GetOrCreateDefaultPolicy", ownerID)
	defer func() { finishSpan(span, err) }()

	cfg, err = s.store.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("get policy: %w", err)
	}
	if cfg != nil {
		return cfg, nil
	}

	now := s.now()
	fresh := s.defaults.NewConfig(ownerID)
	fresh.ID = s.newID()
	fresh.CreatedAt = now
	fresh.UpdatedAt = now

	cfg, err = s.store.CreateIfAbsent(ctx, fresh)
	if err != nil {
		return nil, fmt.Errorf("create default policy: %w", err)
	}

	if cfg.ID == fresh.ID {
		s.logger.Info("Default cancellation policy created",
			zap.String("owner_id", ownerID),
			zap.String("policy_id", cfg.ID),
		)
	}

	return cfg, nil
}

// UpdatePolicy применяет частичное обновление
func (s *PolicyService) UpdatePolicy(ctx context.Context, ownerID string, patch model.PolicyPatch) (cfg *model.PolicyConfig, err error) {
	ctx, span := startSpan(ctx, "PolicyService.UpdatePolicy", ownerID)
	defer func() { finishSpan(span, err) }()

	if err := policy.ValidatePatch(patch); err != nil {
		return nil, err
	}

	return s.mutate(ctx, ownerID, func(current model.PolicyConfig, now time.Time) (model.PolicyConfig, error) {
		if patch.Exceptions != nil {
			exceptions := make([]model.PolicyException, len(*patch.Exceptions))
			copy(exceptions, *patch.Exceptions)
			for i := range exceptions {
				s.stampException(&exceptions[i], now)
			}
			patch.Exceptions = &exceptions
		}
		return policy.ApplyPatch(current, patch, now), nil
	})
}

// AddException добавляет исключение в конец списка, то есть с самым низким приоритетом
func (s *PolicyService) AddException(ctx context.Context, ownerID string, exc model.PolicyException) (added *model.PolicyException, err error) {
	ctx, span := startSpan(ctx, "PolicyService.AddException", ownerID, attribute.String("exception.kind", string(exc.Kind)))
	defer func() { finishSpan(span, err) }()

	if err := policy.ValidateException(exc); err != nil {
		return nil, err
	}

	exc.ID = ""
	_, err = s.mutate(ctx, ownerID, func(current model.PolicyConfig, now time.Time) (model.PolicyConfig, error) {
		s.stampException(&exc, now)
		current.Exceptions = append(append([]model.PolicyException{}, current.Exceptions...), exc)
		current.UpdatedAt = now
		return current, nil
	})
	if err != nil {
		return nil, err
	}

	return &exc, nil
}

// RemoveException удаляет исключение по ID
func (s *PolicyService) RemoveException(ctx context.Context, ownerID, exceptionID string) (err error) {
	ctx, span := startSpan(ctx, "PolicyService.RemoveException", ownerID, attribute.String("exception.id", exceptionID))
	defer func() { finishSpan(span, err) }()

	_, err = s.mutate(ctx, ownerID, func(current model.PolicyConfig, now time.Time) (model.PolicyConfig, error) {
		kept := make([]model.PolicyException, 0, len(current.Exceptions))
		for _, exc := range current.Exceptions {
			if exc.ID != exceptionID {
				kept = append(kept, exc)
			}
		}
		if len(kept) == len(current.Exceptions) {
			return current, apperr.NotFound("policy exception not found").Arg("exception_id", exceptionID)
		}
		current.Exceptions = kept
		current.UpdatedAt = now
		return current, nil
	})
	return err
}

// ListOwners владельцы с сохранённой политикой, для фоновых задач
func (s *PolicyService) ListOwners(ctx context.Context) ([]string, error) {
	owners, err := s.store.ListOwners(ctx)
	if err != nil {
		return nil, fmt.Errorf("list owners: %w", err)
	}
	return owners, nil
}

// mutate единственная точка записи политики: блокировка владельца, чтение, изменение,
// запись с проверкой версии
func (s *PolicyService) mutate(ctx context.Context, ownerID string, fn func(current model.PolicyConfig, now time.Time) (model.PolicyConfig, error)) (*model.PolicyConfig, error) {
	unlock, err := s.locker.Lock(ctx, lock.OwnerKey(policyLockScope, ownerID))
	if err != nil {
		return nil, fmt.Errorf("lock policy: %w", err)
	}
	defer unlock()

	current, err := s.GetOrCreateDefaultPolicy(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	next, err := fn(*current, now)
	if err != nil {
		return nil, err
	}
	next.ID = current.ID
	next.OwnerID = current.OwnerID
	next.Version = current.Version
	next.CreatedAt = current.CreatedAt

	updated, err := s.store.Update(ctx, next)
	if err != nil {
		return nil, fmt.Errorf("update policy: %w", err)
	}

	s.logger.Info("Cancellation policy updated",
		zap.String("owner_id", ownerID),
		zap.Int64("version", updated.Version),
		zap.Bool("active", updated.Active),
		zap.Int("exceptions", len(updated.Exceptions)),
	)

	unlock()
	publish(ctx, s.publisher, s.logger, events.New(events.TypePolicyUpdated, ownerID, ownerID, now, updated))

	return updated, nil
}

func (s *PolicyService) stampException(exc *model.PolicyException, now time.Time) {
	if exc.ID == "" {
		exc.ID = s.newID()
	}
	if exc.CreatedAt.IsZero() {
		exc.CreatedAt = now
	}
	exc.UpdatedAt = now
}
