package holds

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Repository is the Hold Record Store. Transition is the only way a hold's
// status changes and must be a single atomic compare-and-set.
type Repository interface {
	Create(ctx context.Context, hold *Hold) error
	FindByID(ctx context.Context, id string) (*Hold, error)
	FindByEvent(ctx context.Context, eventID string, status *Status) ([]Hold, error)
	// FindExpiredActive returns up to limit active holds with expiresAt <= now, oldest first
	FindExpiredActive(ctx context.Context, now time.Time, limit int) ([]Hold, error)
	// Transition moves the hold from -> to, or fails with ErrTransitionConflict
	Transition(ctx context.Context, id string, from, to Status, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, hold *Hold) error {
	if err := r.db.WithContext(ctx).Create(hold).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateHold
		}
		return fmt.Errorf("failed to create hold: %w", err)
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, id string) (*Hold, error) {
	var hold Hold
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&hold).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrHoldNotFound
		}
		return nil, fmt.Errorf("failed to get hold: %w", err)
	}
	return &hold, nil
}

func (r *repository) FindByEvent(ctx context.Context, eventID string, status *Status) ([]Hold, error) {
	query := r.db.WithContext(ctx).Where("event_id = ?", eventID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var holds []Hold
	if err := query.Order("created_at ASC, id ASC").Find(&holds).Error; err != nil {
		return nil, fmt.Errorf("failed to list holds: %w", err)
	}
	return holds, nil
}

func (r *repository) FindExpiredActive(ctx context.Context, now time.Time, limit int) ([]Hold, error) {
	query := r.db.WithContext(ctx).
		Where("status = ? AND expires_at <= ?", StatusActive, now).
		Order("expires_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var holds []Hold
	if err := query.Find(&holds).Error; err != nil {
		return nil, fmt.Errorf("failed to find expired holds: %w", err)
	}
	return holds, nil
}

func (r *repository) Transition(ctx context.Context, id string, from, to Status, at time.Time) error {
	if !to.IsValid() || from == to {
		return fmt.Errorf("%w: transition %s -> %s", ErrInvalidArgument, from, to)
	}

	result := r.db.WithContext(ctx).
		Model(&Hold{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": at,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to transition hold: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&Hold{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check hold: %w", err)
	}
	if count == 0 {
		return ErrHoldNotFound
	}
	return ErrTransitionConflict
}
