package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"ticketholds/pkg/logger"
)

// PostgresPool keeps counters in the ticket_inventories table. Reserve is a
// single conditional UPDATE; Release locks the row so the clamp can be
// detected and logged.
type PostgresPool struct {
	db     *gorm.DB
	logger *logger.Logger
}

// NewPostgresPool returns a Pool backed by PostgreSQL
func NewPostgresPool(db *gorm.DB, log *logger.Logger) *PostgresPool {
	if log == nil {
		log = logger.GetDefault()
	}
	return &PostgresPool{db: db, logger: log}
}

func (p *PostgresPool) Reserve(ctx context.Context, ticketTypeID string, quantity int) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}

	result := p.db.WithContext(ctx).
		Model(&TicketInventory{}).
		Where("id = ? AND available >= ?", ticketTypeID, quantity).
		Updates(map[string]interface{}{
			"available":  gorm.Expr("available - ?", quantity),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("reserve inventory: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return nil
	}

	exists, err := p.exists(ctx, ticketTypeID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrTicketTypeNotFound, ticketTypeID)
	}
	return ErrInsufficientInventory
}

type releaseResult struct {
	Previous  int
	Available int
	Total     int
}

func (p *PostgresPool) Release(ctx context.Context, ticketTypeID string, quantity int) error {
	if err := validateQuantity(quantity); err != nil {
		return err
	}

	var rows []releaseResult
	err := p.db.WithContext(ctx).Raw(`
		WITH prev AS (
			SELECT id, available FROM ticket_inventories WHERE id = ? FOR UPDATE
		)
		UPDATE ticket_inventories AS t
		SET available = LEAST(t.total, t.available + ?), updated_at = ?
		FROM prev
		WHERE t.id = prev.id
		RETURNING prev.available AS previous, t.available AS available, t.total AS total
	`, ticketTypeID, quantity, time.Now().UTC()).Scan(&rows).Error
	if err != nil {
		return fmt.Errorf("release inventory: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: %s", ErrTicketTypeNotFound, ticketTypeID)
	}

	if rows[0].Previous+quantity > rows[0].Total {
		p.logger.LogReleaseClamped(ctx, ticketTypeID, quantity, rows[0].Total)
	}
	return nil
}

func (p *PostgresPool) Query(ctx context.Context, ticketTypeID string) (Snapshot, error) {
	var inv TicketInventory
	err := p.db.WithContext(ctx).Where("id = ?", ticketTypeID).First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Snapshot{}, fmt.Errorf("%w: %s", ErrTicketTypeNotFound, ticketTypeID)
		}
		return Snapshot{}, fmt.Errorf("query inventory: %w", err)
	}
	return inv.toSnapshot(), nil
}

func (p *PostgresPool) Provision(ctx context.Context, ticketTypeID, eventID string, total int) (Snapshot, error) {
	if total < 0 {
		return Snapshot{}, ErrInvalidQuantity
	}

	inv := &TicketInventory{
		ID:        ticketTypeID,
		EventID:   eventID,
		Total:     total,
		Available: total,
	}
	if err := p.db.WithContext(ctx).Create(inv).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return Snapshot{}, fmt.Errorf("%w: %s", ErrAlreadyProvisioned, ticketTypeID)
		}
		return Snapshot{}, fmt.Errorf("provision inventory: %w", err)
	}
	return inv.toSnapshot(), nil
}

func (p *PostgresPool) exists(ctx context.Context, ticketTypeID string) (bool, error) {
	var count int64
	if err := p.db.WithContext(ctx).Model(&TicketInventory{}).Where("id = ?", ticketTypeID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check inventory: %w", err)
	}
	return count > 0, nil
}
