package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds the invariants gorm tags cannot express
func MigrateConstraints(db *gorm.DB) error {
	// Released units can never exceed the provisioned total
	err := db.Exec(`
		DO $$
		BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_ticket_inventories_bounds') THEN
				ALTER TABLE ticket_inventories
				ADD CONSTRAINT chk_ticket_inventories_bounds CHECK (available <= total);
			END IF;
		END $$;
	`).Error
	if err != nil {
		return err
	}

	err = db.Exec(`
		DO $$
		BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_holds_status') THEN
				ALTER TABLE holds
				ADD CONSTRAINT chk_holds_status
				CHECK (status IN ('active', 'confirmed', 'expired', 'cancelled'));
			END IF;
		END $$;
	`).Error
	if err != nil {
		return err
	}

	// The sweep only ever scans active holds by deadline
	return db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_holds_active_expires
		ON holds (expires_at)
		WHERE status = 'active';
	`).Error
}
