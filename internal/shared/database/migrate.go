package database

import (
	"ticketholds/internal/holds"
	"ticketholds/internal/inventory"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&inventory.TicketInventory{},
		&holds.Hold{},
	)
}
