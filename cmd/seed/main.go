package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"ticketholds/internal/inventory"
	"ticketholds/internal/shared/config"
	"ticketholds/internal/shared/database"
	"ticketholds/pkg/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// SeedFile is the provisioning manifest
//
//	ticketTypes:
//	  - id: vip
//	    eventId: concert-1
//	    total: 100
type SeedFile struct {
	TicketTypes []TicketTypeSeed `yaml:"ticketTypes"`
}

type TicketTypeSeed struct {
	ID      string `yaml:"id"`
	EventID string `yaml:"eventId"`
	Total   int    `yaml:"total"`
}

type Seeder struct {
	pool         inventory.Pool
	skipExisting bool
}

func main() {
	file := pflag.StringP("file", "f", "inventory.yaml", "YAML manifest of ticket types to provision")
	skipExisting := pflag.Bool("skip-existing", true, "treat already provisioned ticket types as success")
	dryRun := pflag.Bool("dry-run", false, "validate the manifest without writing")
	pflag.Parse()

	manifest, err := loadManifest(*file)
	if err != nil {
		log.Fatalf("Failed to load manifest: %v", err)
	}
	fmt.Printf("Loaded %d ticket types from %s\n", len(manifest.TicketTypes), *file)

	if *dryRun {
		fmt.Println("Dry run: manifest is valid")
		return
	}

	_ = godotenv.Load()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	pool, err := openPool(cfg, db)
	if err != nil {
		log.Fatalf("Failed to open inventory: %v", err)
	}

	seeder := &Seeder{pool: pool, skipExisting: *skipExisting}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := seeder.SeedAll(ctx, manifest.TicketTypes); err != nil {
		log.Fatalf("Failed to seed inventory: %v", err)
	}
	fmt.Println("Inventory seeded successfully")
}

func loadManifest(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var manifest SeedFile
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := manifest.Validate(); err != nil {
		return nil, err
	}
	return &manifest, nil
}

// Validate rejects entries the pool would refuse, before anything is written
func (f *SeedFile) Validate() error {
	seen := make(map[string]struct{}, len(f.TicketTypes))
	for i, tt := range f.TicketTypes {
		switch {
		case tt.ID == "":
			return fmt.Errorf("ticketTypes[%d]: id is required", i)
		case tt.EventID == "":
			return fmt.Errorf("ticketTypes[%d]: eventId is required", i)
		case tt.Total < 0:
			return fmt.Errorf("ticketTypes[%d]: total must not be negative", i)
		}
		if _, dup := seen[tt.ID]; dup {
			return fmt.Errorf("ticketTypes[%d]: duplicate id %q", i, tt.ID)
		}
		seen[tt.ID] = struct{}{}
	}
	return nil
}

// openPool opens the durable inventory backend the service is configured with
func openPool(cfg *config.Config, db *database.DB) (inventory.Pool, error) {
	log := logger.GetDefault()
	switch cfg.Holds.InventoryBackend {
	case config.BackendPostgres:
		return inventory.NewPostgresPool(db.GetPostgreSQL(), log), nil
	case config.BackendRedis:
		return inventory.NewRedisPool(db.GetRedis(), log), nil
	default:
		return nil, fmt.Errorf("inventory backend %q is not persistent; nothing to seed", cfg.Holds.InventoryBackend)
	}
}

func (s *Seeder) SeedAll(ctx context.Context, ticketTypes []TicketTypeSeed) error {
	created, skipped := 0, 0
	for _, tt := range ticketTypes {
		snapshot, err := s.pool.Provision(ctx, tt.ID, tt.EventID, tt.Total)
		switch {
		case errors.Is(err, inventory.ErrAlreadyProvisioned) && s.skipExisting:
			skipped++
			fmt.Printf("  - %s already provisioned, skipping\n", tt.ID)
			continue
		case err != nil:
			return fmt.Errorf("ticket type %s: %w", tt.ID, err)
		}
		created++
		fmt.Printf("  + %s (event %s): %d available\n", snapshot.TicketTypeID, snapshot.EventID, snapshot.Available)
	}

	fmt.Printf("Provisioned %d ticket types, skipped %d\n", created, skipped)
	return nil
}
