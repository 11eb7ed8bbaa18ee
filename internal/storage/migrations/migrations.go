package migrations

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/gravadigital/urna-cipa/internal/logger"
)

// trackingTable records which steps of the ballot schema have been applied.
const trackingTable = "urna_schema_migrations"

// ErrNothingToRollback is returned by RollbackMigration on an empty schema.
var ErrNothingToRollback = errors.New("no migrations to rollback")

// Migration is one versioned step of the ballot schema
type Migration struct {
	ID   string
	Name string
	Up   func(*gorm.DB) error
	Down func(*gorm.DB) error
}

// Status reports whether a registered migration is applied
type Status struct {
	ID        string
	Name      string
	AppliedAt *time.Time
}

// Registered lists the schema steps in the order they must run
func Registered() []Migration {
	return []Migration{
		{ID: "001", Name: "enable_pgcrypto", Up: migration001Up, Down: migration001Down},
		{ID: "002", Name: "create_roster_candidates_voter_logs", Up: migration002Up, Down: migration002Down},
		{ID: "003", Name: "index_rankings_and_ledger", Up: migration003Up, Down: migration003Down},
		{ID: "004", Name: "guard_tallies_and_append_only_ledger", Up: migration004Up, Down: migration004Down},
		{ID: "005", Name: "seed_blank_vote", Up: migration005Up, Down: migration005Down},
	}
}

// pending keeps the registered order and drops what is already applied.
func pending(all []Migration, applied map[string]time.Time) []Migration {
	var out []Migration
	for _, m := range all {
		if _, ok := applied[m.ID]; !ok {
			out = append(out, m)
		}
	}
	return out
}

// RunMigrations applies every pending step, each in its own transaction
func RunMigrations(db *gorm.DB) error {
	log := logger.Migration()

	if err := ensureTrackingTable(db); err != nil {
		return fmt.Errorf("failed to create %s: %w", trackingTable, err)
	}
	applied, err := appliedAt(db)
	if err != nil {
		return err
	}

	todo := pending(Registered(), applied)
	if len(todo) == 0 {
		log.Debug("Ballot schema is up to date", "applied", len(applied))
		return nil
	}

	for _, m := range todo {
		log.Info("Applying migration", "id", m.ID, "name", m.Name)
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.Up(tx); err != nil {
				return fmt.Errorf("migration %s (%s): %w", m.ID, m.Name, err)
			}
			return tx.Exec("INSERT INTO "+trackingTable+" (id, name) VALUES (?, ?)", m.ID, m.Name).Error
		})
		if err != nil {
			return err
		}
	}

	log.Info("Ballot schema migrated", "applied_now", len(todo))
	return nil
}

// RollbackMigration reverts the most recent step by id
func RollbackMigration(db *gorm.DB) error {
	log := logger.Migration()

	if err := ensureTrackingTable(db); err != nil {
		return fmt.Errorf("failed to create %s: %w", trackingTable, err)
	}
	applied, err := appliedAt(db)
	if err != nil {
		return err
	}

	all := Registered()
	for i := len(all) - 1; i >= 0; i-- {
		m := all[i]
		if _, ok := applied[m.ID]; !ok {
			continue
		}

		log.Info("Rolling back migration", "id", m.ID, "name", m.Name)
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.Down(tx); err != nil {
				return fmt.Errorf("rollback %s (%s): %w", m.ID, m.Name, err)
			}
			return tx.Exec("DELETE FROM "+trackingTable+" WHERE id = ?", m.ID).Error
		})
		if err != nil {
			return err
		}
		log.Info("Rolled back migration", "id", m.ID)
		return nil
	}

	return ErrNothingToRollback
}

// CurrentStatus lists every registered step with its applied time, if any
func CurrentStatus(db *gorm.DB) ([]Status, error) {
	if err := ensureTrackingTable(db); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", trackingTable, err)
	}
	applied, err := appliedAt(db)
	if err != nil {
		return nil, err
	}

	all := Registered()
	out := make([]Status, 0, len(all))
	for _, m := range all {
		s := Status{ID: m.ID, Name: m.Name}
		if at, ok := applied[m.ID]; ok {
			s.AppliedAt = &at
		}
		out = append(out, s)
	}
	return out, nil
}

func ensureTrackingTable(db *gorm.DB) error {
	return db.Exec(`CREATE TABLE IF NOT EXISTS ` + trackingTable + ` (
		id VARCHAR(10) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`).Error
}

func appliedAt(db *gorm.DB) (map[string]time.Time, error) {
	var rows []struct {
		ID        string
		AppliedAt time.Time
	}
	if err := db.Raw("SELECT id, applied_at FROM " + trackingTable).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", trackingTable, err)
	}

	applied := make(map[string]time.Time, len(rows))
	for _, r := range rows {
		applied[r.ID] = r.AppliedAt
	}
	return applied, nil
}
