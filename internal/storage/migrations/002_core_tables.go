package migrations

import (
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/gravadigital/urna-cipa/internal/domain/candidate"
	"github.com/gravadigital/urna-cipa/internal/domain/employee"
	"github.com/gravadigital/urna-cipa/internal/domain/ledger"
)

// AllModels lists every table owned by the application
func AllModels() []interface{} {
	return []interface{}{
		&employee.Employee{},
		&candidate.Candidate{},
		&ledger.VoterLog{},
	}
}

// migration002Up creates all core tables using GORM AutoMigrate
func migration002Up(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}

// migration002Down drops all core tables
func migration002Down(db *gorm.DB) error {
	tables := []string{
		"voter_logs",
		"candidates",
		"employees",
	}

	for _, table := range tables {
		if err := db.Exec("DROP TABLE IF EXISTS " + pq.QuoteIdentifier(table) + " CASCADE").Error; err != nil {
			return err
		}
	}

	return nil
}
