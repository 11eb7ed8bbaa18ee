package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gravadigital/urna-cipa/internal/config"
	"github.com/gravadigital/urna-cipa/internal/logger"
	"github.com/gravadigital/urna-cipa/internal/services"
	"github.com/gravadigital/urna-cipa/internal/storage/migrations"
	"github.com/gravadigital/urna-cipa/internal/storage/postgres"
)

func main() {
	cfg := config.Load()

	logger.Initialize(cfg.Server.LogLevel, cfg.Server.LogFormat)
	log := logger.Migration()

	rollback := flag.Bool("rollback", false, "Rollback the last migration")
	status := flag.Bool("status", false, "List migrations and whether they are applied")
	importRoster := flag.String("import-roster", "", "After migrating, replace the roster with this CSV file")
	flag.Parse()

	log.Info("Starting migration process", "rollback", *rollback)

	db, err := postgres.Connect(cfg)
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer postgres.Close(db)

	if *status {
		entries, err := migrations.CurrentStatus(db)
		if err != nil {
			log.Error("Failed to read migration status", "error", err)
			os.Exit(1)
		}
		for _, e := range entries {
			applied := "pending"
			if e.AppliedAt != nil {
				applied = e.AppliedAt.Format(time.RFC3339)
			}
			fmt.Printf("%s  %-40s %s\n", e.ID, e.Name, applied)
		}
		return
	}

	if *rollback {
		log.Info("Rolling back migrations...")
		if err := migrations.RollbackMigration(db); err != nil {
			if errors.Is(err, migrations.ErrNothingToRollback) {
				log.Warn("Nothing to roll back")
				return
			}
			log.Error("Migration rollback failed", "error", err)
			os.Exit(1)
		}
		log.Info("Migration rollback completed successfully")
		return
	}

	log.Info("Running migrations...")
	if err := migrations.RunMigrations(db); err != nil {
		log.Error("Migration failed", "error", err)
		os.Exit(1)
	}
	log.Info("Migrations completed successfully")

	if *importRoster != "" {
		roster := services.NewRosterService(postgres.NewPostgresEmployeeRepository(db), cfg.Roster.Delimiter)
		count, err := roster.ImportRosterFile(context.Background(), *importRoster)
		if err != nil {
			log.Error("Roster import failed", "path", *importRoster, "error", err)
			os.Exit(1)
		}
		fmt.Printf("%d colaboradores importados com sucesso!\n", count)
	}

	fmt.Println("Migration process completed!")
}
