package migrations

import "gorm.io/gorm"

// migration003Up adds the indexes behind the admin listings
func migration003Up(db *gorm.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_voter_logs_timestamp ON voter_logs(timestamp DESC)",
		"CREATE INDEX IF NOT EXISTS idx_candidates_ranking ON candidates(votes_count DESC, created_at ASC)",
		"CREATE INDEX IF NOT EXISTS idx_employees_active ON employees(active) WHERE active",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			return err
		}
	}

	return nil
}

func migration003Down(db *gorm.DB) error {
	indexes := []string{
		"DROP INDEX IF EXISTS idx_employees_active",
		"DROP INDEX IF EXISTS idx_candidates_ranking",
		"DROP INDEX IF EXISTS idx_voter_logs_timestamp",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			return err
		}
	}

	return nil
}
