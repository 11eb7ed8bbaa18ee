package migrations

import "gorm.io/gorm"

// migration004Up adds check constraints and makes voter_logs append-only
func migration004Up(db *gorm.DB) error {
	statements := []string{
		`ALTER TABLE candidates
            ADD CONSTRAINT chk_candidates_votes_non_negative CHECK (votes_count >= 0)`,

		`ALTER TABLE candidates
            ADD CONSTRAINT chk_candidates_number_range CHECK (number BETWEEN 0 AND 99)`,

		`ALTER TABLE voter_logs
            ADD CONSTRAINT chk_voter_logs_cpf_digits CHECK (cpf ~ '^[0-9]+$')`,

		`CREATE OR REPLACE FUNCTION reject_voter_log_changes()
        RETURNS TRIGGER AS $$
        BEGIN
            RAISE EXCEPTION 'voter_logs is append-only';
        END;
        $$ LANGUAGE plpgsql`,

		`CREATE TRIGGER trg_voter_logs_append_only
            BEFORE UPDATE OR DELETE ON voter_logs
            FOR EACH ROW EXECUTE FUNCTION reject_voter_log_changes()`,
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}

	return nil
}

func migration004Down(db *gorm.DB) error {
	statements := []string{
		"DROP TRIGGER IF EXISTS trg_voter_logs_append_only ON voter_logs",
		"DROP FUNCTION IF EXISTS reject_voter_log_changes()",
		"ALTER TABLE voter_logs DROP CONSTRAINT IF EXISTS chk_voter_logs_cpf_digits",
		"ALTER TABLE candidates DROP CONSTRAINT IF EXISTS chk_candidates_number_range",
		"ALTER TABLE candidates DROP CONSTRAINT IF EXISTS chk_candidates_votes_non_negative",
	}

	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}

	return nil
}
