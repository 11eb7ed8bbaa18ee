package migrations

import (
	"gorm.io/gorm"

	"github.com/gravadigital/urna-cipa/internal/domain/candidate"
)

// migration005Up makes sure the blank vote is always on the ballot
func migration005Up(db *gorm.DB) error {
	return db.Exec(`
        INSERT INTO candidates (id, number, name, department, votes_count, created_at)
        VALUES (gen_random_uuid(), ?, ?, ?, 0, NOW())
        ON CONFLICT (number) DO NOTHING`,
		candidate.BlankVoteNumber, candidate.BlankVoteName, candidate.BlankVoteDepartment,
	).Error
}

func migration005Down(db *gorm.DB) error {
	return db.Exec("DELETE FROM candidates WHERE number = ? AND votes_count = 0", candidate.BlankVoteNumber).Error
}
