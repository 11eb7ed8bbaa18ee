package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gravadigital/urna-cipa/internal/domain/candidate"
	"github.com/gravadigital/urna-cipa/internal/logger"
)

// PostgresCandidateRepository implements CandidateRepository using GORM
type PostgresCandidateRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresCandidateRepository creates a new PostgreSQL candidate repository
func NewPostgresCandidateRepository(db *gorm.DB) *PostgresCandidateRepository {
	return &PostgresCandidateRepository{
		db:  db,
		log: logger.Repository("candidate"),
	}
}

func (r *PostgresCandidateRepository) Create(ctx context.Context, c *candidate.Candidate) error {
	r.log.Debug("Creating candidate", "number", c.Number, "name", c.Name)

	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		if isUniqueViolation(err) {
			r.log.Debug("Candidate number already in use", "number", c.Number)
			return candidate.ErrNumberTaken
		}
		r.log.Error("Failed to create candidate", "number", c.Number, "error", err)
		return fmt.Errorf("failed to create candidate: %w", err)
	}

	r.log.Info("Candidate created successfully", "id", c.ID, "number", c.Number)
	return nil
}

func (r *PostgresCandidateRepository) GetByNumber(ctx context.Context, number int) (*candidate.Candidate, error) {
	var c candidate.Candidate
	if err := r.db.WithContext(ctx).Where("number = ?", number).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			r.log.Debug("Candidate not found", "number", number)
			return nil, candidate.ErrNotFound
		}
		r.log.Error("Failed to get candidate by number", "number", number, "error", err)
		return nil, fmt.Errorf("failed to get candidate by number: %w", err)
	}
	return &c, nil
}

func (r *PostgresCandidateRepository) NumberExists(ctx context.Context, number int) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&candidate.Candidate{}).Where("number = ?", number).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check candidate number: %w", err)
	}
	return count > 0, nil
}

func (r *PostgresCandidateRepository) ListRanked(ctx context.Context) ([]*candidate.Candidate, error) {
	var candidates []*candidate.Candidate
	if err := r.db.WithContext(ctx).
		Order("votes_count DESC").
		Order("created_at ASC").
		Find(&candidates).Error; err != nil {
		r.log.Error("Failed to list candidates", "error", err)
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}

	r.log.Debug("Retrieved ranked candidates", "count", len(candidates))
	return candidates, nil
}

// IncrementVotes is a single UPDATE so concurrent votes never lose an increment.
func (r *PostgresCandidateRepository) IncrementVotes(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&candidate.Candidate{}).
		Where("id = ?", id).
		UpdateColumn("votes_count", gorm.Expr("votes_count + ?", 1))
	if result.Error != nil {
		r.log.Error("Failed to increment votes", "candidate_id", id, "error", result.Error)
		return fmt.Errorf("failed to increment votes: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return candidate.ErrNotFound
	}
	return nil
}
