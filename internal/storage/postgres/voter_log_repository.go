package postgres

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"

	"github.com/gravadigital/urna-cipa/internal/domain/ledger"
	"github.com/gravadigital/urna-cipa/internal/logger"
)

// PostgresVoterLogRepository implements VoterLogRepository using GORM
type PostgresVoterLogRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresVoterLogRepository creates a new PostgreSQL voter log repository
func NewPostgresVoterLogRepository(db *gorm.DB) *PostgresVoterLogRepository {
	return &PostgresVoterLogRepository{
		db:  db,
		log: logger.Repository("voter_log"),
	}
}

// Create relies on the unique index on cpf; a concurrent insert of the same
// CPF blocks until the other transaction finishes and then conflicts.
func (r *PostgresVoterLogRepository) Create(ctx context.Context, entry *ledger.VoterLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		if isUniqueViolation(err) {
			return ledger.ErrDuplicateVoter
		}
		r.log.Error("Failed to append voter log", "error", err)
		return fmt.Errorf("failed to append voter log: %w", err)
	}
	return nil
}

func (r *PostgresVoterLogRepository) ExistsByCPF(ctx context.Context, cpf string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&ledger.VoterLog{}).Where("cpf = ?", cpf).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check voter log: %w", err)
	}
	return count > 0, nil
}

func (r *PostgresVoterLogRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&ledger.VoterLog{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count voter logs: %w", err)
	}
	return count, nil
}

func (r *PostgresVoterLogRepository) ListRecent(ctx context.Context) ([]*ledger.VoterLog, error) {
	var entries []*ledger.VoterLog
	if err := r.db.WithContext(ctx).Order("timestamp DESC").Find(&entries).Error; err != nil {
		r.log.Error("Failed to list voter logs", "error", err)
		return nil, fmt.Errorf("failed to list voter logs: %w", err)
	}
	return entries, nil
}
