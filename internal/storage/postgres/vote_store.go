package postgres

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gravadigital/urna-cipa/internal/domain/candidate"
	"github.com/gravadigital/urna-cipa/internal/domain/employee"
	"github.com/gravadigital/urna-cipa/internal/domain/ledger"
	"github.com/gravadigital/urna-cipa/internal/domain/vote"
)

// VoteStore adapts the repositories to the voting core.
type VoteStore struct {
	db         *gorm.DB
	candidates *PostgresCandidateRepository
	employees  *PostgresEmployeeRepository
	voterLogs  *PostgresVoterLogRepository
}

var _ vote.Store = (*VoteStore)(nil)

// NewVoteStore creates a vote store backed by db
func NewVoteStore(db *gorm.DB) *VoteStore {
	return &VoteStore{
		db:         db,
		candidates: NewPostgresCandidateRepository(db),
		employees:  NewPostgresEmployeeRepository(db),
		voterLogs:  NewPostgresVoterLogRepository(db),
	}
}

func (s *VoteStore) HasVoted(ctx context.Context, cpf string) (bool, error) {
	return s.voterLogs.ExistsByCPF(ctx, cpf)
}

func (s *VoteStore) CandidateByNumber(ctx context.Context, number int) (*candidate.Candidate, error) {
	return s.candidates.GetByNumber(ctx, number)
}

func (s *VoteStore) RosterSize(ctx context.Context) (int64, error) {
	return s.employees.Count(ctx)
}

func (s *VoteStore) EmployeeByCPF(ctx context.Context, cpf string) (*employee.Employee, error) {
	return s.employees.GetByCPF(ctx, cpf)
}

func (s *VoteStore) WithinTransaction(ctx context.Context, fn func(tx vote.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&voteTx{
			candidates: NewPostgresCandidateRepository(tx),
			voterLogs:  NewPostgresVoterLogRepository(tx),
		})
	})
}

type voteTx struct {
	candidates *PostgresCandidateRepository
	voterLogs  *PostgresVoterLogRepository
}

func (t *voteTx) AppendVoterLog(ctx context.Context, entry *ledger.VoterLog) error {
	return t.voterLogs.Create(ctx, entry)
}

func (t *voteTx) IncrementVotes(ctx context.Context, candidateID uuid.UUID) error {
	return t.candidates.IncrementVotes(ctx, candidateID)
}
