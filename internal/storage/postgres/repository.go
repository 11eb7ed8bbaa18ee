package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/gravadigital/urna-cipa/internal/domain/candidate"
	"github.com/gravadigital/urna-cipa/internal/domain/employee"
	"github.com/gravadigital/urna-cipa/internal/domain/ledger"
)

// CandidateRepository persists ballot choices and their tallies.
type CandidateRepository interface {
	// Create returns candidate.ErrNumberTaken when the number is in use.
	Create(ctx context.Context, c *candidate.Candidate) error
	GetByNumber(ctx context.Context, number int) (*candidate.Candidate, error)
	NumberExists(ctx context.Context, number int) (bool, error)
	// ListRanked orders by votes descending, oldest registration first on ties.
	ListRanked(ctx context.Context) ([]*candidate.Candidate, error)
	IncrementVotes(ctx context.Context, id uuid.UUID) error
}

// EmployeeRepository persists the voter roster.
type EmployeeRepository interface {
	// ReplaceAll swaps the whole roster in one transaction.
	ReplaceAll(ctx context.Context, employees []*employee.Employee) error
	GetByCPF(ctx context.Context, cpf string) (*employee.Employee, error)
	Count(ctx context.Context) (int64, error)
	CountActive(ctx context.Context) (int64, error)
}

// VoterLogRepository is append-only.
type VoterLogRepository interface {
	// Create returns ledger.ErrDuplicateVoter when the CPF already voted.
	Create(ctx context.Context, entry *ledger.VoterLog) error
	ExistsByCPF(ctx context.Context, cpf string) (bool, error)
	Count(ctx context.Context) (int64, error)
	// ListRecent returns entries newest first.
	ListRecent(ctx context.Context) ([]*ledger.VoterLog, error)
}
