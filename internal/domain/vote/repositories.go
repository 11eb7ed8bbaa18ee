package vote

import (
	"context"

	"github.com/google/uuid"

	"github.com/gravadigital/urna-cipa/internal/domain/candidate"
	"github.com/gravadigital/urna-cipa/internal/domain/employee"
	"github.com/gravadigital/urna-cipa/internal/domain/ledger"
)

// Store is the persistence the voting core reads from.
//
// Lookups return candidate.ErrNotFound / employee.ErrNotFound when nothing matches.
type Store interface {
	HasVoted(ctx context.Context, cpf string) (bool, error)
	CandidateByNumber(ctx context.Context, number int) (*candidate.Candidate, error)
	RosterSize(ctx context.Context) (int64, error)
	EmployeeByCPF(ctx context.Context, cpf string) (*employee.Employee, error)

	// WithinTransaction commits the writes made through tx only if fn returns nil.
	WithinTransaction(ctx context.Context, fn func(tx Tx) error) error
}

// Tx holds the writes of one vote.
type Tx interface {
	// AppendVoterLog must return ledger.ErrDuplicateVoter when the CPF is
	// already present, including rows committed by a concurrent transaction.
	AppendVoterLog(ctx context.Context, entry *ledger.VoterLog) error
	// IncrementVotes adds exactly one vote without reading the counter first.
	IncrementVotes(ctx context.Context, candidateID uuid.UUID) error
}

// EvidenceStore persists the photo taken at the kiosk.
type EvidenceStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, ref string) error
}
