// Package testutil provides in-memory stand-ins for the PostgreSQL
// repositories and the evidence store, for unit tests.
package testutil

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/gravadigital/urna-cipa/internal/domain/candidate"
	"github.com/gravadigital/urna-cipa/internal/domain/employee"
	"github.com/gravadigital/urna-cipa/internal/domain/ledger"
	"github.com/gravadigital/urna-cipa/internal/domain/vote"
)

// MemoryDB mimics the three tables, including the unique CPF constraint on
// the voter log. Transactions are serialized and applied on commit.
type MemoryDB struct {
	mu         sync.RWMutex
	txMu       sync.Mutex
	candidates []*candidate.Candidate
	employees  map[string]*employee.Employee
	logs       []*ledger.VoterLog

	// FailCommit, when set, is returned after a transaction body succeeds
	// and nothing is applied.
	FailCommit error
	// LoseCommitAck, when set, is returned after the transaction has been
	// applied, like a connection dropped right after COMMIT.
	LoseCommitAck error

	failIncrement error
}

// NewMemoryDB returns a database seeded with the blank-vote candidate.
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		candidates: []*candidate.Candidate{candidate.NewBlankVote()},
		employees:  make(map[string]*employee.Employee),
	}
}

// AddCandidate inserts a candidate with a fixed number.
func (m *MemoryDB) AddCandidate(name, department string, number int) *candidate.Candidate {
	c := candidate.NewCandidate(name, department, number)
	m.mu.Lock()
	m.candidates = append(m.candidates, c)
	m.mu.Unlock()
	return c
}

// AddEmployee inserts or replaces one roster row.
func (m *MemoryDB) AddEmployee(e *employee.Employee) {
	m.mu.Lock()
	m.employees[e.CPF] = e
	m.mu.Unlock()
}

// AddVoterLog inserts a ledger row directly, bypassing transactions.
func (m *MemoryDB) AddVoterLog(entry *ledger.VoterLog) {
	m.mu.Lock()
	m.logs = append(m.logs, entry)
	m.mu.Unlock()
}

// FailNextIncrement makes the next tally increment inside a transaction fail with err.
func (m *MemoryDB) FailNextIncrement(err error) {
	m.mu.Lock()
	m.failIncrement = err
	m.mu.Unlock()
}

// Votes returns the committed tally of the candidate with the given number.
func (m *MemoryDB) Votes(number int) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.candidates {
		if c.Number == number {
			return c.VotesCount
		}
	}
	return -1
}

// TotalVotes sums every candidate tally.
func (m *MemoryDB) TotalVotes() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total int64
	for _, c := range m.candidates {
		total += c.VotesCount
	}
	return total
}

// LedgerRows returns committed ledger rows for a CPF.
func (m *MemoryDB) LedgerRows(cpf string) []*ledger.VoterLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var rows []*ledger.VoterLog
	for _, l := range m.logs {
		if l.CPF == cpf {
			rows = append(rows, l)
		}
	}
	return rows
}

// HasVoted implements vote.Store.
func (m *MemoryDB) HasVoted(_ context.Context, cpf string) (bool, error) {
	return len(m.LedgerRows(cpf)) > 0, nil
}

// CandidateByNumber implements vote.Store.
func (m *MemoryDB) CandidateByNumber(_ context.Context, number int) (*candidate.Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.candidates {
		if c.Number == number {
			cp := *c
			return &cp, nil
		}
	}
	return nil, candidate.ErrNotFound
}

// RosterSize implements vote.Store.
func (m *MemoryDB) RosterSize(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.employees)), nil
}

// EmployeeByCPF implements vote.Store.
func (m *MemoryDB) EmployeeByCPF(_ context.Context, cpf string) (*employee.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.employees[cpf]
	if !ok {
		return nil, employee.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

// WithinTransaction implements vote.Store.
func (m *MemoryDB) WithinTransaction(ctx context.Context, fn func(tx vote.Tx) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	tx := &memoryTx{db: m, increments: make(map[uuid.UUID]int64)}
	if err := fn(tx); err != nil {
		return err
	}
	if m.FailCommit != nil {
		return m.FailCommit
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, tx.logs...)
	for id, n := range tx.increments {
		for _, c := range m.candidates {
			if c.ID == id {
				c.VotesCount += n
			}
		}
	}
	return m.LoseCommitAck
}

type memoryTx struct {
	db         *MemoryDB
	logs       []*ledger.VoterLog
	increments map[uuid.UUID]int64
}

func (t *memoryTx) AppendVoterLog(ctx context.Context, entry *ledger.VoterLog) error {
	voted, _ := t.db.HasVoted(ctx, entry.CPF)
	if voted || slices.ContainsFunc(t.logs, func(l *ledger.VoterLog) bool { return l.CPF == entry.CPF }) {
		return ledger.ErrDuplicateVoter
	}
	t.logs = append(t.logs, entry)
	return nil
}

func (t *memoryTx) IncrementVotes(_ context.Context, candidateID uuid.UUID) error {
	t.db.mu.Lock()
	injected := t.db.failIncrement
	t.db.failIncrement = nil
	found := slices.ContainsFunc(t.db.candidates, func(c *candidate.Candidate) bool { return c.ID == candidateID })
	t.db.mu.Unlock()
	if injected != nil {
		return injected
	}
	if !found {
		return candidate.ErrNotFound
	}
	t.increments[candidateID]++
	return nil
}

// Candidates returns a candidate repository view over the same data.
func (m *MemoryDB) Candidates() *MemoryCandidates { return &MemoryCandidates{db: m} }

// Employees returns an employee repository view over the same data.
func (m *MemoryDB) Employees() *MemoryEmployees { return &MemoryEmployees{db: m} }

// VoterLogs returns a voter log repository view over the same data.
func (m *MemoryDB) VoterLogs() *MemoryVoterLogs { return &MemoryVoterLogs{db: m} }

type MemoryCandidates struct{ db *MemoryDB }

func (r *MemoryCandidates) Create(_ context.Context, c *candidate.Candidate) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, existing := range r.db.candidates {
		if existing.Number == c.Number {
			return candidate.ErrNumberTaken
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	cp := *c
	r.db.candidates = append(r.db.candidates, &cp)
	return nil
}

func (r *MemoryCandidates) GetByNumber(ctx context.Context, number int) (*candidate.Candidate, error) {
	return r.db.CandidateByNumber(ctx, number)
}

func (r *MemoryCandidates) NumberExists(ctx context.Context, number int) (bool, error) {
	_, err := r.db.CandidateByNumber(ctx, number)
	if errors.Is(err, candidate.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *MemoryCandidates) ListRanked(_ context.Context) ([]*candidate.Candidate, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]*candidate.Candidate, 0, len(r.db.candidates))
	for _, c := range r.db.candidates {
		cp := *c
		out = append(out, &cp)
	}
	slices.SortStableFunc(out, func(a, b *candidate.Candidate) int {
		switch {
		case a.VotesCount > b.VotesCount:
			return -1
		case a.VotesCount < b.VotesCount:
			return 1
		}
		return 0
	})
	return out, nil
}

func (r *MemoryCandidates) IncrementVotes(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, c := range r.db.candidates {
		if c.ID == id {
			c.VotesCount++
			return nil
		}
	}
	return candidate.ErrNotFound
}

type MemoryEmployees struct{ db *MemoryDB }

func (r *MemoryEmployees) ReplaceAll(_ context.Context, employees []*employee.Employee) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.employees = make(map[string]*employee.Employee, len(employees))
	for _, e := range employees {
		cp := *e
		r.db.employees[e.CPF] = &cp
	}
	return nil
}

func (r *MemoryEmployees) GetByCPF(ctx context.Context, cpf string) (*employee.Employee, error) {
	return r.db.EmployeeByCPF(ctx, cpf)
}

func (r *MemoryEmployees) Count(ctx context.Context) (int64, error) {
	return r.db.RosterSize(ctx)
}

func (r *MemoryEmployees) CountActive(_ context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	var n int64
	for _, e := range r.db.employees {
		if e.Active {
			n++
		}
	}
	return n, nil
}

type MemoryVoterLogs struct{ db *MemoryDB }

func (r *MemoryVoterLogs) Create(_ context.Context, entry *ledger.VoterLog) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, l := range r.db.logs {
		if l.CPF == entry.CPF {
			return ledger.ErrDuplicateVoter
		}
	}
	r.db.logs = append(r.db.logs, entry)
	return nil
}

func (r *MemoryVoterLogs) ExistsByCPF(ctx context.Context, cpf string) (bool, error) {
	return r.db.HasVoted(ctx, cpf)
}

func (r *MemoryVoterLogs) Count(_ context.Context) (int64, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	return int64(len(r.db.logs)), nil
}

func (r *MemoryVoterLogs) ListRecent(_ context.Context) ([]*ledger.VoterLog, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()
	out := make([]*ledger.VoterLog, len(r.db.logs))
	copy(out, r.db.logs)
	slices.SortStableFunc(out, func(a, b *ledger.VoterLog) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return out, nil
}
