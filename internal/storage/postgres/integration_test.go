//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gravadigital/urna-cipa/internal/config"
	"github.com/gravadigital/urna-cipa/internal/domain/candidate"
	"github.com/gravadigital/urna-cipa/internal/domain/employee"
	"github.com/gravadigital/urna-cipa/internal/domain/ledger"
	"github.com/gravadigital/urna-cipa/internal/domain/vote"
	"github.com/gravadigital/urna-cipa/internal/testutil"
)

// Run with: go test -tags=integration ./internal/storage/postgres/

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	cfg := config.Load()
	if testDB := os.Getenv("TEST_DB_NAME"); testDB != "" {
		cfg.DB.Name = testDB
	}

	connCfg := DefaultConnectionConfig()
	connCfg.MaxAttempts = 1
	db, err := ConnectWithConfig(cfg, connCfg)
	if err != nil {
		t.Skipf("postgres not available: %v", err)
	}
	require.NoError(t, AutoMigrate(db))

	cleanup := func() {
		// TRUNCATE does not fire the row-level append-only trigger.
		db.Exec("TRUNCATE voter_logs, employees")
		db.Exec("DELETE FROM candidates WHERE number <> ?", candidate.BlankVoteNumber)
		db.Exec("UPDATE candidates SET votes_count = 0")
	}
	cleanup()
	t.Cleanup(func() {
		cleanup()
		_ = Close(db)
	})
	return db
}

func TestBlankVoteSeeded(t *testing.T) {
	db := setupDB(t)
	repo := NewPostgresCandidateRepository(db)

	blank, err := repo.GetByNumber(context.Background(), candidate.BlankVoteNumber)
	require.NoError(t, err)
	assert.Equal(t, candidate.BlankVoteName, blank.Name)
	assert.Equal(t, candidate.BlankVoteDepartment, blank.Department)
}

func TestCandidateRepository(t *testing.T) {
	db := setupDB(t)
	repo := NewPostgresCandidateRepository(db)
	ctx := context.Background()

	first := candidate.NewCandidate("Ana Souza", "RH", 42)
	require.NoError(t, repo.Create(ctx, first))

	err := repo.Create(ctx, candidate.NewCandidate("Bruno Lima", "TI", 42))
	assert.ErrorIs(t, err, candidate.ErrNumberTaken)

	second := candidate.NewCandidate("Bruno Lima", "TI", 17)
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	require.NoError(t, repo.Create(ctx, second))

	exists, err := repo.NumberExists(ctx, 17)
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.GetByNumber(ctx, 55)
	assert.ErrorIs(t, err, candidate.ErrNotFound)

	require.NoError(t, repo.IncrementVotes(ctx, second.ID))

	ranked, err := repo.ListRanked(ctx)
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, 17, ranked[0].Number)
	assert.Equal(t, int64(1), ranked[0].VotesCount)
}

func TestEmployeeRepositoryReplaceAll(t *testing.T) {
	db := setupDB(t)
	repo := NewPostgresEmployeeRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.ReplaceAll(ctx, []*employee.Employee{
		{CPF: "11122233344", Name: "Ana", Department: "RH", Active: true},
		{CPF: "55566677788", Name: "Bruno", Department: "TI", Active: false},
	}))
	require.NoError(t, repo.ReplaceAll(ctx, []*employee.Employee{
		{CPF: "99988877766", Name: "Carla", Department: "Produção", Active: true},
	}))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	_, err = repo.GetByCPF(ctx, "11122233344")
	assert.ErrorIs(t, err, employee.ErrNotFound)

	active, err := repo.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), active)
}

func TestVoterLogRepositoryRejectsDuplicateAndChanges(t *testing.T) {
	db := setupDB(t)
	repo := NewPostgresVoterLogRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, ledger.NewVoterLog("11122233344", "a.png", time.Now())))
	err := repo.Create(ctx, ledger.NewVoterLog("11122233344", "b.png", time.Now()))
	assert.ErrorIs(t, err, ledger.ErrDuplicateVoter)

	assert.Error(t, db.Exec("DELETE FROM voter_logs WHERE cpf = ?", "11122233344").Error)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestConcurrentVotesSameCPF(t *testing.T) {
	db := setupDB(t)
	store := NewVoteStore(db)
	svc := vote.NewVotingService(store, testutil.NewMemoryEvidence())

	const workers = 10
	number := candidate.BlankVoteNumber
	var wg sync.WaitGroup
	var succeeded, rejected atomic.Int32

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CastVote(context.Background(), vote.CastVoteRequest{
				CPF:    "123.456.789-00",
				Number: &number,
				Photo:  testutil.PhotoDataURI,
			})
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, vote.ErrAlreadyVoted):
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(workers-1), rejected.Load())

	blank, err := NewPostgresCandidateRepository(db).GetByNumber(context.Background(), number)
	require.NoError(t, err)
	assert.Equal(t, int64(1), blank.VotesCount)
}

func TestConcurrentVotesDistinctCPFs(t *testing.T) {
	db := setupDB(t)
	svc := vote.NewVotingService(NewVoteStore(db), testutil.NewMemoryEvidence())

	const voters = 25
	number := candidate.BlankVoteNumber
	var wg sync.WaitGroup
	for i := range voters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CastVote(context.Background(), vote.CastVoteRequest{
				CPF:    fmt.Sprintf("%011d", i+1),
				Number: &number,
				Photo:  testutil.PhotoDataURI,
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	blank, err := NewPostgresCandidateRepository(db).GetByNumber(context.Background(), number)
	require.NoError(t, err)
	assert.Equal(t, int64(voters), blank.VotesCount)

	logs, err := NewPostgresVoterLogRepository(db).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(voters), logs)
}
