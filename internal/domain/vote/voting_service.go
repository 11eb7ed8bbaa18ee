package vote

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/gravadigital/urna-cipa/internal/domain/candidate"
	"github.com/gravadigital/urna-cipa/internal/domain/employee"
	"github.com/gravadigital/urna-cipa/internal/domain/ledger"
	"github.com/gravadigital/urna-cipa/internal/logger"
)

// EmptyRosterName is shown when no roster has been imported yet.
const EmptyRosterName = "Colaborador (Base vazia)"

const (
	msgIncomplete       = "Dados incompletos"
	msgAlreadyVoted     = "CPF já registrou voto."
	msgUnknownCandidate = "Número de candidato inválido"
	msgInvalidPhoto     = "Foto inválida"
	msgEvidenceFailure  = "Falha ao salvar a foto"
	msgNotInRoster      = "CPF não encontrado na base de colaboradores."
	msgInactive         = "Colaborador consta como INATIVO."
	msgVotedBefore      = "Voto já registrado anteriormente."
)

const evidenceCleanupTimeout = 10 * time.Second

// CastVoteRequest carries a kiosk submission. Number is a pointer so the
// blank vote (0) can be told apart from a missing field.
type CastVoteRequest struct {
	CPF    string
	Number *int
	Photo  string
}

// CastVoteResult is returned when the vote is committed.
type CastVoteResult struct {
	CandidateName string
	PhotoPath     string
}

// Eligibility is the advisory answer for a CPF before voting.
type Eligibility struct {
	Allowed bool
	Message string
	Name    string
}

// VotingService casts votes and answers eligibility queries.
type VotingService struct {
	store        Store
	evidence     EvidenceStore
	maxPhotoSize int64
	now          func() time.Time
	log          *log.Logger
}

// Option configures a VotingService.
type Option func(*VotingService)

// WithMaxPhotoSize limits the decoded photo size in bytes.
func WithMaxPhotoSize(n int64) Option {
	return func(s *VotingService) { s.maxPhotoSize = n }
}

// WithClock overrides the time source used for ledger timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *VotingService) { s.now = now }
}

func NewVotingService(store Store, evidence EvidenceStore, opts ...Option) *VotingService {
	s := &VotingService{
		store:    store,
		evidence: evidence,
		now:      time.Now,
		log:      logger.Voting(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxPhotoSize is the decoded photo limit in bytes; 0 means unlimited.
func (s *VotingService) MaxPhotoSize() int64 {
	return s.maxPhotoSize
}

// CastVote records one vote for the CPF. Every failure is a *Error.
func (s *VotingService) CastVote(ctx context.Context, req CastVoteRequest) (*CastVoteResult, error) {
	if strings.TrimSpace(req.CPF) == "" || req.Number == nil || strings.TrimSpace(req.Photo) == "" {
		return nil, newError(KindInvalidInput, msgIncomplete, nil)
	}

	cpf := employee.NormalizeCPF(req.CPF)
	if cpf == "" {
		return nil, newError(KindInvalidInput, msgIncomplete, errors.New("cpf has no digits"))
	}
	number := *req.Number

	// Fast path only; the unique index on voter_logs.cpf is what actually decides.
	voted, err := s.store.HasVoted(ctx, cpf)
	if err != nil {
		return nil, newError(KindInternal, "falha ao consultar registro de votos", err)
	}
	if voted {
		s.log.Warn("duplicate vote rejected", "cpf", cpf, "stage", "precheck")
		return nil, newError(KindAlreadyVoted, msgAlreadyVoted, nil)
	}

	cand, err := s.store.CandidateByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, candidate.ErrNotFound) {
			return nil, newError(KindUnknownCandidate, msgUnknownCandidate, nil)
		}
		return nil, newError(KindInternal, "falha ao consultar candidato", err)
	}

	photo, err := DecodePhoto(req.Photo, s.maxPhotoSize)
	if err != nil {
		return nil, newError(KindInvalidInput, msgInvalidPhoto, err)
	}

	key := EvidenceKey(cpf, number, photo.Extension)
	var (
		storedRef string
		bodyDone  bool
	)

	err = s.store.WithinTransaction(ctx, func(tx Tx) error {
		// The ledger row goes first: a concurrent transaction for the same CPF
		// blocks on the unique index here, before it can touch the evidence key.
		entry := ledger.NewVoterLog(cpf, key, s.now())
		if err := tx.AppendVoterLog(ctx, entry); err != nil {
			if errors.Is(err, ledger.ErrDuplicateVoter) {
				return newError(KindAlreadyVoted, msgAlreadyVoted, err)
			}
			return newError(KindInternal, "falha ao registrar voto", err)
		}

		ref, err := s.evidence.Put(ctx, key, photo.ContentType, photo.Data)
		if err != nil {
			return newError(KindEvidenceWriteFailure, msgEvidenceFailure, err)
		}
		storedRef = ref

		if err := tx.IncrementVotes(ctx, cand.ID); err != nil {
			// Still holding the CPF row, so the key cannot belong to anyone else yet.
			s.discardEvidence(ref)
			return newError(KindInternal, "falha ao contabilizar voto", err)
		}
		bodyDone = true
		return nil
	})
	if err != nil {
		if bodyDone && storedRef != "" {
			s.releaseEvidence(cpf, storedRef)
		}
		verr := AsError(err)
		if verr.Kind == KindAlreadyVoted {
			s.log.Warn("duplicate vote rejected", "cpf", cpf, "stage", "commit")
		} else {
			s.log.Error("vote rolled back", "cpf", cpf, "kind", verr.Kind, "error", err)
		}
		return nil, verr
	}

	s.log.Info("vote recorded", "cpf", cpf, "photo", storedRef)
	return &CastVoteResult{
		CandidateName: cand.Name,
		PhotoPath:     storedRef,
	}, nil
}

// discardEvidence removes a photo whose transaction is being rolled back.
func (s *VotingService) discardEvidence(ref string) {
	ctx, cancel := context.WithTimeout(context.Background(), evidenceCleanupTimeout)
	defer cancel()
	if err := s.evidence.Delete(ctx, ref); err != nil {
		s.log.Error("failed to remove orphaned evidence", "ref", ref, "error", err)
	}
}

// errReleaseDone rolls back the claim taken by releaseEvidence.
var errReleaseDone = errors.New("evidence released")

// releaseEvidence handles a commit that failed after the photo was stored.
// The CPF is claimed again in a transaction that never commits, so the photo
// is only deleted while no other vote for the CPF can hold or commit that key.
// If the claim finds a committed row, the earlier commit did go through (or
// another vote won) and the photo belongs to it.
func (s *VotingService) releaseEvidence(cpf, ref string) {
	ctx, cancel := context.WithTimeout(context.Background(), evidenceCleanupTimeout)
	defer cancel()

	err := s.store.WithinTransaction(ctx, func(tx Tx) error {
		if err := tx.AppendVoterLog(ctx, ledger.NewVoterLog(cpf, ref, s.now())); err != nil {
			return err
		}
		if err := s.evidence.Delete(ctx, ref); err != nil {
			return fmt.Errorf("failed to delete evidence: %w", err)
		}
		return errReleaseDone
	})
	switch {
	case errors.Is(err, errReleaseDone):
	case errors.Is(err, ledger.ErrDuplicateVoter):
		s.log.Warn("keeping evidence of committed vote", "cpf", cpf, "ref", ref)
	default:
		s.log.Error("failed to remove orphaned evidence", "ref", ref, "error", err)
	}
}

// CheckEligibility is a read-only pre-flight check. CastVote re-validates on its own.
func (s *VotingService) CheckEligibility(ctx context.Context, rawCPF string) (*Eligibility, error) {
	cpf := employee.NormalizeCPF(rawCPF)
	if cpf == "" {
		return &Eligibility{Allowed: false, Message: msgNotInRoster}, nil
	}

	size, err := s.store.RosterSize(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count roster: %w", err)
	}

	name := EmptyRosterName
	if size > 0 {
		emp, err := s.store.EmployeeByCPF(ctx, cpf)
		if err != nil {
			if errors.Is(err, employee.ErrNotFound) {
				return &Eligibility{Allowed: false, Message: msgNotInRoster}, nil
			}
			return nil, fmt.Errorf("failed to look up employee: %w", err)
		}
		if !emp.Active {
			return &Eligibility{Allowed: false, Message: msgInactive}, nil
		}
		name = emp.Name
	}

	voted, err := s.store.HasVoted(ctx, cpf)
	if err != nil {
		return nil, fmt.Errorf("failed to check voter log: %w", err)
	}
	if voted {
		return &Eligibility{Allowed: false, Message: msgVotedBefore}, nil
	}

	return &Eligibility{
		Allowed: true,
		Message: fmt.Sprintf("Olá, %s. Votação Habilitada.", name),
		Name:    name,
	}, nil
}

// EvidenceKey names the photo of a vote as {cpf}_{number}.{ext}, restricted to safe characters.
func EvidenceKey(cpf string, number int, ext string) string {
	raw := fmt.Sprintf("%s_%d.%s", cpf, number, ext)
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return strings.TrimLeft(b.String(), "._")
}
