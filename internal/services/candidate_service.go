package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/gravadigital/urna-cipa/internal/domain/candidate"
	"github.com/gravadigital/urna-cipa/internal/logger"
	"github.com/gravadigital/urna-cipa/internal/storage/postgres"
	"github.com/gravadigital/urna-cipa/internal/validation"
)

// ErrValidation wraps input errors that should surface as 400.
var ErrValidation = errors.New("validation failed")

// CandidateService registers candidates and lists the results
type CandidateService struct {
	repo       postgres.CandidateRepository
	validator  validation.CandidateValidation
	nextNumber func() int
	log        *log.Logger
}

// NewCandidateService crea una nueva instancia del servicio de candidatos
func NewCandidateService(repo postgres.CandidateRepository) *CandidateService {
	return &CandidateService{
		repo:      repo,
		validator: validation.CandidateValidation{},
		nextNumber: func() int {
			return candidate.MinNumber + rand.IntN(candidate.MaxNumber-candidate.MinNumber+1)
		},
		log: logger.Service("candidate"),
	}
}

// WithNumberSource replaces the random number draw
func (s *CandidateService) WithNumberSource(next func() int) *CandidateService {
	s.nextNumber = next
	return s
}

// RegisterCandidateRequest representa una solicitud para registrar un candidato
type RegisterCandidateRequest struct {
	Name       string `json:"name" binding:"required"`
	Department string `json:"department" binding:"required"`
}

// RegisterCandidate draws numbers until an unused one is found. There is no
// attempt limit; only ctx cancellation stops the loop.
func (s *CandidateService) RegisterCandidate(ctx context.Context, req RegisterCandidateRequest) (*candidate.Candidate, error) {
	name := strings.TrimSpace(req.Name)
	department := strings.TrimSpace(req.Department)

	if err := s.validator.ValidateName(name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := s.validator.ValidateDepartment(department); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		number := s.nextNumber()
		if !candidate.ValidRegistrationNumber(number) {
			return nil, fmt.Errorf("number source produced %d outside [%d, %d]", number, candidate.MinNumber, candidate.MaxNumber)
		}

		taken, err := s.repo.NumberExists(ctx, number)
		if err != nil {
			return nil, err
		}
		if taken {
			continue
		}

		c := candidate.NewCandidate(name, department, number)
		if err := s.repo.Create(ctx, c); err != nil {
			// Lost a race with another registration for the same number.
			if errors.Is(err, candidate.ErrNumberTaken) {
				continue
			}
			return nil, err
		}

		s.log.Info("candidate registered", "number", number, "attempts", attempt)
		return c, nil
	}
}

// ListCandidatesRanked returns every candidate, most voted first
func (s *CandidateService) ListCandidatesRanked(ctx context.Context) ([]*candidate.Candidate, error) {
	return s.repo.ListRanked(ctx)
}

// GetByNumber is the kiosk lookup shown before confirming a vote
func (s *CandidateService) GetByNumber(ctx context.Context, number int) (*candidate.Candidate, error) {
	return s.repo.GetByNumber(ctx, number)
}
