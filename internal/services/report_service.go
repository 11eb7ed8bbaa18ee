package services

import (
	"context"
	"fmt"
	"math"

	"github.com/gravadigital/urna-cipa/internal/domain/candidate"
	"github.com/gravadigital/urna-cipa/internal/domain/ledger"
	"github.com/gravadigital/urna-cipa/internal/storage/postgres"
)

// Stats is the turnout summary shown on the admin dashboard.
type Stats struct {
	TotalEligible int64   `json:"total_eligible"`
	TotalVotes    int64   `json:"total_votes"`
	Missing       int64   `json:"missing"`
	Percent       float64 `json:"percent"`
}

// Dashboard is everything the admin page renders.
type Dashboard struct {
	Candidates []*candidate.Candidate `json:"candidates"`
	Logs       []*ledger.VoterLog     `json:"logs"`
	Stats      Stats                  `json:"stats"`
}

// ReportService aggregates results. Nothing is cached.
type ReportService struct {
	candidates postgres.CandidateRepository
	employees  postgres.EmployeeRepository
	voterLogs  postgres.VoterLogRepository
}

func NewReportService(candidates postgres.CandidateRepository, employees postgres.EmployeeRepository, voterLogs postgres.VoterLogRepository) *ReportService {
	return &ReportService{
		candidates: candidates,
		employees:  employees,
		voterLogs:  voterLogs,
	}
}

// ComputeStats counts active employees against ledger rows
func (s *ReportService) ComputeStats(ctx context.Context) (Stats, error) {
	eligible, err := s.employees.CountActive(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count eligible voters: %w", err)
	}
	votes, err := s.voterLogs.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count votes: %w", err)
	}
	return buildStats(eligible, votes), nil
}

func buildStats(eligible, votes int64) Stats {
	stats := Stats{
		TotalEligible: eligible,
		TotalVotes:    votes,
		Missing:       max(0, eligible-votes),
	}
	if eligible > 0 {
		stats.Percent = math.Round(float64(votes)/float64(eligible)*1000) / 10
	}
	return stats
}

// Dashboard returns ranked candidates, the full voter log and the stats
func (s *ReportService) Dashboard(ctx context.Context) (*Dashboard, error) {
	candidates, err := s.candidates.ListRanked(ctx)
	if err != nil {
		return nil, err
	}
	logs, err := s.voterLogs.ListRecent(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := s.ComputeStats(ctx)
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		Candidates: candidates,
		Logs:       logs,
		Stats:      stats,
	}, nil
}
