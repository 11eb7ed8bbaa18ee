package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gocarina/gocsv"
	"golang.org/x/text/cases"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/language"

	"github.com/gravadigital/urna-cipa/internal/domain/employee"
	"github.com/gravadigital/urna-cipa/internal/logger"
	"github.com/gravadigital/urna-cipa/internal/storage/postgres"
)

// RosterRow is one line of the HR export.
type RosterRow struct {
	CPF        string `csv:"CPF"`
	Name       string `csv:"NOME"`
	Department string `csv:"SETOR"`
	Role       string `csv:"CARGO"`
	Status     string `csv:"SITUACAO"`
}

// RosterService imports and queries the voter roster
type RosterService struct {
	repo      postgres.EmployeeRepository
	delimiter rune
	log       *log.Logger
}

func NewRosterService(repo postgres.EmployeeRepository, delimiter rune) *RosterService {
	if delimiter == 0 {
		delimiter = ';'
	}
	return &RosterService{
		repo:      repo,
		delimiter: delimiter,
		log:       logger.Service("roster"),
	}
}

// ImportRosterFile reads an ISO-8859-1 delimited export and replaces the roster.
func (s *RosterService) ImportRosterFile(ctx context.Context, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open roster file %s: %w", path, err)
	}
	defer file.Close()

	rows, err := s.ParseRoster(file)
	if err != nil {
		return 0, fmt.Errorf("failed to parse roster file %s: %w", path, err)
	}
	return s.ImportRoster(ctx, rows)
}

// ParseRoster decodes the delimited export into rows
func (s *RosterService) ParseRoster(in io.Reader) ([]*RosterRow, error) {
	r := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(in))
	r.Comma = s.delimiter
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	var rows []*RosterRow
	if err := gocsv.UnmarshalCSV(r, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// ImportRoster wholesale-replaces the employee table and returns how many
// rows were kept. Rows with an empty or non-numeric CPF are skipped; a CPF
// repeated in the file keeps its last row.
func (s *RosterService) ImportRoster(ctx context.Context, rows []*RosterRow) (int, error) {
	title := cases.Title(language.BrazilianPortuguese)

	byCPF := make(map[string]*employee.Employee, len(rows))
	order := make([]string, 0, len(rows))
	skipped := 0

	for _, row := range rows {
		cpf := employee.StripCPFSeparators(row.CPF)
		if !employee.IsNumeric(cpf) {
			skipped++
			continue
		}

		department := strings.TrimSpace(row.Department)
		if department == "" {
			department = employee.UnspecifiedDepartment
		}

		if _, seen := byCPF[cpf]; !seen {
			order = append(order, cpf)
		}
		byCPF[cpf] = &employee.Employee{
			CPF:        cpf,
			Name:       title.String(strings.TrimSpace(row.Name)),
			Department: department,
			Role:       strings.TrimSpace(row.Role),
			Active:     employee.IsActiveStatus(strings.TrimSpace(row.Status)),
		}
	}

	employees := make([]*employee.Employee, 0, len(order))
	for _, cpf := range order {
		employees = append(employees, byCPF[cpf])
	}

	if err := s.repo.ReplaceAll(ctx, employees); err != nil {
		return 0, err
	}

	s.log.Info("roster imported", "imported", len(employees), "skipped", skipped, "rows", len(rows))
	return len(employees), nil
}

// GetEmployee looks up a roster entry by CPF in any format
func (s *RosterService) GetEmployee(ctx context.Context, rawCPF string) (*employee.Employee, error) {
	cpf := employee.NormalizeCPF(rawCPF)
	if cpf == "" {
		return nil, employee.ErrNotFound
	}
	return s.repo.GetByCPF(ctx, cpf)
}
