package employee

import (
	"errors"
	"strings"
	"unicode"
)

// UnspecifiedDepartment is stored when the roster row has no department.
const UnspecifiedDepartment = "Não Informado"

var ErrNotFound = errors.New("employee not found")

// Employee is one row of the eligible-voter roster, keyed by CPF.
type Employee struct {
	CPF        string `json:"cpf" gorm:"primaryKey;size:14"`
	Name       string `json:"name" gorm:"size:150;not null"`
	Department string `json:"department" gorm:"size:100"`
	Role       string `json:"role" gorm:"size:100"`
	Active     bool   `json:"active" gorm:"not null"`
}

// TableName overrides the table name
func (Employee) TableName() string {
	return "employees"
}

// NormalizeCPF strips every non-digit character from a CPF.
func NormalizeCPF(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// StripCPFSeparators removes the usual CPF punctuation and surrounding
// whitespace, leaving anything else in place so callers can reject it.
func StripCPFSeparators(raw string) string {
	return strings.TrimSpace(strings.NewReplacer(".", "", "-", "", "/", "", " ", "").Replace(raw))
}

// IsNumeric reports whether s is a non-empty run of ASCII digits.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// IsActiveStatus derives the eligibility flag from the free-text SITUACAO column.
// "Inativo" contains "ativo", so it is removed before matching.
func IsActiveStatus(status string) bool {
	s := strings.ReplaceAll(strings.ToLower(status), "inativo", "")
	return strings.Contains(s, "ativo")
}
