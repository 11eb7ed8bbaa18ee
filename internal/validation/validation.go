package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gravadigital/urna-cipa/internal/domain/employee"
)

// cpfMaxLength es el largo de un CPF con máscara (000.000.000-00)
const cpfMaxLength = 14

// ValidateRequired valida que un campo no esté vacío
func ValidateRequired(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New(fieldName + " is required")
	}
	return nil
}

// ValidateMinLength valida la longitud mínima de un string
func ValidateMinLength(value string, minLength int, fieldName string) error {
	if utf8.RuneCountInString(strings.TrimSpace(value)) < minLength {
		return fmt.Errorf("%s must be at least %d characters long", fieldName, minLength)
	}
	return nil
}

// ValidateMaxLength valida la longitud máxima de un string
func ValidateMaxLength(value string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(value) > maxLength {
		return fmt.Errorf("%s must be at most %d characters long", fieldName, maxLength)
	}
	return nil
}

// ValidateCPF acepta el CPF con o sin máscara
func ValidateCPF(raw string) error {
	if err := ValidateRequired(raw, "cpf"); err != nil {
		return err
	}
	if err := ValidateMaxLength(strings.TrimSpace(raw), cpfMaxLength, "cpf"); err != nil {
		return err
	}
	if !employee.IsNumeric(employee.StripCPFSeparators(raw)) {
		return errors.New("cpf must contain only digits and separators")
	}
	return nil
}

// CandidateValidation contiene validaciones específicas para candidatos
type CandidateValidation struct{}

// ValidateName valida el nombre de un candidato
func (v CandidateValidation) ValidateName(name string) error {
	if err := ValidateRequired(name, "name"); err != nil {
		return err
	}
	if err := ValidateMinLength(name, 2, "name"); err != nil {
		return err
	}
	return ValidateMaxLength(name, 100, "name")
}

// ValidateDepartment valida el setor de un candidato
func (v CandidateValidation) ValidateDepartment(department string) error {
	if err := ValidateRequired(department, "department"); err != nil {
		return err
	}
	return ValidateMaxLength(department, 100, "department")
}
