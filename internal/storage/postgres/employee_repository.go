package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"

	"github.com/gravadigital/urna-cipa/internal/domain/employee"
	"github.com/gravadigital/urna-cipa/internal/logger"
)

const employeeBatchSize = 500

// PostgresEmployeeRepository implements EmployeeRepository using GORM
type PostgresEmployeeRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresEmployeeRepository creates a new PostgreSQL employee repository
func NewPostgresEmployeeRepository(db *gorm.DB) *PostgresEmployeeRepository {
	return &PostgresEmployeeRepository{
		db:  db,
		log: logger.Repository("employee"),
	}
}

func (r *PostgresEmployeeRepository) ReplaceAll(ctx context.Context, employees []*employee.Employee) error {
	r.log.Info("Replacing employee roster", "count", len(employees))

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&employee.Employee{}).Error; err != nil {
			return fmt.Errorf("failed to clear roster: %w", err)
		}
		if len(employees) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(employees, employeeBatchSize).Error; err != nil {
			return fmt.Errorf("failed to insert roster: %w", err)
		}
		return nil
	})
	if err != nil {
		r.log.Error("Failed to replace employee roster", "error", err)
		return err
	}

	r.log.Info("Employee roster replaced successfully", "count", len(employees))
	return nil
}

func (r *PostgresEmployeeRepository) GetByCPF(ctx context.Context, cpf string) (*employee.Employee, error) {
	var e employee.Employee
	if err := r.db.WithContext(ctx).Where("cpf = ?", cpf).First(&e).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, employee.ErrNotFound
		}
		r.log.Error("Failed to get employee by CPF", "error", err)
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return &e, nil
}

func (r *PostgresEmployeeRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&employee.Employee{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count employees: %w", err)
	}
	return count, nil
}

func (r *PostgresEmployeeRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&employee.Employee{}).Where("active = ?", true).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count active employees: %w", err)
	}
	return count, nil
}
