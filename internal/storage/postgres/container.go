package postgres

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"

	"github.com/gravadigital/urna-cipa/internal/config"
	"github.com/gravadigital/urna-cipa/internal/logger"
)

// RepositoryContainer groups the repositories the services depend on.
type RepositoryContainer interface {
	Candidates() CandidateRepository
	Employees() EmployeeRepository
	VoterLogs() VoterLogRepository
	VoteStore() *VoteStore
	Health() error
	Close() error
}

// Container implements RepositoryContainer
type Container struct {
	db            *gorm.DB
	log           *log.Logger
	candidateRepo CandidateRepository
	employeeRepo  EmployeeRepository
	voterLogRepo  VoterLogRepository
	voteStore     *VoteStore
}

// NewContainer connects, runs migrations and wires every repository
func NewContainer(cfg *config.Config) (*Container, error) {
	log := logger.Repository("postgres_container")
	log.Info("Initializing PostgreSQL repository container...")

	db, err := Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		_ = Close(db)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	container := NewContainerWithDB(db)

	if err := container.Health(); err != nil {
		_ = Close(db)
		return nil, fmt.Errorf("container health check failed: %w", err)
	}

	log.Info("PostgreSQL repository container initialized successfully")
	return container, nil
}

// NewContainerWithDB creates a container with an existing database connection
func NewContainerWithDB(db *gorm.DB) *Container {
	return &Container{
		db:            db,
		log:           logger.Repository("postgres_container"),
		candidateRepo: NewPostgresCandidateRepository(db),
		employeeRepo:  NewPostgresEmployeeRepository(db),
		voterLogRepo:  NewPostgresVoterLogRepository(db),
		voteStore:     NewVoteStore(db),
	}
}

// Candidates returns the candidate repository
func (c *Container) Candidates() CandidateRepository {
	return c.candidateRepo
}

// Employees returns the employee repository
func (c *Container) Employees() EmployeeRepository {
	return c.employeeRepo
}

// VoterLogs returns the voter log repository
func (c *Container) VoterLogs() VoterLogRepository {
	return c.voterLogRepo
}

// VoteStore returns the transactional store used by the voting core
func (c *Container) VoteStore() *VoteStore {
	return c.voteStore
}

// Health pings the database and touches every table
func (c *Container) Health() error {
	if err := HealthCheck(c.db); err != nil {
		c.log.Error("Database health check failed", "error", err)
		return fmt.Errorf("database health check failed: %w", err)
	}

	for _, table := range []string{"candidates", "employees", "voter_logs"} {
		var count int64
		if err := c.db.Table(table).Count(&count).Error; err != nil {
			c.log.Error("Repository health check failed", "table", table, "error", err)
			return fmt.Errorf("repository %s health check failed: %w", table, err)
		}
	}

	metrics := GetDatabaseMetrics(c.db)
	c.log.Debug("Database connection metrics",
		"open_connections", metrics.OpenConnections,
		"in_use_connections", metrics.InUseConnections,
		"idle_connections", metrics.IdleConnections)
	return nil
}

// Close gracefully shuts down the container and closes database connections
func (c *Container) Close() error {
	if c.db == nil {
		return nil
	}

	if err := Close(c.db); err != nil {
		return err
	}

	c.db = nil
	c.log.Info("PostgreSQL repository container closed successfully")
	return nil
}

// CloseWithTimeout closes the container with a timeout
func (c *Container) CloseWithTimeout(timeout time.Duration) error {
	done := make(chan error, 1)

	go func() {
		done <- c.Close()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		c.log.Error("Container close operation timed out", "timeout", timeout)
		return fmt.Errorf("container close operation timed out after %v", timeout)
	}
}

// GetDB returns the underlying database connection
func (c *Container) GetDB() *gorm.DB {
	return c.db
}
