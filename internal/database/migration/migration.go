package migration

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migration represents a database migration record
type Migration struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"type:varchar(255);not null;unique"`
	Batch     int       `gorm:"not null"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

// MigrationFunc defines a function that can run a migration
type MigrationFunc func(tx *gorm.DB) error

// Step is one named, reversible schema change
type Step struct {
	Name string
	Up   MigrationFunc
	Down MigrationFunc
}

// Status describes whether a step has been applied
type Status struct {
	Name      string    `json:"name"`
	Applied   bool      `json:"applied"`
	Batch     int       `json:"batch"`
	AppliedAt time.Time `json:"applied_at"`
}

// Migrator applies Steps in slice order and records them by batch
type Migrator struct {
	DB     *gorm.DB
	Steps  []Step
	logger *zap.Logger
}

// NewMigrator creates a new migrator instance over the registered steps
func NewMigrator(db *gorm.DB, logger *zap.Logger) (*Migrator, error) {
	// Ensure migrations table exists
	if err := db.AutoMigrate(&Migration{}); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Migrator{
		DB:     db,
		Steps:  RegisterMigrations(),
		logger: logger.Named("migrate"),
	}, nil
}

func (m *Migrator) applied(ctx context.Context) (map[string]Migration, int, error) {
	var rows []Migration
	if err := m.DB.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to get applied migrations: %w", err)
	}
	out := make(map[string]Migration, len(rows))
	maxBatch := 0
	for _, r := range rows {
		out[r.Name] = r
		if r.Batch > maxBatch {
			maxBatch = r.Batch
		}
	}
	return out, maxBatch, nil
}

// Pending returns the steps not yet in applied, in registration order
func Pending(steps []Step, applied map[string]Migration) []Step {
	var out []Step
	for _, s := range steps {
		if _, ok := applied[s.Name]; !ok {
			out = append(out, s)
		}
	}
	return out
}

// Migrate runs all pending migrations as one new batch
func (m *Migrator) Migrate(ctx context.Context) ([]string, error) {
	applied, maxBatch, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	var names []string
	batch := maxBatch + 1
	for _, step := range Pending(m.Steps, applied) {
		step := step
		m.logger.Info("Running migration", zap.String("name", step.Name))

		err := m.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := step.Up(tx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			return tx.Create(&Migration{Name: step.Name, Batch: batch}).Error
		})
		if err != nil {
			return names, fmt.Errorf("failed to apply migration %s: %w", step.Name, err)
		}
		names = append(names, step.Name)
	}
	return names, nil
}

// Rollback rolls back the last batch of migrations in reverse order
func (m *Migrator) Rollback(ctx context.Context) ([]string, error) {
	_, maxBatch, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}
	if maxBatch == 0 {
		m.logger.Info("No migrations to rollback")
		return nil, nil
	}

	var rows []Migration
	if err := m.DB.WithContext(ctx).Where("batch = ?", maxBatch).Order("id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get migrations to rollback: %w", err)
	}
	return m.down(ctx, rows)
}

// Reset rolls back every migration and then applies them again
func (m *Migrator) Reset(ctx context.Context) ([]string, error) {
	var rows []Migration
	if err := m.DB.WithContext(ctx).Order("id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}
	if _, err := m.down(ctx, rows); err != nil {
		return nil, err
	}
	return m.Migrate(ctx)
}

func (m *Migrator) down(ctx context.Context, rows []Migration) ([]string, error) {
	steps := make(map[string]Step, len(m.Steps))
	for _, s := range m.Steps {
		steps[s.Name] = s
	}

	var names []string
	for _, row := range rows {
		row := row
		step, ok := steps[row.Name]
		if !ok {
			m.logger.Warn("Unknown migration in history", zap.String("name", row.Name))
			continue
		}
		m.logger.Info("Rolling back migration", zap.String("name", row.Name))

		err := m.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := step.Down(tx); err != nil {
				return fmt.Errorf("rollback failed: %w", err)
			}
			return tx.Delete(&row).Error
		})
		if err != nil {
			return names, fmt.Errorf("failed to rollback migration %s: %w", row.Name, err)
		}
		names = append(names, row.Name)
	}
	return names, nil
}

// GetStatus returns the status of all migrations in registration order
func (m *Migrator) GetStatus(ctx context.Context) ([]Status, error) {
	applied, _, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	status := make([]Status, 0, len(m.Steps))
	for _, s := range m.Steps {
		row, ok := applied[s.Name]
		status = append(status, Status{
			Name:      s.Name,
			Applied:   ok,
			Batch:     row.Batch,
			AppliedAt: row.AppliedAt,
		})
	}
	return status, nil
}
