package database

import (
	"context"
	"fmt"
	"time"

	"clinic-queue-dashboard/internal/config"
	"clinic-queue-dashboard/internal/models"
	"clinic-queue-dashboard/internal/repository"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DefaultDepartments are the imaging departments created by the seed command
var DefaultDepartments = []string{
	"Velocity 1",
	"Velocity 2",
	"TBI",
	"CT",
	"Ultrasound",
	"X-Ray",
	"Mammo",
}

// Connect initializes and returns a GORM database connection
func Connect(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	// Configure GORM logger
	gormLogger := logger.Default.LogMode(logger.Info)
	if cfg.Server.GinMode == "release" {
		gormLogger = logger.Default.LogMode(logger.Error)
	}

	db, err := gorm.Open(mysql.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("connected to database",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Database),
	)
	return db, nil
}

// Migrate creates or updates the queue tables
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Department{}, &models.Patient{}, &models.RecentCall{}, &models.AuditLog{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// SeedDepartments creates every named department that does not exist yet.
// Returns how many were created.
func SeedDepartments(ctx context.Context, repo *repository.DepartmentRepository, names []string, log *zap.Logger) (int, error) {
	created := 0
	for _, name := range names {
		department, ok, err := repo.EnsureDepartment(ctx, name)
		if err != nil {
			return created, fmt.Errorf("failed to seed department %q: %w", name, err)
		}
		if !ok {
			log.Debug("department already exists", zap.String("name", name))
			continue
		}
		created++
		log.Info("department created", zap.String("name", department.Name), zap.String("id", department.ID))
	}
	return created, nil
}
