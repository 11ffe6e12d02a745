package postgres

import (
	"fmt"
	"time"

	"geoeditor/internal/model"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the global database connection
var DB *gorm.DB

// Init initializes the database connection and sets the global DB variable
func Init(url string, log *zap.Logger) (*gorm.DB, error) {
	// Configure GORM logger with higher slow SQL threshold
	gormLogger := logger.New(
		zap.NewStdLog(log.Named("gorm")), // io writer
		logger.Config{
			SlowThreshold: time.Millisecond * 500,
			LogLevel:      logger.Warn,
		},
	)

	db, err := gorm.Open(postgres.Open(url), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	// AutoMigrate models
	if err = db.AutoMigrate(&model.DocumentPG{}); err != nil {
		return nil, fmt.Errorf("migrate document model: %w", err)
	}

	// Set global DB variable
	DB = db

	return db, nil
}

// GetDB returns the global database connection
func GetDB() *gorm.DB {
	return DB
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
