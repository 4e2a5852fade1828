package database

import (
	"fmt"

	"estatehub/config"
	"estatehub/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

func dialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "mysql":
		return mysql.Open(cfg.DSN), nil
	case "postgres":
		return postgres.Open(cfg.DSN), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	d, err := dialector(cfg)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(d, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Error),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models. Users come first so the
// saved_searches cascade and listings foreign keys have a target.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.AdType{},
		&models.Listing{},
		&models.PropertyImage{},
		&models.SavedSearch{},
		&models.Favorite{},
		&models.PasswordResetToken{},
	)
}

var defaultAdTypes = []models.AdType{
	{Name: "standard", Price: 0, DurationDays: 30},
	{Name: "featured", Price: 49.99, DurationDays: 30},
	{Name: "premium", Price: 99.99, DurationDays: 60},
}

// SeedAdTypes inserts the default ad types, leaving existing rows untouched.
func SeedAdTypes(db *gorm.DB) error {
	rows := make([]models.AdType, len(defaultAdTypes))
	copy(rows, defaultAdTypes)
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}
