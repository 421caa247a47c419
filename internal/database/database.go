package database

import (
	"errors"
	"fmt"

	"usercache-api/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB opens the SQLite file at path and runs migrations.
func InitDB(path string, logLevel logger.LogLevel) error {
	// glebarez/sqlite is a pure Go driver (no CGO required)
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return err
	}
	DB = db
	return nil
}

// Migrate creates or updates the tables used by the service.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.StoreInstance{}); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

// GetDB returns the database connection
func GetDB() *gorm.DB {
	return DB
}

// EnsureStoreInstance inserts inst unless a store with the same name already exists,
// and returns the stored row.
func EnsureStoreInstance(db *gorm.DB, inst models.StoreInstance) (models.StoreInstance, error) {
	var existing models.StoreInstance
	err := db.Where("name = ?", inst.Name).First(&existing).Error
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.StoreInstance{}, err
	}
	if err := db.Create(&inst).Error; err != nil {
		return models.StoreInstance{}, err
	}
	return inst, nil
}

// ListStoreInstances returns every persisted store definition ordered by name.
func ListStoreInstances(db *gorm.DB) ([]models.StoreInstance, error) {
	var out []models.StoreInstance
	if err := db.Order("name asc").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
