package database

import (
	"fmt"

	"fintrack/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AutoMigrate runs database schema migrations for all models and seeds the
// fixed category and method tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Method{},
		&models.Transaction{},
		&models.Balance{},
		&models.Target{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	if err := Seed(db); err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	return nil
}

// Seed inserts missing categories and methods; existing rows are left alone.
func Seed(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, name := range models.DefaultCategories {
			c := models.Category{Name: name}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&c).Error; err != nil {
				return fmt.Errorf("category %q: %w", name, err)
			}
		}
		for _, m := range models.DefaultMethods {
			m := m
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&m).Error; err != nil {
				return fmt.Errorf("method %q: %w", m.Name, err)
			}
		}
		return nil
	})
}
