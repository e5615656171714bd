package db

import (
	"github.com/RbroH99/les-sha-app-api/internal/domain" // Importing domain models

	"github.com/sirupsen/logrus"

	"gorm.io/driver/mysql" // MySQL driver for GORM
	"gorm.io/gorm"         // GORM ORM library
)

// AutoMigrate creates tables, foreign keys, constraints, columns and indexes
// for every catalog model on the given connection.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.ProductType{},
		&domain.Tag{},
		&domain.Resource{},
		&domain.Product{},
		&domain.Rating{},
	)
}

// Migrate opens a MySQL connection and performs automatic schema migration
func Migrate(dsn string) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{}) // Open a connection to the database
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err) // Log fatal error if connection fails
	}
	if err := AutoMigrate(db); err != nil {
		logrus.Fatalf("migration failed: %v", err) // Log fatal error if migration fails
	}
	logrus.Info("Migration completed.") // Log successful migration
}
