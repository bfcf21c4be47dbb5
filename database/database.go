// Package database provides database connection management for the
// stock-analyser ranking service.
//
// Two connections are maintained:
//   - A GORM connection (PostgreSQL) used by the entity repositories.
//   - A raw database/sql connection via lib/pq used by the bulk price
//     writer, which loads price history with COPY instead of row-by-row
//     inserts.
//
// All data models (Company, Analyst, AnalystRating, etc.) are defined in the
// models_pkg package to avoid circular import dependencies.
package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	models "stock-analyser/database/models_pkg"
)

// Database holds the GORM database connection and provides access to the
// underlying DB instance. It serves as the central connection point for all
// repository operations in the application.
type Database struct {
	db *gorm.DB
}

// DB returns the underlying GORM database instance for direct access when needed.
func (d *Database) DB() *gorm.DB {
	return d.db
}

// Connect establishes database connection using GORM
func Connect(host string, port int, dbname, user, password string) (*Database, error) {
	dsn := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=disable",
		host, port, dbname, user, password)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Silent logging for production
	})
	if err != nil {
		return nil, WrapDBError("Connect", err)
	}

	return &Database{db: db}, nil
}

// InitSchema migrates all tables. Safe to run on every start.
func (d *Database) InitSchema() error {
	err := d.db.AutoMigrate(
		&models.Company{},
		&models.StockPrice{},
		&models.BenchmarkPrice{},
		&models.Analyst{},
		&models.AnalystRating{},
		&models.DataSource{},
		&models.Job{},
	)
	if err != nil {
		return WrapDBError("InitSchema", err)
	}
	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
