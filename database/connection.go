package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// SQLConn wraps the raw database/sql connection used by the bulk writer.
// COPY-based loads need the lib/pq driver directly, so this pool is kept
// separate from the GORM connection.
type SQLConn struct {
	conn *sql.DB
}

// SQLConfig holds raw connection configuration
type SQLConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// NewSQLConn creates the raw connection used for bulk ingestion
func NewSQLConn(cfg SQLConfig) (*SQLConn, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName,
	)

	conn, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Bulk loads are bursty; a small warm pool is enough
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)
	conn.SetConnMaxIdleTime(2 * time.Minute)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ Bulk ingestion connection established")

	return &SQLConn{conn: conn}, nil
}

// Close closes the database connection
func (c *SQLConn) Close() error {
	if c.conn != nil {
		log.Println("📡 Closing bulk ingestion connection...")
		return c.conn.Close()
	}
	return nil
}

// Ping checks if the database connection is alive
func (c *SQLConn) Ping() error {
	return c.conn.Ping()
}

// Conn returns the underlying sql.DB connection
func (c *SQLConn) Conn() *sql.DB {
	return c.conn
}
