package database

import (
	"fmt"

	"github.com/lib/pq"

	models "stock-analyser/database/models_pkg"
)

// BulkWriter loads price rows with COPY. Ingesting five years of daily bars
// for several hundred tickers is far too slow with row-by-row inserts.
type BulkWriter struct {
	conn *SQLConn
}

// NewBulkWriter creates a bulk writer on the raw connection
func NewBulkWriter(conn *SQLConn) *BulkWriter {
	return &BulkWriter{conn: conn}
}

// InsertStockPrices copies a batch of price bars into stock_prices.
// The batch is written in a single transaction; on any failure the whole
// batch is rolled back so a retry cannot produce partial duplicates.
func (w *BulkWriter) InsertStockPrices(prices []models.StockPrice) (int, error) {
	if len(prices) == 0 {
		return 0, nil
	}

	tx, err := w.conn.Conn().Begin()
	if err != nil {
		return 0, fmt.Errorf("InsertStockPrices: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(pq.CopyIn("stock_prices",
		"ticker", "price_date", "open", "high", "low", "close", "adj_close", "volume"))
	if err != nil {
		return 0, fmt.Errorf("InsertStockPrices: prepare copy: %w", err)
	}

	for _, p := range prices {
		if _, err := stmt.Exec(p.Ticker, p.PriceDate, p.Open, p.High, p.Low, p.Close, p.AdjClose, p.Volume); err != nil {
			stmt.Close()
			return 0, fmt.Errorf("InsertStockPrices: copy row: %w", err)
		}
	}

	// Flush the COPY buffer
	if _, err := stmt.Exec(); err != nil {
		stmt.Close()
		return 0, fmt.Errorf("InsertStockPrices: flush: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return 0, fmt.Errorf("InsertStockPrices: close: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("InsertStockPrices: commit: %w", err)
	}
	return len(prices), nil
}

// InsertBenchmarkPrices copies a batch of benchmark closes.
func (w *BulkWriter) InsertBenchmarkPrices(prices []models.BenchmarkPrice) (int, error) {
	if len(prices) == 0 {
		return 0, nil
	}

	tx, err := w.conn.Conn().Begin()
	if err != nil {
		return 0, fmt.Errorf("InsertBenchmarkPrices: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(pq.CopyIn("benchmark_prices", "symbol", "price_date", "close"))
	if err != nil {
		return 0, fmt.Errorf("InsertBenchmarkPrices: prepare copy: %w", err)
	}

	for _, p := range prices {
		if _, err := stmt.Exec(p.Symbol, p.PriceDate, p.Close); err != nil {
			stmt.Close()
			return 0, fmt.Errorf("InsertBenchmarkPrices: copy row: %w", err)
		}
	}

	if _, err := stmt.Exec(); err != nil {
		stmt.Close()
		return 0, fmt.Errorf("InsertBenchmarkPrices: flush: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return 0, fmt.Errorf("InsertBenchmarkPrices: close: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("InsertBenchmarkPrices: commit: %w", err)
	}
	return len(prices), nil
}
