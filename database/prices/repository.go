package prices

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	models "stock-analyser/database/models_pkg"
)

// Repository handles database operations for stock and benchmark price series
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new prices repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ClosePriceNear returns the adjusted close of the trading day nearest to
// target, restricted to dates within toleranceDays of target. Weekends and
// holidays simply have no rows, so the nearest stored date wins. ok is false
// when no point falls inside the window (future date or data gap); that is a
// normal outcome, not an error.
func (r *Repository) ClosePriceNear(ticker string, target time.Time, toleranceDays int) (float64, bool, error) {
	lo := target.AddDate(0, 0, -toleranceDays)
	hi := target.AddDate(0, 0, toleranceDays)

	var rows []models.StockPrice
	err := r.db.
		Where("ticker = ? AND price_date >= ? AND price_date <= ?", ticker, lo, hi).
		Order("price_date ASC").
		Find(&rows).Error
	if err != nil {
		return 0, false, fmt.Errorf("ClosePriceNear: %w", err)
	}
	if len(rows) == 0 {
		return 0, false, nil
	}

	best := rows[0]
	bestDist := absDays(best.PriceDate, target)
	for _, row := range rows[1:] {
		// Strict < keeps the earlier date on distance ties
		if d := absDays(row.PriceDate, target); d < bestDist {
			best = row
			bestDist = d
		}
	}
	return best.AdjClose, true, nil
}

// BenchmarkCloseNear is ClosePriceNear over the benchmark series.
func (r *Repository) BenchmarkCloseNear(symbol string, target time.Time, toleranceDays int) (float64, bool, error) {
	lo := target.AddDate(0, 0, -toleranceDays)
	hi := target.AddDate(0, 0, toleranceDays)

	var rows []models.BenchmarkPrice
	err := r.db.
		Where("symbol = ? AND price_date >= ? AND price_date <= ?", symbol, lo, hi).
		Order("price_date ASC").
		Find(&rows).Error
	if err != nil {
		return 0, false, fmt.Errorf("BenchmarkCloseNear: %w", err)
	}
	if len(rows) == 0 {
		return 0, false, nil
	}

	best := rows[0]
	bestDist := absDays(best.PriceDate, target)
	for _, row := range rows[1:] {
		if d := absDays(row.PriceDate, target); d < bestDist {
			best = row
			bestDist = d
		}
	}
	return best.Close, true, nil
}

// GetPriceRange returns the daily bars for a ticker ordered by date.
// Zero start/end leave that bound open.
func (r *Repository) GetPriceRange(ticker string, start, end time.Time) ([]models.StockPrice, error) {
	var rows []models.StockPrice
	query := r.db.Where("ticker = ?", ticker).Order("price_date ASC")
	if !start.IsZero() {
		query = query.Where("price_date >= ?", start)
	}
	if !end.IsZero() {
		query = query.Where("price_date <= ?", end)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("GetPriceRange: %w", err)
	}
	return rows, nil
}

// GetBenchmarkRange returns the benchmark closes for a symbol ordered by date.
func (r *Repository) GetBenchmarkRange(symbol string, start, end time.Time) ([]models.BenchmarkPrice, error) {
	var rows []models.BenchmarkPrice
	query := r.db.Where("symbol = ?", symbol).Order("price_date ASC")
	if !start.IsZero() {
		query = query.Where("price_date >= ?", start)
	}
	if !end.IsZero() {
		query = query.Where("price_date <= ?", end)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("GetBenchmarkRange: %w", err)
	}
	return rows, nil
}

// LatestPriceDate returns the most recent stored date for a ticker, or nil
// when no history exists yet. Ingestion resumes from here.
func (r *Repository) LatestPriceDate(ticker string) (*time.Time, error) {
	var row models.StockPrice
	err := r.db.Where("ticker = ?", ticker).Order("price_date DESC").First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("LatestPriceDate: %w", err)
	}
	return &row.PriceDate, nil
}

// LatestBenchmarkDate returns the most recent stored date for a benchmark symbol.
func (r *Repository) LatestBenchmarkDate(symbol string) (*time.Time, error) {
	var row models.BenchmarkPrice
	err := r.db.Where("symbol = ?", symbol).Order("price_date DESC").First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("LatestBenchmarkDate: %w", err)
	}
	return &row.PriceDate, nil
}

// LatestClose returns the most recent adjusted close for a ticker.
func (r *Repository) LatestClose(ticker string) (float64, bool, error) {
	var row models.StockPrice
	err := r.db.Where("ticker = ?", ticker).Order("price_date DESC").First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("LatestClose: %w", err)
	}
	return row.AdjClose, true, nil
}

func absDays(a, b time.Time) int {
	d := int(a.Sub(b).Hours() / 24)
	if d < 0 {
		return -d
	}
	return d
}
