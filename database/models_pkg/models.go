package models

import "time"

// Rating categories issued by analysts. These are the only values accepted in
// AnalystRating.Rating; anything else is treated as an invalid record during
// evaluation and skipped.
const (
	RatingStrongBuy  = "strong_buy"
	RatingBuy        = "buy"
	RatingHold       = "hold"
	RatingSell       = "sell"
	RatingStrongSell = "strong_sell"
)

// ValidRating reports whether s is one of the known rating categories.
func ValidRating(s string) bool {
	switch s {
	case RatingStrongBuy, RatingBuy, RatingHold, RatingSell, RatingStrongSell:
		return true
	}
	return false
}

// DataSource categories. Each provider registration belongs to exactly one.
const (
	CategoryStockPrices    = "stock_prices"
	CategoryCompanyInfo    = "company_info"
	CategoryAnalystRatings = "analyst_ratings"
)

// DataSourceCategories lists all categories in display order. The admin view
// groups sources under these keys, including categories with no sources yet.
var DataSourceCategories = []string{
	CategoryStockPrices,
	CategoryCompanyInfo,
	CategoryAnalystRatings,
}

// Job statuses.
const (
	JobPending   = "pending"
	JobRunning   = "running"
	JobCompleted = "completed"
	JobFailed    = "failed"
)

// Job types accepted by the admin trigger endpoint.
const (
	JobIngestPrices        = "ingest_prices"
	JobIngestCompanies     = "ingest_companies"
	JobIngestRatings       = "ingest_ratings"
	JobIngestBenchmark     = "ingest_benchmark"
	JobIngestCurrentPrices = "ingest_current_prices"
	JobRecomputeRankings   = "recompute_rankings"
)

// ValidJobType reports whether s is one of the known job types.
func ValidJobType(s string) bool {
	switch s {
	case JobIngestPrices, JobIngestCompanies, JobIngestRatings,
		JobIngestBenchmark, JobIngestCurrentPrices, JobRecomputeRankings:
		return true
	}
	return false
}

// Company represents a covered company and its derived scores.
//
// investment_score and target_price are materialized from the current
// ratings on the ticker weighted by analyst confidence; they are owned by the
// ranking pass and fully replaceable from ratings + prices.
type Company struct {
	Ticker          string    `gorm:"size:10;primaryKey" json:"ticker"`
	Name            string    `gorm:"not null" json:"name"`
	Sector          *string   `gorm:"index" json:"sector"`
	Industry        *string   `json:"industry"`
	MarketCap       *float64  `gorm:"type:decimal(20,2)" json:"market_cap"`
	CurrentPrice    *float64  `gorm:"type:decimal(15,4)" json:"current_price"`
	TargetPrice     *float64  `gorm:"type:decimal(15,4)" json:"target_price"`
	InvestmentScore *float64  `gorm:"type:decimal(6,2)" json:"investment_score"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName specifies the table name for Company
func (Company) TableName() string {
	return "companies"
}

// StockPrice is one daily OHLCV bar for a ticker. Rows are append-only and
// supplied by ingestion; the ranking pass only reads them. AdjClose is the
// split/dividend adjusted close used for return calculations.
type StockPrice struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Ticker    string    `gorm:"size:10;uniqueIndex:ux_price_ticker_date,priority:1;not null" json:"ticker"`
	PriceDate time.Time `gorm:"type:date;uniqueIndex:ux_price_ticker_date,priority:2;not null" json:"date"`
	Open      float64   `gorm:"type:decimal(15,4);not null" json:"open"`
	High      float64   `gorm:"type:decimal(15,4);not null" json:"high"`
	Low       float64   `gorm:"type:decimal(15,4);not null" json:"low"`
	Close     float64   `gorm:"type:decimal(15,4);not null" json:"close"`
	AdjClose  float64   `gorm:"type:decimal(15,4);not null" json:"adj_close"`
	Volume    int64     `json:"volume"`
}

// TableName specifies the table name for StockPrice
func (StockPrice) TableName() string {
	return "stock_prices"
}

// BenchmarkPrice is one daily close for a benchmark index (e.g. SPY).
// Same lookup contract as StockPrice, separate series.
type BenchmarkPrice struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Symbol    string    `gorm:"size:10;index:idx_benchmark_symbol_date,priority:1;not null" json:"symbol"`
	PriceDate time.Time `gorm:"type:date;index:idx_benchmark_symbol_date,priority:2;not null" json:"date"`
	Close     float64   `gorm:"type:decimal(15,4);not null" json:"close"`
}

// TableName specifies the table name for BenchmarkPrice
func (BenchmarkPrice) TableName() string {
	return "benchmark_prices"
}

// Analyst aggregates one analyst's track record.
//
// Key Fields:
//   - TotalRatings: count of all ratings, pending and evaluated
//   - AccurateRatings: count of evaluated ratings that were accurate
//   - ConfidenceScore: 0-100 percentage of evaluated ratings that were
//     accurate; nil while the analyst has too little evaluated history
//
// All three are derived from the analyst's rating set by the ranking pass
// and are never mutated anywhere else.
type Analyst struct {
	AnalystID       string   `gorm:"size:64;primaryKey" json:"analyst_id"`
	Name            string   `gorm:"not null" json:"name"`
	Firm            string   `gorm:"not null" json:"firm"`
	ConfidenceScore *float64 `gorm:"type:decimal(6,2)" json:"confidence_score"`
	TotalRatings    int      `gorm:"default:0" json:"total_ratings"`
	AccurateRatings int      `gorm:"default:0" json:"accurate_ratings"`
}

// TableName specifies the table name for Analyst
func (Analyst) TableName() string {
	return "analysts"
}

// AnalystRating is one analyst's call on one ticker at one date. It is the
// source of truth the Analyst and Company aggregates are folded from.
//
// ActualReturn and WasAccurate start nil ("pending") and are set together,
// exactly once, when the evaluation horizon has elapsed and price data is
// available. A settled verdict is never flipped on replay unless the price
// history itself was corrected upstream (forced re-evaluation).
type AnalystRating struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	AnalystID    string    `gorm:"size:64;index;not null" json:"analyst_id"`
	Ticker       string    `gorm:"size:10;index;not null" json:"ticker"`
	RatingDate   time.Time `gorm:"type:date;index;not null" json:"date"`
	Rating       string    `gorm:"size:16;not null" json:"rating"`
	PriceTarget  *float64  `gorm:"type:decimal(15,4)" json:"price_target"`
	WasAccurate  *bool     `json:"was_accurate"`
	ActualReturn *float64  `gorm:"type:decimal(12,6)" json:"actual_return"`
}

// TableName specifies the table name for AnalystRating
func (AnalystRating) TableName() string {
	return "analyst_ratings"
}

// Evaluated reports whether the rating has a settled verdict.
func (r *AnalystRating) Evaluated() bool {
	return r.WasAccurate != nil
}

// DataSource is a registered upstream provider, grouped by category in the
// admin view. At most one source per category is active at a time.
type DataSource struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string     `gorm:"index;not null" json:"name"`
	Category    string     `gorm:"size:32;index;not null" json:"category"`
	IsActive    bool       `gorm:"default:false" json:"is_active"`
	LastUpdated *time.Time `json:"last_updated"`
}

// TableName specifies the table name for DataSource
func (DataSource) TableName() string {
	return "data_sources"
}

// Job records one ingestion or ranking run triggered by an operator or the
// scheduler. Details carries a human-readable summary, including per-record
// skip counts for runs that completed with degraded input.
type Job struct {
	ID        int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	JobType   string     `gorm:"size:32;not null" json:"job_type"`
	Status    string     `gorm:"size:16;not null;default:pending" json:"status"`
	StartTime time.Time  `gorm:"not null" json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Details   *string    `json:"details"`
}

// TableName specifies the table name for Job
func (Job) TableName() string {
	return "jobs"
}
