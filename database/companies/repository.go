package companies

import (
	"fmt"

	"gorm.io/gorm"

	models "stock-analyser/database/models_pkg"
)

// Repository handles database operations for companies
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new companies repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Upsert inserts a company or refreshes its descriptive fields on conflict.
// Derived fields (investment_score, target_price) are owned by the ranking
// pass and left alone here.
func (r *Repository) Upsert(c *models.Company) (bool, error) {
	var existing models.Company
	err := r.db.Where("ticker = ?", c.Ticker).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		if err := r.db.Create(c).Error; err != nil {
			return false, fmt.Errorf("Upsert: %w", err)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("Upsert: %w", err)
	}

	err = r.db.Model(&existing).Updates(map[string]interface{}{
		"name":       c.Name,
		"sector":     c.Sector,
		"industry":   c.Industry,
		"market_cap": c.MarketCap,
	}).Error
	if err != nil {
		return false, fmt.Errorf("Upsert: %w", err)
	}
	return false, nil
}

// Get retrieves one company, nil if unknown
func (r *Repository) Get(ticker string) (*models.Company, error) {
	var c models.Company
	err := r.db.Where("ticker = ?", ticker).First(&c).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &c, nil
}

// List returns one page of companies plus the total count, optionally
// filtered by sector. sortBy must already be validated against the allowed
// columns; nulls sort last so unscored companies stay at the bottom.
func (r *Repository) List(page, pageSize int, sortBy, sortOrder, sector string) ([]models.Company, int64, error) {
	base := r.db.Model(&models.Company{})
	if sector != "" {
		base = base.Where("sector = ?", sector)
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("List: count: %w", err)
	}

	var companies []models.Company
	err := base.
		Order(fmt.Sprintf("%s %s NULLS LAST", sortBy, sortOrder)).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&companies).Error
	if err != nil {
		return nil, 0, fmt.Errorf("List: %w", err)
	}
	return companies, total, nil
}

// Tickers returns all covered tickers
func (r *Repository) Tickers() ([]string, error) {
	var tickers []string
	if err := r.db.Model(&models.Company{}).Pluck("ticker", &tickers).Error; err != nil {
		return nil, fmt.Errorf("Tickers: %w", err)
	}
	return tickers, nil
}

// Sectors returns the distinct non-null sectors, sorted
func (r *Repository) Sectors() ([]string, error) {
	var sectors []string
	err := r.db.Model(&models.Company{}).
		Distinct("sector").
		Where("sector IS NOT NULL").
		Order("sector ASC").
		Pluck("sector", &sectors).Error
	if err != nil {
		return nil, fmt.Errorf("Sectors: %w", err)
	}
	return sectors, nil
}

// UpdateScores replaces the derived score fields for one company. Passing
// nil clears a field, which is how a company with no eligible ratings ends
// up with a null score.
func (r *Repository) UpdateScores(ticker string, investmentScore, targetPrice *float64) error {
	err := r.db.Model(&models.Company{}).
		Where("ticker = ?", ticker).
		Updates(map[string]interface{}{
			"investment_score": investmentScore,
			"target_price":     targetPrice,
		}).Error
	if err != nil {
		return fmt.Errorf("UpdateScores: %w", err)
	}
	return nil
}

// UpdateCurrentPrice sets the latest observed price for one company
func (r *Repository) UpdateCurrentPrice(ticker string, price float64) error {
	err := r.db.Model(&models.Company{}).
		Where("ticker = ?", ticker).
		Update("current_price", price).Error
	if err != nil {
		return fmt.Errorf("UpdateCurrentPrice: %w", err)
	}
	return nil
}
