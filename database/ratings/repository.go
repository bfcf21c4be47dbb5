package ratings

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	models "stock-analyser/database/models_pkg"
)

// Repository handles database operations for analysts and their ratings
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new ratings repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// RatingWithCompany is a rating joined with the covered company's name for
// the analyst detail view.
type RatingWithCompany struct {
	models.AnalystRating
	CompanyName *string
}

// RatingWithAnalyst is a rating joined with its issuing analyst for the
// company detail view.
type RatingWithAnalyst struct {
	models.AnalystRating
	AnalystName     *string
	Firm            *string
	ConfidenceScore *float64
}

// UpsertAnalyst inserts an analyst or refreshes name/firm on conflict.
// Derived fields (confidence, counts) are never touched here; they belong to
// the ranking pass.
func (r *Repository) UpsertAnalyst(a *models.Analyst) error {
	var existing models.Analyst
	err := r.db.Where("analyst_id = ?", a.AnalystID).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		if err := r.db.Create(a).Error; err != nil {
			return fmt.Errorf("UpsertAnalyst: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("UpsertAnalyst: %w", err)
	}

	err = r.db.Model(&existing).Updates(map[string]interface{}{
		"name": a.Name,
		"firm": a.Firm,
	}).Error
	if err != nil {
		return fmt.Errorf("UpsertAnalyst: %w", err)
	}
	return nil
}

// GetAnalyst retrieves one analyst, nil if unknown
func (r *Repository) GetAnalyst(analystID string) (*models.Analyst, error) {
	var a models.Analyst
	err := r.db.Where("analyst_id = ?", analystID).First(&a).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetAnalyst: %w", err)
	}
	return &a, nil
}

// ListAnalysts returns one page of analysts plus the total count.
// sortBy must already be validated against the allowed columns; nulls sort
// last in both directions so unranked analysts stay at the bottom.
func (r *Repository) ListAnalysts(page, pageSize int, sortBy, sortOrder string) ([]models.Analyst, int64, error) {
	var total int64
	if err := r.db.Model(&models.Analyst{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("ListAnalysts: count: %w", err)
	}

	var analysts []models.Analyst
	err := r.db.
		Order(fmt.Sprintf("%s %s NULLS LAST", sortBy, sortOrder)).
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&analysts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("ListAnalysts: %w", err)
	}
	return analysts, total, nil
}

// AnalystIDs returns all analyst ids
func (r *Repository) AnalystIDs() ([]string, error) {
	var ids []string
	if err := r.db.Model(&models.Analyst{}).Pluck("analyst_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("AnalystIDs: %w", err)
	}
	return ids, nil
}

// AllAnalysts returns every analyst row. The company scoring phase loads the
// confidence snapshot through this once per pass instead of per rating.
func (r *Repository) AllAnalysts() ([]models.Analyst, error) {
	var analysts []models.Analyst
	if err := r.db.Find(&analysts).Error; err != nil {
		return nil, fmt.Errorf("AllAnalysts: %w", err)
	}
	return analysts, nil
}

// UpdateAnalystStats replaces the derived aggregate fields for one analyst.
func (r *Repository) UpdateAnalystStats(analystID string, total, accurate int, score *float64) error {
	err := r.db.Model(&models.Analyst{}).
		Where("analyst_id = ?", analystID).
		Updates(map[string]interface{}{
			"total_ratings":    total,
			"accurate_ratings": accurate,
			"confidence_score": score,
		}).Error
	if err != nil {
		return fmt.Errorf("UpdateAnalystStats: %w", err)
	}
	return nil
}

// RatingExists reports whether a rating by this analyst for this ticker on
// this date is already stored. Ingestion dedups on this key.
func (r *Repository) RatingExists(analystID, ticker string, date time.Time) (bool, error) {
	var count int64
	err := r.db.Model(&models.AnalystRating{}).
		Where("analyst_id = ? AND ticker = ? AND rating_date = ?", analystID, ticker, date).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("RatingExists: %w", err)
	}
	return count > 0, nil
}

// SaveRating persists a new rating
func (r *Repository) SaveRating(rating *models.AnalystRating) error {
	if err := r.db.Create(rating).Error; err != nil {
		return fmt.Errorf("SaveRating: %w", err)
	}
	return nil
}

// ListForEvaluation returns the ratings the evaluation phase should visit.
// Normally only pending ratings (was_accurate IS NULL); with force true it
// returns everything, for re-evaluation after an upstream price correction.
func (r *Repository) ListForEvaluation(force bool) ([]models.AnalystRating, error) {
	var rows []models.AnalystRating
	query := r.db.Order("id ASC")
	if !force {
		query = query.Where("was_accurate IS NULL")
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("ListForEvaluation: %w", err)
	}
	return rows, nil
}

// UpdateEvaluation settles one rating's verdict. Both fields are written
// together to keep the pending invariant (non-null iff non-null).
func (r *Repository) UpdateEvaluation(ratingID int64, actualReturn float64, wasAccurate bool) error {
	err := r.db.Model(&models.AnalystRating{}).
		Where("id = ?", ratingID).
		Updates(map[string]interface{}{
			"actual_return": actualReturn,
			"was_accurate":  wasAccurate,
		}).Error
	if err != nil {
		return fmt.Errorf("UpdateEvaluation: %w", err)
	}
	return nil
}

// RatingsByAnalyst returns all of one analyst's ratings, newest first.
func (r *Repository) RatingsByAnalyst(analystID string) ([]models.AnalystRating, error) {
	var rows []models.AnalystRating
	err := r.db.Where("analyst_id = ?", analystID).Order("rating_date DESC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("RatingsByAnalyst: %w", err)
	}
	return rows, nil
}

// RatingsByAnalystWithCompany returns one analyst's ratings joined with
// company names, newest first, for the analyst detail endpoint.
func (r *Repository) RatingsByAnalystWithCompany(analystID string) ([]RatingWithCompany, error) {
	var rows []RatingWithCompany
	err := r.db.Model(&models.AnalystRating{}).
		Select("analyst_ratings.*, companies.name AS company_name").
		Joins("LEFT JOIN companies ON companies.ticker = analyst_ratings.ticker").
		Where("analyst_ratings.analyst_id = ?", analystID).
		Order("analyst_ratings.rating_date DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("RatingsByAnalystWithCompany: %w", err)
	}
	return rows, nil
}

// RatingsForTicker returns ratings on a ticker issued on or after since,
// newest first. The scoring phase feeds these to the current-rating selection.
func (r *Repository) RatingsForTicker(ticker string, since time.Time) ([]models.AnalystRating, error) {
	var rows []models.AnalystRating
	query := r.db.Where("ticker = ?", ticker).Order("rating_date DESC")
	if !since.IsZero() {
		query = query.Where("rating_date >= ?", since)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("RatingsForTicker: %w", err)
	}
	return rows, nil
}

// RatingsForTickerWithAnalyst returns a ticker's ratings joined with their
// issuing analysts, newest first, for the company detail endpoint.
func (r *Repository) RatingsForTickerWithAnalyst(ticker string) ([]RatingWithAnalyst, error) {
	var rows []RatingWithAnalyst
	err := r.db.Model(&models.AnalystRating{}).
		Select("analyst_ratings.*, analysts.name AS analyst_name, analysts.firm AS firm, analysts.confidence_score AS confidence_score").
		Joins("LEFT JOIN analysts ON analysts.analyst_id = analyst_ratings.analyst_id").
		Where("analyst_ratings.ticker = ?", ticker).
		Order("analyst_ratings.rating_date DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("RatingsForTickerWithAnalyst: %w", err)
	}
	return rows, nil
}
