package jobs

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"stock-analyser/database"
	models "stock-analyser/database/models_pkg"
)

// Repository handles database operations for jobs and the data source registry
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new jobs repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateJob persists a new job record
func (r *Repository) CreateJob(job *models.Job) error {
	if err := r.db.Create(job).Error; err != nil {
		return fmt.Errorf("CreateJob: %w", err)
	}
	return nil
}

// UpdateJob saves job status transitions
func (r *Repository) UpdateJob(job *models.Job) error {
	if err := r.db.Save(job).Error; err != nil {
		return fmt.Errorf("UpdateJob: %w", err)
	}
	return nil
}

// GetJob retrieves one job by id, nil if unknown
func (r *Repository) GetJob(id int64) (*models.Job, error) {
	var job models.Job
	err := r.db.First(&job, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetJob: %w", err)
	}
	return &job, nil
}

// ListJobs returns the most recent jobs, newest first
func (r *Repository) ListJobs(limit int) ([]models.Job, error) {
	var rows []models.Job
	query := r.db.Order("start_time DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("ListJobs: %w", err)
	}
	return rows, nil
}

// ListSourcesGrouped returns all data sources keyed by category. Every known
// category appears in the map even when it has no sources, so the admin view
// renders a stable set of groups.
func (r *Repository) ListSourcesGrouped() (map[string][]models.DataSource, error) {
	var sources []models.DataSource
	if err := r.db.Order("name ASC").Find(&sources).Error; err != nil {
		return nil, fmt.Errorf("ListSourcesGrouped: %w", err)
	}

	grouped := make(map[string][]models.DataSource, len(models.DataSourceCategories))
	for _, cat := range models.DataSourceCategories {
		grouped[cat] = []models.DataSource{}
	}
	for _, s := range sources {
		grouped[s.Category] = append(grouped[s.Category], s)
	}
	return grouped, nil
}

// ActivateSource marks one source active and deactivates its category
// siblings, keeping at most one active source per category. An unknown id
// yields a database.NotFoundError.
func (r *Repository) ActivateSource(id int64) (*models.DataSource, error) {
	var source models.DataSource
	err := r.db.First(&source, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, &database.NotFoundError{Resource: "data source", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("ActivateSource: %w", err)
	}

	err = r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.DataSource{}).
			Where("category = ?", source.Category).
			Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.DataSource{}).
			Where("id = ?", id).
			Update("is_active", true).Error
	})
	if err != nil {
		return nil, fmt.Errorf("ActivateSource: %w", err)
	}

	source.IsActive = true
	return &source, nil
}

// ActiveSource returns the active source for a category, nil if none
func (r *Repository) ActiveSource(category string) (*models.DataSource, error) {
	var source models.DataSource
	err := r.db.Where("category = ? AND is_active = ?", category, true).First(&source).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ActiveSource: %w", err)
	}
	return &source, nil
}

// TouchSource stamps last_updated on a source after a successful ingestion
func (r *Repository) TouchSource(name string) error {
	now := time.Now().UTC()
	err := r.db.Model(&models.DataSource{}).
		Where("name = ?", name).
		Update("last_updated", now).Error
	if err != nil {
		return fmt.Errorf("TouchSource: %w", err)
	}
	return nil
}

// SeedDefaults registers the built-in providers once. Existing rows are left
// untouched so operator activation choices survive restarts.
func (r *Repository) SeedDefaults() error {
	defaults := []models.DataSource{
		{Name: "YFinance", Category: models.CategoryStockPrices, IsActive: true},
		{Name: "YFinance", Category: models.CategoryCompanyInfo, IsActive: true},
		{Name: "YFinance", Category: models.CategoryAnalystRatings},
		{Name: "FMP", Category: models.CategoryAnalystRatings},
		{Name: "Mock", Category: models.CategoryAnalystRatings, IsActive: true},
	}

	for _, d := range defaults {
		var count int64
		err := r.db.Model(&models.DataSource{}).
			Where("name = ? AND category = ?", d.Name, d.Category).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("SeedDefaults: %w", err)
		}
		if count > 0 {
			continue
		}
		if err := r.db.Create(&d).Error; err != nil {
			return fmt.Errorf("SeedDefaults: %w", err)
		}
	}
	return nil
}
