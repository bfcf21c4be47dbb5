package api

import (
	"fmt"
	"net/http"
	"time"

	models "stock-analyser/database/models_pkg"
)

// CompanySummary is one row of the company ranking list
type CompanySummary struct {
	Ticker          string   `json:"ticker"`
	Name            string   `json:"name"`
	Sector          *string  `json:"sector"`
	CurrentPrice    *float64 `json:"current_price"`
	TargetPrice     *float64 `json:"target_price"`
	InvestmentScore *float64 `json:"investment_score"`
}

// CompanyDetail extends the summary with descriptive fields and the ratings
// currently on the ticker.
type CompanyDetail struct {
	CompanySummary
	Industry       *string         `json:"industry"`
	MarketCap      *float64        `json:"market_cap"`
	AnalystRatings []CompanyRating `json:"analyst_ratings"`
}

// CompanyRating is one rating in the company detail view, joined with its
// issuing analyst.
type CompanyRating struct {
	AnalystID       string   `json:"analyst_id"`
	AnalystName     string   `json:"analyst_name"`
	Firm            string   `json:"firm"`
	ConfidenceScore *float64 `json:"confidence_score"`
	Date            string   `json:"date"`
	Rating          string   `json:"rating"`
	PriceTarget     *float64 `json:"price_target"`
}

// PricePoint is one daily bar in a price series response
type PricePoint struct {
	Date   string  `json:"date"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// BenchmarkPoint is one daily close in a benchmark series response
type BenchmarkPoint struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

var companySortColumns = map[string]bool{
	"investment_score": true,
	"target_price":     true,
	"current_price":    true,
	"market_cap":       true,
	"ticker":           true,
	"name":             true,
}

// handleListCompanies returns the paginated company ranking, optionally
// filtered by sector, by default highest investment score first with
// unscored companies last.
func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	one := 1
	maxSize := maxPageSize
	page := getIntParam(r, "page", 1, &one, nil)
	pageSize := getIntParam(r, "page_size", defaultPageSize, &one, &maxSize)
	sortBy, sortOrder := getSortParams(r, companySortColumns, "investment_score", "desc")
	sector := r.URL.Query().Get("sector")

	key := fmt.Sprintf("companies:list:%d:%d:%s:%s:%s", page, pageSize, sortBy, sortOrder, sector)
	s.serveCached(w, r, key, func() (interface{}, error) {
		rows, total, err := s.companyRepo.List(page, pageSize, sortBy, sortOrder, sector)
		if err != nil {
			return nil, err
		}

		items := make([]CompanySummary, 0, len(rows))
		for i := range rows {
			items = append(items, toCompanySummary(&rows[i]))
		}
		return newPaginatedResponse(items, total, page, pageSize), nil
	})
}

// handleGetCompany returns one company with its current analyst ratings
func (s *Server) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	ticker := r.PathValue("ticker")

	company, err := s.companyRepo.Get(ticker)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load company", err)
		return
	}
	if company == nil {
		respondWithError(w, http.StatusNotFound, "Company not found", nil)
		return
	}

	rows, err := s.analystRepo.RatingsForTickerWithAnalyst(ticker)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load ratings", err)
		return
	}

	detail := CompanyDetail{
		CompanySummary: toCompanySummary(company),
		Industry:       company.Industry,
		MarketCap:      company.MarketCap,
		AnalystRatings: make([]CompanyRating, 0, len(rows)),
	}
	for i := range rows {
		row := rows[i]
		cr := CompanyRating{
			AnalystID:       row.AnalystID,
			ConfidenceScore: row.ConfidenceScore,
			Date:            row.RatingDate.UTC().Format(apiDateFormat),
			Rating:          row.Rating,
			PriceTarget:     row.PriceTarget,
		}
		if row.AnalystName != nil {
			cr.AnalystName = *row.AnalystName
		}
		if row.Firm != nil {
			cr.Firm = *row.Firm
		}
		detail.AnalystRatings = append(detail.AnalystRatings, cr)
	}

	writeJSON(w, http.StatusOK, detail)
}

// handleCompanyPrices returns the daily bars for a ticker over the
// requested number of days (default one year).
func (s *Server) handleCompanyPrices(w http.ResponseWriter, r *http.Request) {
	ticker := r.PathValue("ticker")
	one := 1
	days := getIntParam(r, "days", 365, &one, nil)

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)

	rows, err := s.priceRepo.GetPriceRange(ticker, start, end)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load prices", err)
		return
	}

	points := make([]PricePoint, 0, len(rows))
	for i := range rows {
		p := rows[i]
		points = append(points, PricePoint{
			Date:   p.PriceDate.UTC().Format(apiDateFormat),
			Open:   p.Open,
			High:   p.High,
			Low:    p.Low,
			Close:  p.Close,
			Volume: p.Volume,
		})
	}
	writeJSON(w, http.StatusOK, points)
}

// handleBenchmarkPrices returns the benchmark close series for a symbol
func (s *Server) handleBenchmarkPrices(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	one := 1
	days := getIntParam(r, "days", 365, &one, nil)

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -days)

	rows, err := s.priceRepo.GetBenchmarkRange(symbol, start, end)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load benchmark prices", err)
		return
	}

	points := make([]BenchmarkPoint, 0, len(rows))
	for i := range rows {
		points = append(points, BenchmarkPoint{
			Date:  rows[i].PriceDate.UTC().Format(apiDateFormat),
			Close: rows[i].Close,
		})
	}
	writeJSON(w, http.StatusOK, points)
}

// handleListSectors returns the distinct sectors under coverage
func (s *Server) handleListSectors(w http.ResponseWriter, r *http.Request) {
	s.serveCached(w, r, "companies:sectors", func() (interface{}, error) {
		sectors, err := s.companyRepo.Sectors()
		if err != nil {
			return nil, err
		}
		if sectors == nil {
			sectors = []string{}
		}
		return sectors, nil
	})
}

func toCompanySummary(c *models.Company) CompanySummary {
	return CompanySummary{
		Ticker:          c.Ticker,
		Name:            c.Name,
		Sector:          c.Sector,
		CurrentPrice:    c.CurrentPrice,
		TargetPrice:     c.TargetPrice,
		InvestmentScore: c.InvestmentScore,
	}
}
