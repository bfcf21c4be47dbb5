package api

import (
	"fmt"
	"net/http"

	"stock-analyser/database/ratings"
)

// Date format used on all API surfaces.
const apiDateFormat = "2006-01-02"

// AnalystSummary is one row of the analyst ranking list
type AnalystSummary struct {
	AnalystID       string   `json:"analyst_id"`
	Name            string   `json:"name"`
	Firm            string   `json:"firm"`
	ConfidenceScore *float64 `json:"confidence_score"`
	TotalRatings    int      `json:"total_ratings"`
}

// AnalystDetail extends the summary with the full rating history
type AnalystDetail struct {
	AnalystSummary
	AccurateRatings int             `json:"accurate_ratings"`
	Ratings         []RatingSummary `json:"ratings"`
}

// RatingSummary is one historical rating in the analyst detail view
type RatingSummary struct {
	Ticker       string   `json:"ticker"`
	CompanyName  *string  `json:"company_name"`
	Date         string   `json:"date"`
	Rating       string   `json:"rating"`
	PriceTarget  *float64 `json:"price_target"`
	WasAccurate  *bool    `json:"was_accurate"`
	ActualReturn *float64 `json:"actual_return"`
}

var analystSortColumns = map[string]bool{
	"confidence_score": true,
	"total_ratings":    true,
	"accurate_ratings": true,
	"name":             true,
	"firm":             true,
}

// handleListAnalysts returns the paginated analyst ranking, by default
// highest confidence first with unranked analysts last.
func (s *Server) handleListAnalysts(w http.ResponseWriter, r *http.Request) {
	one := 1
	maxSize := maxPageSize
	page := getIntParam(r, "page", 1, &one, nil)
	pageSize := getIntParam(r, "page_size", defaultPageSize, &one, &maxSize)
	sortBy, sortOrder := getSortParams(r, analystSortColumns, "confidence_score", "desc")

	key := fmt.Sprintf("analysts:list:%d:%d:%s:%s", page, pageSize, sortBy, sortOrder)
	s.serveCached(w, r, key, func() (interface{}, error) {
		rows, total, err := s.analystRepo.ListAnalysts(page, pageSize, sortBy, sortOrder)
		if err != nil {
			return nil, err
		}

		items := make([]AnalystSummary, 0, len(rows))
		for i := range rows {
			a := rows[i]
			items = append(items, AnalystSummary{
				AnalystID:       a.AnalystID,
				Name:            a.Name,
				Firm:            a.Firm,
				ConfidenceScore: a.ConfidenceScore,
				TotalRatings:    a.TotalRatings,
			})
		}
		return newPaginatedResponse(items, total, page, pageSize), nil
	})
}

// handleGetAnalyst returns one analyst with the full rating history
func (s *Server) handleGetAnalyst(w http.ResponseWriter, r *http.Request) {
	analystID := r.PathValue("id")

	analyst, err := s.analystRepo.GetAnalyst(analystID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load analyst", err)
		return
	}
	if analyst == nil {
		respondWithError(w, http.StatusNotFound, "Analyst not found", nil)
		return
	}

	rows, err := s.analystRepo.RatingsByAnalystWithCompany(analystID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load ratings", err)
		return
	}

	detail := AnalystDetail{
		AnalystSummary: AnalystSummary{
			AnalystID:       analyst.AnalystID,
			Name:            analyst.Name,
			Firm:            analyst.Firm,
			ConfidenceScore: analyst.ConfidenceScore,
			TotalRatings:    analyst.TotalRatings,
		},
		AccurateRatings: analyst.AccurateRatings,
		Ratings:         make([]RatingSummary, 0, len(rows)),
	}
	for i := range rows {
		detail.Ratings = append(detail.Ratings, toRatingSummary(&rows[i]))
	}

	writeJSON(w, http.StatusOK, detail)
}

func toRatingSummary(r *ratings.RatingWithCompany) RatingSummary {
	return RatingSummary{
		Ticker:       r.Ticker,
		CompanyName:  r.CompanyName,
		Date:         r.RatingDate.UTC().Format(apiDateFormat),
		Rating:       r.Rating,
		PriceTarget:  r.PriceTarget,
		WasAccurate:  r.WasAccurate,
		ActualReturn: r.ActualReturn,
	}
}
