package providers

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	models "stock-analyser/database/models_pkg"
)

const fmpBaseURL = "https://financialmodelingprep.com/api/v3"

// FMPProvider fetches analyst upgrades and downgrades from the Financial
// Modeling Prep API. Unlike Yahoo it attributes price targets to grades.
type FMPProvider struct {
	apiKey string
	client *http.Client

	mu       sync.Mutex
	analysts map[string]AnalystData
}

func NewFMPProvider(apiKey string) *FMPProvider {
	return &FMPProvider{
		apiKey: apiKey,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		analysts: make(map[string]AnalystData),
	}
}

// Configured reports whether an API key is present
func (f *FMPProvider) Configured() bool {
	return f.apiKey != ""
}

type fmpGradeEntry struct {
	Symbol         string   `json:"symbol"`
	PublishedDate  string   `json:"publishedDate"`
	GradingCompany string   `json:"gradingCompany"`
	NewGrade       string   `json:"newGrade"`
	PreviousGrade  string   `json:"previousGrade"`
	PriceTarget    *float64 `json:"priceTarget"`
}

// RatingsForCompany fetches the upgrades-downgrades feed for one ticker
func (f *FMPProvider) RatingsForCompany(ticker string, start, end time.Time) ([]RatingData, error) {
	if f.apiKey == "" {
		return nil, fmt.Errorf("RatingsForCompany: FMP API key not configured")
	}

	reqURL := fmt.Sprintf("%s/upgrades-downgrades?symbol=%s&apikey=%s",
		fmpBaseURL, url.QueryEscape(ticker), url.QueryEscape(f.apiKey))

	resp, err := f.client.Get(reqURL)
	if err != nil {
		return nil, fmt.Errorf("RatingsForCompany %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("RatingsForCompany %s: status %d", ticker, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("RatingsForCompany %s: %w", ticker, err)
	}

	var entries []fmpGradeEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("RatingsForCompany %s: decode: %w", ticker, err)
	}

	var ratings []RatingData
	for _, entry := range entries {
		if entry.GradingCompany == "" || entry.NewGrade == "" {
			continue
		}

		date, ok := parseFMPDate(entry.PublishedDate)
		if !ok {
			continue
		}
		if !start.IsZero() && date.Before(start) {
			continue
		}
		if !end.IsZero() && date.After(end) {
			continue
		}

		target := entry.PriceTarget
		if target != nil && *target == 0 {
			target = nil
		}

		ratings = append(ratings, RatingData{
			AnalystID:   f.registerFirm(entry.GradingCompany),
			Ticker:      ticker,
			Date:        date,
			Rating:      mapFMPGrade(entry.NewGrade),
			PriceTarget: target,
		})
	}
	return ratings, nil
}

// Analysts returns the grading firms seen so far
func (f *FMPProvider) Analysts() ([]AnalystData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]AnalystData, 0, len(f.analysts))
	for _, a := range f.analysts {
		out = append(out, a)
	}
	return out, nil
}

func (f *FMPProvider) registerFirm(firm string) string {
	sum := md5.Sum([]byte(firm))
	id := hex.EncodeToString(sum[:])[:8]

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.analysts[id]; !ok {
		f.analysts[id] = AnalystData{
			AnalystID: id,
			Name:      fmt.Sprintf("Analyst at %s", firm),
			Firm:      firm,
		}
	}
	return id
}

// parseFMPDate handles both plain dates and RFC3339-ish timestamps
func parseFMPDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if i := strings.IndexByte(raw, 'T'); i >= 0 {
		raw = raw[:i]
	} else if i := strings.IndexByte(raw, ' '); i >= 0 {
		raw = raw[:i]
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

func mapFMPGrade(grade string) string {
	lower := strings.ToLower(grade)
	switch {
	case strings.Contains(lower, "strong buy"), strings.Contains(lower, "hard buy"):
		return models.RatingStrongBuy
	case strings.Contains(lower, "strong sell"):
		return models.RatingStrongSell
	case strings.Contains(lower, "buy"):
		return models.RatingBuy
	case strings.Contains(lower, "sell"):
		return models.RatingSell
	case strings.Contains(lower, "hold"), strings.Contains(lower, "neutral"):
		return models.RatingHold
	default:
		return models.RatingHold
	}
}
