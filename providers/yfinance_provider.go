package providers

import (
	"crypto/md5"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	models "stock-analyser/database/models_pkg"
)

const (
	yahooChartURL   = "https://query1.finance.yahoo.com/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d&events=div%%2Csplit"
	yahooSummaryURL = "https://query1.finance.yahoo.com/v10/finance/quoteSummary/%s?modules=upgradeDowngradeHistory"
	sp500CSVURL     = "https://raw.githubusercontent.com/datasets/s-and-p-500-companies/main/data/constituents.csv"
)

// Maps the grade strings Yahoo reports to our rating categories. Checked by
// substring, longest keys first, so "strong buy" wins over "buy".
var gradeMappings = []struct {
	key      string
	category string
}{
	{"strong buy", models.RatingStrongBuy},
	{"strong sell", models.RatingStrongSell},
	{"outperform", models.RatingBuy},
	{"overweight", models.RatingBuy},
	{"underperform", models.RatingSell},
	{"underweight", models.RatingSell},
	{"equal-weight", models.RatingHold},
	{"sector perform", models.RatingHold},
	{"market perform", models.RatingHold},
	{"neutral", models.RatingHold},
	{"hold", models.RatingHold},
	{"sell", models.RatingSell},
	{"buy", models.RatingBuy},
}

// YahooProvider fetches prices, company lists and analyst grades from the
// public Yahoo Finance JSON endpoints. Analysts are synthesized from firm
// names since Yahoo only attributes grades to firms.
type YahooProvider struct {
	client *http.Client

	mu       sync.Mutex
	analysts map[string]AnalystData
}

func NewYahooProvider() *YahooProvider {
	return &YahooProvider{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		analysts: make(map[string]AnalystData),
	}
}

// Companies fetches the S&P 500 constituent list with a hardcoded fallback
// when the remote CSV is unreachable.
func (y *YahooProvider) Companies() ([]CompanyData, error) {
	companies, err := y.fetchSP500CSV()
	if err != nil {
		log.Printf("⚠️  S&P 500 CSV fetch failed, using fallback list: %v", err)
		return fallbackCompanies(), nil
	}
	log.Printf("📊 Loaded %d companies from S&P 500 constituents CSV", len(companies))
	return companies, nil
}

func (y *YahooProvider) fetchSP500CSV() ([]CompanyData, error) {
	resp, err := y.client.Get(sp500CSVURL)
	if err != nil {
		return nil, fmt.Errorf("fetchSP500CSV: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetchSP500CSV: status %d", resp.StatusCode)
	}

	reader := csv.NewReader(resp.Body)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("fetchSP500CSV: read header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{"Symbol", "Security"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("fetchSP500CSV: missing column %q", required)
		}
	}

	var companies []CompanyData
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("fetchSP500CSV: read row: %w", err)
		}

		// Yahoo uses dashes where the index uses dots (BRK.B -> BRK-B)
		ticker := strings.ReplaceAll(record[col["Symbol"]], ".", "-")
		company := CompanyData{
			Ticker: ticker,
			Name:   record[col["Security"]],
		}
		if i, ok := col["GICS Sector"]; ok && record[i] != "" {
			sector := record[i]
			company.Sector = &sector
		}
		if i, ok := col["GICS Sub-Industry"]; ok && record[i] != "" {
			industry := record[i]
			company.Industry = &industry
		}
		companies = append(companies, company)
	}

	if len(companies) == 0 {
		return nil, fmt.Errorf("fetchSP500CSV: empty constituent list")
	}
	return companies, nil
}

type chartQuote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

type chartResult struct {
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote    []chartQuote `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
	Meta struct {
		RegularMarketPrice *float64 `json:"regularMarketPrice"`
	} `json:"meta"`
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// PriceHistory fetches daily bars from the Yahoo chart API. Rows with any
// missing field are skipped.
func (y *YahooProvider) PriceHistory(ticker string, start, end time.Time) ([]PriceData, error) {
	chart, err := y.fetchChart(ticker, start, end)
	if err != nil {
		return nil, err
	}
	return barsFromChart(ticker, chart.Chart.Result[0]), nil
}

// barsFromChart converts one chart result into daily bars. Yahoo sometimes
// returns ragged quote arrays, so every series is bounds-checked against the
// timestamp index before dereferencing.
func barsFromChart(ticker string, result chartResult) []PriceData {
	if len(result.Indicators.Quote) == 0 {
		return nil
	}
	quote := result.Indicators.Quote[0]

	var adjClose []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adjClose = result.Indicators.AdjClose[0].AdjClose
	}

	var prices []PriceData
	for i, ts := range result.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) ||
			i >= len(quote.Close) || i >= len(quote.Volume) {
			break
		}
		if quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil ||
			quote.Close[i] == nil || quote.Volume[i] == nil {
			continue
		}

		adj := *quote.Close[i]
		if i < len(adjClose) && adjClose[i] != nil {
			adj = *adjClose[i]
		}

		prices = append(prices, PriceData{
			Ticker:   ticker,
			Date:     time.Unix(ts, 0).UTC().Truncate(24 * time.Hour),
			Open:     *quote.Open[i],
			High:     *quote.High[i],
			Low:      *quote.Low[i],
			Close:    *quote.Close[i],
			AdjClose: adj,
			Volume:   *quote.Volume[i],
		})
	}
	return prices
}

// CurrentPrice returns the regular market price from chart metadata
func (y *YahooProvider) CurrentPrice(ticker string) (float64, bool, error) {
	now := time.Now().UTC()
	chart, err := y.fetchChart(ticker, now.AddDate(0, 0, -5), now)
	if err != nil {
		return 0, false, err
	}

	meta := chart.Chart.Result[0].Meta
	if meta.RegularMarketPrice != nil {
		return *meta.RegularMarketPrice, true, nil
	}

	// Fall back to the last available close
	quotes := chart.Chart.Result[0].Indicators.Quote
	if len(quotes) > 0 {
		for i := len(quotes[0].Close) - 1; i >= 0; i-- {
			if quotes[0].Close[i] != nil {
				return *quotes[0].Close[i], true, nil
			}
		}
	}
	return 0, false, nil
}

func (y *YahooProvider) fetchChart(ticker string, start, end time.Time) (*chartResponse, error) {
	reqURL := fmt.Sprintf(yahooChartURL, url.PathEscape(ticker), start.Unix(), end.Unix())
	body, err := y.getJSON(reqURL)
	if err != nil {
		return nil, fmt.Errorf("fetchChart %s: %w", ticker, err)
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("fetchChart %s: decode: %w", ticker, err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("fetchChart %s: %s: %s", ticker, chart.Chart.Error.Code, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("fetchChart %s: empty result", ticker)
	}
	return &chart, nil
}

type upgradeDowngradeResponse struct {
	QuoteSummary struct {
		Result []struct {
			UpgradeDowngradeHistory struct {
				History []struct {
					EpochGradeDate int64  `json:"epochGradeDate"`
					Firm           string `json:"firm"`
					ToGrade        string `json:"toGrade"`
					FromGrade      string `json:"fromGrade"`
					Action         string `json:"action"`
				} `json:"history"`
			} `json:"upgradeDowngradeHistory"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// RatingsForCompany fetches the upgrade/downgrade history and converts each
// grade to a rating. Firms are registered as analysts as they are seen.
func (y *YahooProvider) RatingsForCompany(ticker string, start, end time.Time) ([]RatingData, error) {
	reqURL := fmt.Sprintf(yahooSummaryURL, url.PathEscape(ticker))
	body, err := y.getJSON(reqURL)
	if err != nil {
		return nil, fmt.Errorf("RatingsForCompany %s: %w", ticker, err)
	}

	var summary upgradeDowngradeResponse
	if err := json.Unmarshal(body, &summary); err != nil {
		return nil, fmt.Errorf("RatingsForCompany %s: decode: %w", ticker, err)
	}
	if summary.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("RatingsForCompany %s: %s", ticker, summary.QuoteSummary.Error.Description)
	}
	if len(summary.QuoteSummary.Result) == 0 {
		return nil, nil
	}

	var ratings []RatingData
	for _, entry := range summary.QuoteSummary.Result[0].UpgradeDowngradeHistory.History {
		if entry.Firm == "" || entry.ToGrade == "" {
			continue
		}

		date := time.Unix(entry.EpochGradeDate, 0).UTC().Truncate(24 * time.Hour)
		if !start.IsZero() && date.Before(start) {
			continue
		}
		if !end.IsZero() && date.After(end) {
			continue
		}

		ratings = append(ratings, RatingData{
			AnalystID: y.registerFirm(entry.Firm),
			Ticker:    ticker,
			Date:      date,
			Rating:    mapGrade(entry.ToGrade),
		})
	}
	return ratings, nil
}

// Analysts returns the firms seen so far. Ratings must be fetched first.
func (y *YahooProvider) Analysts() ([]AnalystData, error) {
	y.mu.Lock()
	defer y.mu.Unlock()

	out := make([]AnalystData, 0, len(y.analysts))
	for _, a := range y.analysts {
		out = append(out, a)
	}
	return out, nil
}

// registerFirm derives a stable analyst id from the firm name
func (y *YahooProvider) registerFirm(firm string) string {
	sum := md5.Sum([]byte(firm))
	id := hex.EncodeToString(sum[:])[:8]

	y.mu.Lock()
	defer y.mu.Unlock()
	if _, ok := y.analysts[id]; !ok {
		y.analysts[id] = AnalystData{
			AnalystID: id,
			Name:      fmt.Sprintf("Analyst at %s", firm),
			Firm:      firm,
		}
	}
	return id
}

func mapGrade(grade string) string {
	lower := strings.ToLower(grade)
	for _, m := range gradeMappings {
		if strings.Contains(lower, m.key) {
			return m.category
		}
	}
	return models.RatingHold
}

func (y *YahooProvider) getJSON(reqURL string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	// Yahoo rejects requests without a browser-like user agent
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func fallbackCompanies() []CompanyData {
	entries := []struct {
		ticker, name, sector, industry string
	}{
		{"AAPL", "Apple Inc.", "Information Technology", "Technology Hardware"},
		{"MSFT", "Microsoft Corporation", "Information Technology", "Software"},
		{"GOOGL", "Alphabet Inc.", "Communication Services", "Interactive Media"},
		{"AMZN", "Amazon.com Inc.", "Consumer Discretionary", "Broadline Retail"},
		{"NVDA", "NVIDIA Corporation", "Information Technology", "Semiconductors"},
		{"META", "Meta Platforms Inc.", "Communication Services", "Interactive Media"},
		{"TSLA", "Tesla Inc.", "Consumer Discretionary", "Automobiles"},
		{"BRK-B", "Berkshire Hathaway Inc.", "Financials", "Multi-Sector Holdings"},
		{"UNH", "UnitedHealth Group Inc.", "Health Care", "Managed Health Care"},
		{"JNJ", "Johnson & Johnson", "Health Care", "Pharmaceuticals"},
		{"V", "Visa Inc.", "Financials", "Transaction Processing"},
		{"XOM", "Exxon Mobil Corporation", "Energy", "Oil & Gas"},
		{"JPM", "JPMorgan Chase & Co.", "Financials", "Diversified Banks"},
		{"WMT", "Walmart Inc.", "Consumer Staples", "Consumer Staples Merch."},
		{"MA", "Mastercard Incorporated", "Financials", "Transaction Processing"},
		{"PG", "Procter & Gamble Company", "Consumer Staples", "Household Products"},
		{"HD", "The Home Depot Inc.", "Consumer Discretionary", "Home Improvement"},
		{"CVX", "Chevron Corporation", "Energy", "Oil & Gas"},
		{"MRK", "Merck & Co. Inc.", "Health Care", "Pharmaceuticals"},
		{"LLY", "Eli Lilly and Company", "Health Care", "Pharmaceuticals"},
	}

	out := make([]CompanyData, 0, len(entries))
	for _, e := range entries {
		sector := e.sector
		industry := e.industry
		out = append(out, CompanyData{
			Ticker:   e.ticker,
			Name:     e.name,
			Sector:   &sector,
			Industry: &industry,
		})
	}
	return out
}
