package app

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"stock-analyser/config"
	"stock-analyser/database"
	"stock-analyser/database/companies"
	"stock-analyser/database/jobs"
	models "stock-analyser/database/models_pkg"
	"stock-analyser/database/prices"
	"stock-analyser/database/ratings"
	"stock-analyser/providers"
)

// IngestionService pulls companies, prices and ratings from the configured
// providers into the database. Price history is incremental: each ticker
// resumes from the day after its latest stored bar. Ratings are deduplicated
// on (analyst, ticker, date) so replays are harmless.
type IngestionService struct {
	companyRepo *companies.Repository
	priceRepo   *prices.Repository
	ratingRepo  *ratings.Repository
	jobRepo     *jobs.Repository
	bulk        *database.BulkWriter

	stock      providers.StockProvider
	ratingFeed providers.RatingsProvider

	benchmarkSymbol string
	priceYears      int
	workers         int
}

func NewIngestionService(
	companyRepo *companies.Repository,
	priceRepo *prices.Repository,
	ratingRepo *ratings.Repository,
	jobRepo *jobs.Repository,
	bulk *database.BulkWriter,
	stock providers.StockProvider,
	ratingFeed providers.RatingsProvider,
	cfg config.Config,
) *IngestionService {
	workers := cfg.Ranking.Workers
	if workers < 1 {
		workers = 1
	}
	return &IngestionService{
		companyRepo:     companyRepo,
		priceRepo:       priceRepo,
		ratingRepo:      ratingRepo,
		jobRepo:         jobRepo,
		bulk:            bulk,
		stock:           stock,
		ratingFeed:      ratingFeed,
		benchmarkSymbol: cfg.Providers.BenchmarkSymbol,
		priceYears:      cfg.Providers.PriceYears,
		workers:         workers,
	}
}

// IngestStats summarizes one ingestion run for the job record.
type IngestStats struct {
	CompaniesAdded   int
	CompaniesUpdated int
	PricesInserted   int
	BenchmarkRows    int
	CurrentPrices    int
	AnalystsUpserted int
	RatingsAdded     int
	RatingsSkipped   int
	Problems         []string
	problemsDropped  int
}

// Summary renders the stats as the human-readable job details string.
func (s *IngestStats) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "companies=%d/%d prices=%d benchmark=%d current=%d analysts=%d ratings=%d skipped=%d",
		s.CompaniesAdded, s.CompaniesUpdated, s.PricesInserted, s.BenchmarkRows,
		s.CurrentPrices, s.AnalystsUpserted, s.RatingsAdded, s.RatingsSkipped)
	for _, p := range s.Problems {
		b.WriteString("; ")
		b.WriteString(p)
	}
	if s.problemsDropped > 0 {
		fmt.Fprintf(&b, "; +%d more", s.problemsDropped)
	}
	return b.String()
}

func (s *IngestStats) addProblem(msg string) {
	if len(s.Problems) >= maxReportedProblems {
		s.problemsDropped++
		return
	}
	s.Problems = append(s.Problems, msg)
}

// RunFullIngestion runs every ingestion step in dependency order: the
// company universe first, then the series and ratings that hang off it.
func (s *IngestionService) RunFullIngestion() (*IngestStats, error) {
	stats := &IngestStats{}

	log.Println("🚀 Full ingestion starting...")
	if err := s.IngestCompanies(stats); err != nil {
		return stats, fmt.Errorf("ingest companies: %w", err)
	}
	if err := s.IngestPrices(stats); err != nil {
		return stats, fmt.Errorf("ingest prices: %w", err)
	}
	if err := s.IngestBenchmark(stats); err != nil {
		return stats, fmt.Errorf("ingest benchmark: %w", err)
	}
	if err := s.IngestCurrentPrices(stats); err != nil {
		return stats, fmt.Errorf("ingest current prices: %w", err)
	}
	if err := s.IngestRatings(stats); err != nil {
		return stats, fmt.Errorf("ingest ratings: %w", err)
	}
	log.Printf("✅ Full ingestion done: %s", stats.Summary())
	return stats, nil
}

// IngestCompanies upserts the provider's company universe
func (s *IngestionService) IngestCompanies(stats *IngestStats) error {
	list, err := s.stock.Companies()
	if err != nil {
		return err
	}

	for i := range list {
		c := list[i]
		created, err := s.companyRepo.Upsert(&models.Company{
			Ticker:    c.Ticker,
			Name:      c.Name,
			Sector:    c.Sector,
			Industry:  c.Industry,
			MarketCap: c.MarketCap,
		})
		if err != nil {
			stats.addProblem(fmt.Sprintf("company %s: %v", c.Ticker, err))
			continue
		}
		if created {
			stats.CompaniesAdded++
		} else {
			stats.CompaniesUpdated++
		}
	}

	s.touchSource(models.CategoryCompanyInfo)
	log.Printf("📊 Companies ingested: %d new, %d updated", stats.CompaniesAdded, stats.CompaniesUpdated)
	return nil
}

// IngestPrices fetches daily bars for every covered ticker, resuming each
// from the day after its latest stored bar.
func (s *IngestionService) IngestPrices(stats *IngestStats) error {
	tickers, err := s.companyRepo.Tickers()
	if err != nil {
		return err
	}

	end := time.Now().UTC()
	defaultStart := end.AddDate(-s.priceYears, 0, 0)

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, s.workers)
	)

	for _, t := range tickers {
		ticker := t

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			start := defaultStart
			latest, err := s.priceRepo.LatestPriceDate(ticker)
			if err != nil {
				mu.Lock()
				stats.addProblem(fmt.Sprintf("prices %s: %v", ticker, err))
				mu.Unlock()
				return
			}
			if latest != nil {
				start = latest.AddDate(0, 0, 1)
			}
			if !start.Before(end) {
				return // already up to date
			}

			history, err := s.stock.PriceHistory(ticker, start, end)
			if err != nil {
				mu.Lock()
				stats.addProblem(fmt.Sprintf("prices %s: %v", ticker, err))
				mu.Unlock()
				return
			}

			rows := make([]models.StockPrice, 0, len(history))
			for _, p := range history {
				if latest != nil && !p.Date.After(*latest) {
					continue
				}
				rows = append(rows, models.StockPrice{
					Ticker:    ticker,
					PriceDate: p.Date,
					Open:      p.Open,
					High:      p.High,
					Low:       p.Low,
					Close:     p.Close,
					AdjClose:  p.AdjClose,
					Volume:    p.Volume,
				})
			}
			if len(rows) == 0 {
				return
			}

			n, err := s.bulk.InsertStockPrices(rows)
			if err != nil {
				mu.Lock()
				stats.addProblem(fmt.Sprintf("prices %s: bulk insert: %v", ticker, err))
				mu.Unlock()
				return
			}

			mu.Lock()
			stats.PricesInserted += n
			mu.Unlock()
		}()
	}
	wg.Wait()

	s.touchSource(models.CategoryStockPrices)
	log.Printf("📊 Price bars inserted: %d", stats.PricesInserted)
	return nil
}

// IngestBenchmark refreshes the benchmark close series
func (s *IngestionService) IngestBenchmark(stats *IngestStats) error {
	end := time.Now().UTC()
	start := end.AddDate(-s.priceYears, 0, 0)

	latest, err := s.priceRepo.LatestBenchmarkDate(s.benchmarkSymbol)
	if err != nil {
		return err
	}
	if latest != nil {
		start = latest.AddDate(0, 0, 1)
	}
	if !start.Before(end) {
		return nil
	}

	history, err := s.stock.PriceHistory(s.benchmarkSymbol, start, end)
	if err != nil {
		return err
	}

	rows := make([]models.BenchmarkPrice, 0, len(history))
	for _, p := range history {
		if latest != nil && !p.Date.After(*latest) {
			continue
		}
		rows = append(rows, models.BenchmarkPrice{
			Symbol:    s.benchmarkSymbol,
			PriceDate: p.Date,
			Close:     p.AdjClose,
		})
	}
	if len(rows) == 0 {
		return nil
	}

	n, err := s.bulk.InsertBenchmarkPrices(rows)
	if err != nil {
		return err
	}
	stats.BenchmarkRows = n
	log.Printf("📊 Benchmark bars inserted: %d (%s)", n, s.benchmarkSymbol)
	return nil
}

// IngestCurrentPrices refreshes each company's latest price. Falls back to
// the last stored close when the provider has no live quote.
func (s *IngestionService) IngestCurrentPrices(stats *IngestStats) error {
	tickers, err := s.companyRepo.Tickers()
	if err != nil {
		return err
	}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, s.workers)
	)

	for _, t := range tickers {
		ticker := t

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			price, ok, err := s.stock.CurrentPrice(ticker)
			if err != nil || !ok {
				price, ok, err = s.priceRepo.LatestClose(ticker)
			}
			if err != nil {
				mu.Lock()
				stats.addProblem(fmt.Sprintf("current price %s: %v", ticker, err))
				mu.Unlock()
				return
			}
			if !ok {
				return // no price known anywhere yet
			}

			if err := s.companyRepo.UpdateCurrentPrice(ticker, price); err != nil {
				mu.Lock()
				stats.addProblem(fmt.Sprintf("current price %s: persist: %v", ticker, err))
				mu.Unlock()
				return
			}

			mu.Lock()
			stats.CurrentPrices++
			mu.Unlock()
		}()
	}
	wg.Wait()

	log.Printf("📊 Current prices refreshed: %d", stats.CurrentPrices)
	return nil
}

// IngestRatings fetches ratings per company, deduplicates on
// (analyst, ticker, date) and upserts the analyst roster afterwards. The
// roster comes last because firm-derived providers only learn analysts
// while fetching ratings.
func (s *IngestionService) IngestRatings(stats *IngestStats) error {
	tickers, err := s.companyRepo.Tickers()
	if err != nil {
		return err
	}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, s.workers)
	)

	for _, t := range tickers {
		ticker := t

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			rows, err := s.ratingFeed.RatingsForCompany(ticker, time.Time{}, time.Time{})
			if err != nil {
				mu.Lock()
				stats.addProblem(fmt.Sprintf("ratings %s: %v", ticker, err))
				mu.Unlock()
				return
			}

			added, skipped := 0, 0
			for i := range rows {
				r := rows[i]
				if !models.ValidRating(r.Rating) {
					verr := &database.ValidationError{Field: "rating", Reason: "unknown category", Value: r.Rating}
					mu.Lock()
					stats.addProblem(fmt.Sprintf("ratings %s: %v", ticker, verr))
					mu.Unlock()
					skipped++
					continue
				}

				exists, err := s.ratingRepo.RatingExists(r.AnalystID, r.Ticker, r.Date)
				if err != nil {
					mu.Lock()
					stats.addProblem(fmt.Sprintf("ratings %s: %v", ticker, err))
					mu.Unlock()
					return
				}
				if exists {
					skipped++
					continue
				}

				if err := s.ratingRepo.SaveRating(&models.AnalystRating{
					AnalystID:   r.AnalystID,
					Ticker:      r.Ticker,
					RatingDate:  r.Date,
					Rating:      r.Rating,
					PriceTarget: r.PriceTarget,
				}); err != nil {
					mu.Lock()
					stats.addProblem(fmt.Sprintf("ratings %s: save: %v", ticker, err))
					mu.Unlock()
					return
				}
				added++
			}

			mu.Lock()
			stats.RatingsAdded += added
			stats.RatingsSkipped += skipped
			mu.Unlock()
		}()
	}
	wg.Wait()

	analysts, err := s.ratingFeed.Analysts()
	if err != nil {
		return err
	}
	for i := range analysts {
		a := analysts[i]
		if err := s.ratingRepo.UpsertAnalyst(&models.Analyst{
			AnalystID: a.AnalystID,
			Name:      a.Name,
			Firm:      a.Firm,
		}); err != nil {
			stats.addProblem(fmt.Sprintf("analyst %s: %v", a.AnalystID, err))
			continue
		}
		stats.AnalystsUpserted++
	}

	s.touchSource(models.CategoryAnalystRatings)
	log.Printf("📊 Ratings ingested: %d new, %d duplicates/invalid, %d analysts",
		stats.RatingsAdded, stats.RatingsSkipped, stats.AnalystsUpserted)
	return nil
}

// touchSource stamps the active source in this category as refreshed
func (s *IngestionService) touchSource(category string) {
	if s.jobRepo == nil {
		return
	}
	src, err := s.jobRepo.ActiveSource(category)
	if err != nil || src == nil {
		return
	}
	if err := s.jobRepo.TouchSource(src.Name); err != nil {
		log.Printf("⚠️  Failed to stamp data source %s: %v", src.Name, err)
	}
}
