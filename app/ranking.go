package app

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"stock-analyser/config"
	models "stock-analyser/database/models_pkg"
)

// Cap on the problem lines carried into the job details.
const maxReportedProblems = 20

// RatingStore is the rating/analyst persistence the pipeline needs.
// Implemented by the ratings repository; tests use an in-memory fake.
type RatingStore interface {
	ListForEvaluation(force bool) ([]models.AnalystRating, error)
	UpdateEvaluation(ratingID int64, actualReturn float64, wasAccurate bool) error
	AnalystIDs() ([]string, error)
	RatingsByAnalyst(analystID string) ([]models.AnalystRating, error)
	UpdateAnalystStats(analystID string, total, accurate int, score *float64) error
	AllAnalysts() ([]models.Analyst, error)
	RatingsForTicker(ticker string, since time.Time) ([]models.AnalystRating, error)
}

// CompanyStore is the company persistence the scoring phase needs.
type CompanyStore interface {
	Tickers() ([]string, error)
	UpdateScores(ticker string, investmentScore, targetPrice *float64) error
}

// RankingService runs the three-phase scoring pipeline:
//
//	1. evaluate pending ratings against the price series
//	2. fold each analyst's verdicts into a confidence score
//	3. fold each company's current ratings into an investment score
//
// The phases are sequential because phase 3 reads the confidence scores
// phase 2 writes. Within a phase entities are independent, so each phase
// fans out over a bounded worker pool. Every step is idempotent: a pass over
// unchanged data produces identical derived values, so an abandoned pass is
// simply retried wholesale.
type RankingService struct {
	ratingRepo  RatingStore
	companyRepo CompanyStore

	calculator *ReturnCalculator
	classifier *AccuracyClassifier
	aggregator *ConfidenceAggregator
	scorer     *InvestmentScorer

	workers int
}

// NewRankingService wires the pipeline over the repositories
func NewRankingService(ratingRepo RatingStore, companyRepo CompanyStore, prices PriceSeries, cfg config.RankingConfig) *RankingService {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &RankingService{
		ratingRepo:  ratingRepo,
		companyRepo: companyRepo,
		calculator:  NewReturnCalculator(prices, cfg),
		classifier:  NewAccuracyClassifier(cfg),
		aggregator:  NewConfidenceAggregator(cfg),
		scorer:      NewInvestmentScorer(cfg),
		workers:     workers,
	}
}

// RankingStats summarizes one full pass for the job record.
type RankingStats struct {
	RatingsEvaluated int
	RatingsPending   int
	RatingsSkipped   int
	AnalystsRanked   int
	CompaniesScored  int
	Problems         []string
	problemsDropped  int
}

// Summary renders the stats as the human-readable job details string.
func (s *RankingStats) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "evaluated=%d pending=%d skipped=%d analysts=%d companies=%d",
		s.RatingsEvaluated, s.RatingsPending, s.RatingsSkipped, s.AnalystsRanked, s.CompaniesScored)
	for _, p := range s.Problems {
		b.WriteString("; ")
		b.WriteString(p)
	}
	if s.problemsDropped > 0 {
		fmt.Fprintf(&b, "; +%d more", s.problemsDropped)
	}
	return b.String()
}

func (s *RankingStats) addProblem(msg string) {
	if len(s.Problems) >= maxReportedProblems {
		s.problemsDropped++
		return
	}
	s.Problems = append(s.Problems, msg)
}

// RunFullRanking executes the three phases in order. force re-evaluates
// already settled ratings, for use after an upstream price correction;
// otherwise settled verdicts are never revisited (write-once).
func (s *RankingService) RunFullRanking(force bool) (*RankingStats, error) {
	stats := &RankingStats{}

	log.Println("📊 Ranking pass: evaluating ratings...")
	if err := s.evaluateRatings(force, stats); err != nil {
		return stats, fmt.Errorf("evaluate ratings: %w", err)
	}
	log.Printf("✅ Ratings evaluated: %d settled, %d pending, %d skipped",
		stats.RatingsEvaluated, stats.RatingsPending, stats.RatingsSkipped)

	log.Println("📊 Ranking pass: aggregating analyst confidence...")
	if err := s.rankAnalysts(stats); err != nil {
		return stats, fmt.Errorf("rank analysts: %w", err)
	}
	log.Printf("✅ Analysts ranked: %d", stats.AnalystsRanked)

	log.Println("📊 Ranking pass: scoring companies...")
	if err := s.scoreCompanies(stats); err != nil {
		return stats, fmt.Errorf("score companies: %w", err)
	}
	log.Printf("✅ Companies scored: %d", stats.CompaniesScored)

	return stats, nil
}

// evaluateRatings settles the verdict of every visitable rating. A rating
// whose prices are not yet available stays pending; an invalid record is
// skipped and reported, never fatal to the pass.
func (s *RankingService) evaluateRatings(force bool, stats *RankingStats) error {
	rows, err := s.ratingRepo.ListForEvaluation(force)
	if err != nil {
		return err
	}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, s.workers)
	)

	for i := range rows {
		rating := rows[i]

		if !models.ValidRating(rating.Rating) {
			stats.RatingsSkipped++
			stats.addProblem(fmt.Sprintf("rating %d: unknown category %q", rating.ID, rating.Rating))
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			fwd, err := s.calculator.ForwardReturn(&rating)
			if err != nil {
				mu.Lock()
				stats.RatingsSkipped++
				stats.addProblem(fmt.Sprintf("rating %d: %v", rating.ID, err))
				mu.Unlock()
				return
			}

			verdict := s.classifier.Classify(rating.Rating, fwd)
			if verdict == VerdictPending {
				mu.Lock()
				stats.RatingsPending++
				mu.Unlock()
				return
			}

			if err := s.ratingRepo.UpdateEvaluation(rating.ID, *fwd, verdict == VerdictAccurate); err != nil {
				mu.Lock()
				stats.RatingsSkipped++
				stats.addProblem(fmt.Sprintf("rating %d: persist verdict: %v", rating.ID, err))
				mu.Unlock()
				return
			}

			mu.Lock()
			stats.RatingsEvaluated++
			mu.Unlock()
		}()
	}
	wg.Wait()
	return nil
}

// rankAnalysts recomputes every analyst aggregate as a full fold over the
// analyst's current rating set.
func (s *RankingService) rankAnalysts(stats *RankingStats) error {
	ids, err := s.ratingRepo.AnalystIDs()
	if err != nil {
		return err
	}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, s.workers)
	)

	for _, id := range ids {
		analystID := id

		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			rows, err := s.ratingRepo.RatingsByAnalyst(analystID)
			if err != nil {
				mu.Lock()
				stats.addProblem(fmt.Sprintf("analyst %s: %v", analystID, err))
				mu.Unlock()
				return
			}

			agg := s.aggregator.Aggregate(rows)
			if err := s.ratingRepo.UpdateAnalystStats(analystID, agg.TotalRatings, agg.AccurateRatings, agg.ConfidenceScore); err != nil {
				mu.Lock()
				stats.addProblem(fmt.Sprintf("analyst %s: persist stats: %v", analystID, err))
				mu.Unlock()
				return
			}

			mu.Lock()
			stats.AnalystsRanked++
			mu.Unlock()
		}()
	}
	wg.Wait()
	return nil
}

// scoreCompanies recomputes every company's investment score and target
// price from its current ratings and the confidence snapshot produced by
// the previous phase.
func (s *RankingService) scoreCompanies(stats *RankingStats) error {
	analysts, err := s.ratingRepo.AllAnalysts()
	if err != nil {
		return err
	}
	confidence := make(map[string]*float64, len(analysts))
	for i := range analysts {
		confidence[analysts[i].AnalystID] = analysts[i].ConfidenceScore
	}

	tickers, err := s.companyRepo.Tickers()
	if err != nil {
		return err
	}

	asOf := time.Now().UTC()
	cutoff := asOf.AddDate(0, 0, -s.scorer.recencyWindowDays)

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

			rows, err := s.ratingRepo.RatingsForTicker(ticker, cutoff)
			if err != nil {
				mu.Lock()
				stats.addProblem(fmt.Sprintf("company %s: %v", ticker, err))
				mu.Unlock()
				return
			}

			current := s.scorer.SelectCurrent(rows, asOf)
			score := s.scorer.Score(current, confidence)

			if err := s.companyRepo.UpdateScores(ticker, score.InvestmentScore, score.TargetPrice); err != nil {
				mu.Lock()
				stats.addProblem(fmt.Sprintf("company %s: persist score: %v", ticker, err))
				mu.Unlock()
				return
			}

			mu.Lock()
			stats.CompaniesScored++
			mu.Unlock()
		}()
	}
	wg.Wait()
	return nil
}
