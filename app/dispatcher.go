package app

import (
	"context"
	"fmt"
	"time"

	"stock-analyser/cache"
	models "stock-analyser/database/models_pkg"
	"stock-analyser/realtime"
)

// Dispatcher maps job types to their work functions and runs them in the
// background under a job record. It sits between the admin trigger endpoint
// and the ingestion/ranking services so the API layer never touches either
// directly.
type Dispatcher struct {
	tracker   *JobTracker
	ingestion *IngestionService
	ranking   *RankingService
	redis     *cache.RedisClient
	broker    *realtime.Broker
}

func NewDispatcher(tracker *JobTracker, ingestion *IngestionService, ranking *RankingService, redis *cache.RedisClient, broker *realtime.Broker) *Dispatcher {
	return &Dispatcher{
		tracker:   tracker,
		ingestion: ingestion,
		ranking:   ranking,
		redis:     redis,
		broker:    broker,
	}
}

// Trigger starts jobType in the background and returns the created job
// record. force only affects recompute_rankings, where it re-evaluates
// already settled verdicts after an upstream price correction.
func (d *Dispatcher) Trigger(jobType string, force bool) (*models.Job, error) {
	if !models.ValidJobType(jobType) {
		return nil, fmt.Errorf("Trigger: unknown job type %q", jobType)
	}
	return d.tracker.RunAsync(jobType, d.work(jobType, force))
}

func (d *Dispatcher) work(jobType string, force bool) func() (string, error) {
	ingest := func(step func(*IngestStats) error) func() (string, error) {
		return func() (string, error) {
			stats := &IngestStats{}
			err := step(stats)
			d.InvalidateCaches()
			return stats.Summary(), err
		}
	}

	switch jobType {
	case models.JobIngestCompanies:
		return ingest(d.ingestion.IngestCompanies)
	case models.JobIngestPrices:
		return ingest(d.ingestion.IngestPrices)
	case models.JobIngestBenchmark:
		return ingest(d.ingestion.IngestBenchmark)
	case models.JobIngestCurrentPrices:
		return ingest(d.ingestion.IngestCurrentPrices)
	case models.JobIngestRatings:
		return ingest(d.ingestion.IngestRatings)
	default: // recompute_rankings, validated by Trigger
		return func() (string, error) {
			stats, err := d.ranking.RunFullRanking(force)
			d.InvalidateCaches()
			d.broker.Broadcast(realtime.EventRankingComplete, map[string]string{"summary": stats.Summary()})
			return stats.Summary(), err
		}
	}
}

// InvalidateCaches drops the cached list responses that depend on scoring
// inputs or outputs. The scheduler and CLI entrypoints call it after their
// own passes too.
func (d *Dispatcher) InvalidateCaches() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = d.redis.InvalidatePrefix(ctx, "analysts:")
	_ = d.redis.InvalidatePrefix(ctx, "companies:")
}
