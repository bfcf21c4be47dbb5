package app

import (
	"log"

	"github.com/robfig/cron/v3"

	models "stock-analyser/database/models_pkg"
)

// Scheduler runs ingestion followed by a ranking pass on a cron schedule.
// An empty schedule disables it.
type Scheduler struct {
	cron       *cron.Cron
	tracker    *JobTracker
	ingestion  *IngestionService
	ranking    *RankingService
	dispatcher *Dispatcher
	schedule   string
}

func NewScheduler(tracker *JobTracker, ingestion *IngestionService, ranking *RankingService, dispatcher *Dispatcher, schedule string) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		tracker:    tracker,
		ingestion:  ingestion,
		ranking:    ranking,
		dispatcher: dispatcher,
		schedule:   schedule,
	}
}

// Start registers the refresh job and starts the cron loop
func (s *Scheduler) Start() error {
	if s.schedule == "" {
		log.Println("⏭️  Scheduler disabled (no schedule configured)")
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.refresh); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("⏰ Scheduler started: %q", s.schedule)
	return nil
}

// refresh is one scheduled pass: ingest everything, then recompute ranks.
// Ranking still runs when ingestion failed partway; it only reads stored
// data and partial ingests are worth folding in.
func (s *Scheduler) refresh() {
	_, err := s.tracker.Run(models.JobIngestPrices, func() (string, error) {
		stats, err := s.ingestion.RunFullIngestion()
		return stats.Summary(), err
	})
	if err != nil {
		log.Printf("⚠️  Scheduled ingestion failed: %v", err)
	}

	_, err = s.tracker.Run(models.JobRecomputeRankings, func() (string, error) {
		stats, err := s.ranking.RunFullRanking(false)
		return stats.Summary(), err
	})
	if err != nil {
		log.Printf("⚠️  Scheduled ranking failed: %v", err)
	}

	s.dispatcher.InvalidateCaches()
}

// Stop stops the cron loop, waiting for a running job to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
