package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"stock-analyser/api"
	"stock-analyser/cache"
	"stock-analyser/config"
	"stock-analyser/database"
	"stock-analyser/database/companies"
	"stock-analyser/database/jobs"
	models "stock-analyser/database/models_pkg"
	"stock-analyser/database/prices"
	"stock-analyser/database/ratings"
	"stock-analyser/providers"
	"stock-analyser/realtime"
)

// App wires the repositories, providers and services together and owns
// their lifecycle.
type App struct {
	config *config.Config

	db      *database.Database
	sqlConn *database.SQLConn
	redis   *cache.RedisClient
	broker  *realtime.Broker

	companyRepo *companies.Repository
	priceRepo   *prices.Repository
	ratingRepo  *ratings.Repository
	jobRepo     *jobs.Repository

	tracker    *JobTracker
	ingestion  *IngestionService
	ranking    *RankingService
	dispatcher *Dispatcher
	scheduler  *Scheduler
}

// New creates a new application instance
func New(cfg *config.Config) *App {
	return &App{config: cfg}
}

// Init connects the backing stores and builds the service graph. Every
// entrypoint (serve, ingest, rank) goes through here first.
func (a *App) Init() error {
	fmt.Println("🗄️  Connecting to database...")

	dbPort, err := strconv.Atoi(a.config.DatabasePort)
	if err != nil {
		return fmt.Errorf("invalid database port: %w", err)
	}

	db, err := database.Connect(
		a.config.DatabaseHost,
		dbPort,
		a.config.DatabaseName,
		a.config.DatabaseUser,
		a.config.DatabasePassword,
	)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	a.db = db

	if err := a.db.InitSchema(); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}

	sqlConn, err := database.NewSQLConn(database.SQLConfig{
		Host:     a.config.DatabaseHost,
		Port:     a.config.DatabasePort,
		User:     a.config.DatabaseUser,
		Password: a.config.DatabasePassword,
		DBName:   a.config.DatabaseName,
	})
	if err != nil {
		return fmt.Errorf("bulk connection failed: %w", err)
	}
	a.sqlConn = sqlConn

	fmt.Println("🧠 Connecting to Redis...")
	a.redis = cache.NewRedisClient(
		a.config.RedisHost,
		a.config.RedisPort,
		a.config.RedisPassword,
	)
	if a.redis == nil {
		fmt.Println("⚠️  Redis connection failed. Caching disabled.")
	}

	a.broker = realtime.NewBroker()
	go a.broker.Run()

	gormDB := a.db.DB()
	a.companyRepo = companies.NewRepository(gormDB)
	a.priceRepo = prices.NewRepository(gormDB)
	a.ratingRepo = ratings.NewRepository(gormDB)
	a.jobRepo = jobs.NewRepository(gormDB)

	if err := a.jobRepo.SeedDefaults(); err != nil {
		return fmt.Errorf("data source seeding failed: %w", err)
	}

	stock, ratingFeed := a.buildProviders()

	a.tracker = NewJobTracker(a.jobRepo, a.broker)
	a.ingestion = NewIngestionService(
		a.companyRepo, a.priceRepo, a.ratingRepo, a.jobRepo,
		database.NewBulkWriter(a.sqlConn),
		stock, ratingFeed, *a.config,
	)
	a.ranking = NewRankingService(a.ratingRepo, a.companyRepo, a.priceRepo, a.config.Ranking)
	a.dispatcher = NewDispatcher(a.tracker, a.ingestion, a.ranking, a.redis, a.broker)
	a.scheduler = NewScheduler(a.tracker, a.ingestion, a.ranking, a.dispatcher, a.config.IngestSchedule)

	return nil
}

// buildProviders resolves the configured stock and ratings providers. Stock
// data always comes from Yahoo with the mock provider as a fallback; the
// ratings feed is selected by PROVIDER_RATINGS.
func (a *App) buildProviders() (providers.StockProvider, providers.RatingsProvider) {
	yahoo := providers.NewYahooProvider()
	mock := providers.NewMockProvider(50, 40, 42)

	stock := providers.NewCompositeProvider(
		[]providers.StockProvider{yahoo, mock},
		nil, false,
	)

	var ratingFeed providers.RatingsProvider
	switch a.config.Providers.RatingsSource {
	case "yfinance":
		ratingFeed = yahoo
		log.Println("📡 Ratings provider: Yahoo Finance")
	case "fmp":
		fmp := providers.NewFMPProvider(a.config.Providers.FMPAPIKey)
		if !fmp.Configured() {
			log.Println("⚠️  FMP_API_KEY missing, falling back to mock ratings")
			ratingFeed = mock
		} else {
			ratingFeed = fmp
			log.Println("📡 Ratings provider: Financial Modeling Prep")
		}
	default:
		ratingFeed = mock
		log.Println("📡 Ratings provider: mock (deterministic synthetic data)")
	}

	return stock, ratingFeed
}

// Serve runs the API server, scheduler and quote stream until interrupted
func (a *App) Serve() error {
	defer a.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.scheduler.Start(); err != nil {
		return fmt.Errorf("scheduler start failed: %w", err)
	}

	if a.config.Providers.QuoteStreamEnabled && a.config.Providers.QuoteStreamURL != "" {
		tickers, err := a.companyRepo.Tickers()
		if err != nil {
			return fmt.Errorf("quote stream ticker list: %w", err)
		}
		stream := providers.NewQuoteStream(a.config.Providers.QuoteStreamURL, tickers, a.onQuote)
		go stream.Run(ctx)
	}

	server := api.NewServer(
		a.ratingRepo, a.companyRepo, a.priceRepo, a.jobRepo,
		a.dispatcher, a.redis, a.broker,
	)
	go func() {
		if err := server.Start(a.config.ServerPort); err != nil {
			log.Printf("⚠️  API Server failed: %v", err)
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt
	fmt.Println("\n🛑 Shutdown signal received, initiating graceful shutdown...")

	cancel()
	a.scheduler.Stop()
	return nil
}

// onQuote applies one live tick to the company's current price
func (a *App) onQuote(q providers.Quote) {
	if err := a.companyRepo.UpdateCurrentPrice(q.Ticker, q.Price); err != nil {
		log.Printf("⚠️  Failed to apply quote for %s: %v", q.Ticker, err)
		return
	}
	a.broker.Broadcast(realtime.EventQuote, q)
}

// Ingest runs one full ingestion pass as a tracked job
func (a *App) Ingest() error {
	defer a.close()

	_, err := a.tracker.Run(models.JobIngestPrices, func() (string, error) {
		stats, err := a.ingestion.RunFullIngestion()
		return stats.Summary(), err
	})
	a.dispatcher.InvalidateCaches()
	return err
}

// Rank runs one scoring pass as a tracked job
func (a *App) Rank(force bool) error {
	defer a.close()

	_, err := a.tracker.Run(models.JobRecomputeRankings, func() (string, error) {
		stats, err := a.ranking.RunFullRanking(force)
		return stats.Summary(), err
	})
	a.dispatcher.InvalidateCaches()
	return err
}

// RunAll ingests, ranks, then serves
func (a *App) RunAll() error {
	_, err := a.tracker.Run(models.JobIngestPrices, func() (string, error) {
		stats, err := a.ingestion.RunFullIngestion()
		return stats.Summary(), err
	})
	if err != nil {
		log.Printf("⚠️  Initial ingestion failed: %v", err)
	}

	_, err = a.tracker.Run(models.JobRecomputeRankings, func() (string, error) {
		stats, err := a.ranking.RunFullRanking(false)
		return stats.Summary(), err
	})
	if err != nil {
		log.Printf("⚠️  Initial ranking failed: %v", err)
	}
	a.dispatcher.InvalidateCaches()

	return a.Serve()
}

func (a *App) close() {
	if a.sqlConn != nil {
		_ = a.sqlConn.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}
