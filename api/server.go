package api

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"stock-analyser/cache"
	"stock-analyser/database/companies"
	"stock-analyser/database/jobs"
	models "stock-analyser/database/models_pkg"
	"stock-analyser/database/prices"
	"stock-analyser/database/ratings"
	"stock-analyser/realtime"
)

// JobDispatcher starts background jobs for the admin trigger endpoint
type JobDispatcher interface {
	Trigger(jobType string, force bool) (*models.Job, error)
}

// Server handles HTTP API requests
type Server struct {
	analystRepo *ratings.Repository
	companyRepo *companies.Repository
	priceRepo   *prices.Repository
	jobRepo     *jobs.Repository

	dispatcher JobDispatcher

	redis  *cache.RedisClient
	broker *realtime.Broker
}

// NewServer creates a new API server instance
func NewServer(
	analystRepo *ratings.Repository,
	companyRepo *companies.Repository,
	priceRepo *prices.Repository,
	jobRepo *jobs.Repository,
	dispatcher JobDispatcher,
	redis *cache.RedisClient,
	broker *realtime.Broker,
) *Server {
	return &Server{
		analystRepo: analystRepo,
		companyRepo: companyRepo,
		priceRepo:   priceRepo,
		jobRepo:     jobRepo,
		dispatcher:  dispatcher,
		redis:       redis,
		broker:      broker,
	}
}

// Start starts the HTTP server on the specified port
func (s *Server) Start(port int) error {
	mux := http.NewServeMux()

	// Public API
	mux.HandleFunc("GET /api/analysts", s.handleListAnalysts)
	mux.HandleFunc("GET /api/analysts/{id}", s.handleGetAnalyst)
	mux.HandleFunc("GET /api/companies", s.handleListCompanies)
	mux.HandleFunc("GET /api/companies/{ticker}", s.handleGetCompany)
	mux.HandleFunc("GET /api/companies/{ticker}/prices", s.handleCompanyPrices)
	mux.HandleFunc("GET /api/sectors", s.handleListSectors)
	mux.HandleFunc("GET /api/benchmark/{symbol}/prices", s.handleBenchmarkPrices)

	// Admin
	mux.HandleFunc("GET /api/admin/data-sources", s.handleListDataSources)
	mux.HandleFunc("POST /api/admin/data-sources/{id}/activate", s.handleActivateDataSource)
	mux.HandleFunc("GET /api/admin/jobs", s.handleListJobs)
	mux.HandleFunc("POST /api/admin/jobs/trigger", s.handleTriggerJob)
	mux.Handle("GET /api/admin/events", s.broker) // SSE endpoint

	mux.HandleFunc("GET /health", s.handleHealth)

	handler := s.corsMiddleware(s.loggingMiddleware(mux))

	serverAddr := fmt.Sprintf("0.0.0.0:%d", port)
	log.Printf("🚀 API Server starting on %s", serverAddr)
	return http.ListenAndServe(serverAddr, handler)
}

// Middleware
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// Handlers are distributed across multiple files:
// - handlers_analysts.go: analyst rankings and detail
// - handlers_companies.go: company scores, prices, sectors
// - handlers_admin.go: data sources, jobs, health check
