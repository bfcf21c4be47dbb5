package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"stock-analyser/database"
	models "stock-analyser/database/models_pkg"
)

// getPathID parses a numeric path value, returning 0 when absent or invalid
func getPathID(r *http.Request, key string) int64 {
	id, err := strconv.ParseInt(r.PathValue(key), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// handleHealth returns the health status of the API
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListDataSources returns all registered sources grouped by category
func (s *Server) handleListDataSources(w http.ResponseWriter, r *http.Request) {
	grouped, err := s.jobRepo.ListSourcesGrouped()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load data sources", err)
		return
	}
	writeJSON(w, http.StatusOK, grouped)
}

// handleActivateDataSource makes one source active for its category,
// deactivating the rest of the category.
func (s *Server) handleActivateDataSource(w http.ResponseWriter, r *http.Request) {
	id := getPathID(r, "id")
	if id <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid data source id", nil)
		return
	}

	source, err := s.jobRepo.ActivateSource(id)
	var notFound *database.NotFoundError
	if errors.As(err, &notFound) {
		respondWithError(w, http.StatusNotFound, "Data source not found", nil)
		return
	}
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to activate data source", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Activated %s for %s", source.Name, source.Category),
	})
}

// handleListJobs returns recent jobs, newest first
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	one := 1
	max := 500
	limit := getIntParam(r, "limit", 50, &one, &max)

	jobs, err := s.jobRepo.ListJobs(limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load jobs", err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

type triggerJobRequest struct {
	JobType string `json:"job_type"`
	Force   bool   `json:"force"`
}

// handleTriggerJob starts an ingestion or ranking job in the background and
// returns the created job record immediately. force re-evaluates already
// settled rating verdicts, for use after an upstream price correction.
func (s *Server) handleTriggerJob(w http.ResponseWriter, r *http.Request) {
	var req triggerJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.JobType == "" {
		// Accept job_type as a query parameter as well
		req.JobType = r.URL.Query().Get("job_type")
		req.Force = r.URL.Query().Get("force") == "true"
	}

	if !models.ValidJobType(req.JobType) {
		respondWithError(w, http.StatusBadRequest, "Invalid job type", nil)
		return
	}

	job, err := s.dispatcher.Trigger(req.JobType, req.Force)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to start job", err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}
