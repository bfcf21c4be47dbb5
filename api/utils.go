package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"
)

// Pagination defaults and limits.
const (
	defaultPageSize = 25
	maxPageSize     = 200
	listCacheTTL    = 60 * time.Second
)

// PaginatedResponse wraps list endpoints in the standard envelope
type PaginatedResponse struct {
	Items      interface{} `json:"items"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

func newPaginatedResponse(items interface{}, total int64, page, pageSize int) PaginatedResponse {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return PaginatedResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// getIntParam retrieves an integer query parameter with default value and optional range validation
func getIntParam(r *http.Request, key string, defaultVal int, minVal, maxVal *int) int {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return defaultVal
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}

	if minVal != nil && val < *minVal {
		return defaultVal
	}
	if maxVal != nil && val > *maxVal {
		return defaultVal
	}

	return val
}

// getSortParams validates sort_by against the endpoint's allowed columns and
// sort_order against asc/desc, falling back to the given defaults.
func getSortParams(r *http.Request, allowed map[string]bool, defaultBy, defaultOrder string) (string, string) {
	sortBy := r.URL.Query().Get("sort_by")
	if !allowed[sortBy] {
		sortBy = defaultBy
	}
	sortOrder := r.URL.Query().Get("sort_order")
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = defaultOrder
	}
	return sortBy, sortOrder
}

func writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

// respondWithError logs the error and sends a JSON error response
// Use this to avoid exposing internal errors while still logging them
func respondWithError(w http.ResponseWriter, code int, message string, err error) {
	if err != nil {
		log.Printf("API Error [%d]: %s - %v", code, message, err)
	} else {
		log.Printf("API Error [%d]: %s", code, message)
	}
	writeJSON(w, code, map[string]string{"detail": message})
}

// serveCached replies from cache when the key is hot, otherwise builds the
// payload and stores it. Cache failures degrade to a direct response.
func (s *Server) serveCached(w http.ResponseWriter, r *http.Request, key string, build func() (interface{}, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	var cached json.RawMessage
	if hit, err := s.redis.Get(ctx, key, &cached); err == nil && hit {
		w.Header().Set("Content-Type", "application/json")
		w.Write(cached)
		return
	}

	payload, err := build()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to load data", err)
		return
	}

	if s.redis != nil {
		if err := s.redis.Set(ctx, key, payload, listCacheTTL); err != nil {
			log.Printf("⚠️  Failed to cache %s: %v", key, err)
		}
	}
	writeJSON(w, http.StatusOK, payload)
}
