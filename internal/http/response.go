package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Capstone-E1/aquahealth_backend/internal/apperrors"
	"go.uber.org/zap"
)

// hiddenError replaces raw error text in production
const hiddenError = "Something went wrong"

// APIResponse represents a standard API response
type APIResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	Count          *int   `json:"count,omitempty"`
	Interval       string `json:"interval,omitempty"`
	PredictionType string `json:"predictionType,omitempty"`
	HealthMetrics  any    `json:"healthMetrics,omitempty"`
	Data           any    `json:"data"`
	Error          string `json:"error,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, statusCode int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

func (s *Server) sendSuccess(w http.ResponseWriter, statusCode int, message string, data any) {
	respondWithJSON(w, statusCode, APIResponse{Success: true, Message: message, Data: data})
}

// sendList reports count alongside the items
func sendList[T any](w http.ResponseWriter, message string, items []T) {
	n := len(items)
	if items == nil {
		items = []T{}
	}
	respondWithJSON(w, http.StatusOK, APIResponse{Success: true, Message: message, Count: &n, Data: items})
}

// sendEmpty is the 404 answer for a query that matched nothing
func sendEmpty(w http.ResponseWriter, message string) {
	respondWithJSON(w, http.StatusNotFound, APIResponse{Message: message, Data: []any{}})
}

func (s *Server) sendErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, APIResponse{Message: message})
}

// sendError maps err onto the envelope. Validation and not-found errors carry their
// own message; anything else uses fallback and keeps the raw text out of production
// responses.
func (s *Server) sendError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := apperrors.HTTPStatus(err)
	resp := APIResponse{Message: fallback, Error: err.Error()}

	var verr *apperrors.ValidationError
	var nerr *apperrors.NotFoundError
	switch {
	case errors.As(err, &verr):
		resp.Message = verr.Error()
	case errors.As(err, &nerr):
		resp.Message = nerr.Error()
	default:
		s.logger.Error(fallback,
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		if s.production {
			resp.Error = hiddenError
		}
	}

	respondWithJSON(w, status, resp)
}

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// parseDate accepts RFC 3339 timestamps or plain dates
func parseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02T15:04:05", v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}

// dateRange reads startDate and endDate. ok is false when either is absent.
func dateRange(r *http.Request) (start, end time.Time, ok bool, err error) {
	startStr := r.URL.Query().Get("startDate")
	endStr := r.URL.Query().Get("endDate")
	if startStr == "" || endStr == "" {
		return time.Time{}, time.Time{}, false, nil
	}
	if start, err = parseDate(startStr); err != nil {
		return time.Time{}, time.Time{}, true, err
	}
	if end, err = parseDate(endStr); err != nil {
		return time.Time{}, time.Time{}, true, err
	}
	return start, end, true, nil
}
