package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Capstone-E1/aquahealth_backend/internal/apperrors"
	"github.com/Capstone-E1/aquahealth_backend/internal/ml"
	"github.com/Capstone-E1/aquahealth_backend/internal/repository"
	"github.com/go-chi/chi/v5"
)

const defaultHistoryLimit = 10

func (s *Server) predictDisease(w http.ResponseWriter, r *http.Request) {
	var req ml.PredictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	resp, err := s.disease.Predict(r.Context(), req)
	if err != nil {
		var verr *apperrors.ValidationError
		if errors.As(err, &verr) {
			s.sendErrorResponse(w, http.StatusBadRequest, strings.Join(verr.Errors, ", "))
			return
		}
		s.sendError(w, r, err, "Disease prediction failed")
		return
	}
	s.sendSuccess(w, http.StatusOK, "Disease prediction completed successfully", resp)
}

func (s *Server) getPredictionHistory(w http.ResponseWriter, r *http.Request) {
	filter := repository.HistoryFilter{
		DiseaseType: r.URL.Query().Get("diseaseType"),
		Limit:       queryInt(r, "limit", defaultHistoryLimit),
	}
	start, end, ok, err := dateRange(r)
	if err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest, "Invalid date format")
		return
	}
	if ok {
		filter.Start, filter.End = start, end
	}

	records, err := s.predictions.History(r.Context(), filter)
	if err != nil {
		s.sendError(w, r, err, "Failed to fetch prediction history")
		return
	}
	if len(records) == 0 {
		sendEmpty(w, "No predictions found")
		return
	}
	sendList(w, "Prediction history retrieved successfully", records)
}

func (s *Server) getPrediction(w http.ResponseWriter, r *http.Request) {
	record, err := s.predictions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.sendError(w, r, err, "Failed to fetch prediction")
		return
	}
	s.sendSuccess(w, http.StatusOK, "Prediction retrieved successfully", record)
}

func (s *Server) getPredictionStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.predictions.Statistics(r.Context())
	if err != nil {
		s.sendError(w, r, err, "Failed to calculate prediction statistics")
		return
	}
	if stats == nil {
		s.sendErrorResponse(w, http.StatusNotFound, "No predictions found for statistics")
		return
	}
	s.sendSuccess(w, http.StatusOK, "Prediction statistics calculated successfully", stats)
}

func (s *Server) predictorHealth(w http.ResponseWriter, r *http.Request) {
	s.sendSuccess(w, http.StatusOK, "ML service health check completed", s.disease.Health(r.Context()))
}

func (s *Server) getRecommendations(w http.ResponseWriter, r *http.Request) {
	diseaseType := chi.URLParam(r, "diseaseType")
	s.sendSuccess(w, http.StatusOK, "Recommendations for "+diseaseType, ml.GuidanceFor(diseaseType))
}
