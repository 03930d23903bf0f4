package http

import (
	"net/http"
	"time"

	"github.com/Capstone-E1/aquahealth_backend/internal/ml"
	"github.com/Capstone-E1/aquahealth_backend/internal/models"
	"github.com/Capstone-E1/aquahealth_backend/internal/repository"
)

const (
	defaultMLLimit        = 100
	defaultAnomalyDays    = 7
	defaultTrendDays      = 30
	defaultPredictiveDays = 14
	defaultHealthDays     = 7
)

// mlFeatures is one reading shaped as a model input row
type mlFeatures struct {
	ID       string          `json:"id"`
	Features ml.SensorValues `json:"features"`
	Time     time.Time       `json:"timestamp"`
	DeviceID string          `json:"device_id"`
}

// mlPoint is one raw reading in a time series
type mlPoint struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	DeviceID    string    `json:"device_id"`
	Temperature float64   `json:"temperature"`
	PH          float64   `json:"pH"`
	EC          float64   `json:"EC"`
}

// scoredPoint is a raw reading with its health score
type scoredPoint struct {
	mlPoint
	HealthScore int `json:"healthScore"`
}

func toPoint(r models.SensorReading) mlPoint {
	return mlPoint{
		ID:          r.ID,
		Timestamp:   r.Timestamp,
		DeviceID:    r.DeviceID,
		Temperature: r.Temperature,
		PH:          r.PH,
		EC:          r.EC,
	}
}

func toPoints(readings []models.SensorReading) []mlPoint {
	points := make([]mlPoint, 0, len(readings))
	for _, r := range readings {
		points = append(points, toPoint(r))
	}
	return points
}

// series buckets readings when g is set and returns raw points otherwise
func series(readings []models.SensorReading, g ml.Granularity) any {
	if g == "" {
		return toPoints(readings)
	}
	return ml.BucketReadings(readings, g)
}

func sendSeries(w http.ResponseWriter, resp APIResponse, count int) {
	resp.Success = true
	resp.Count = &count
	respondWithJSON(w, http.StatusOK, resp)
}

func (s *Server) lastDays(r *http.Request, def int) ([]models.SensorReading, error) {
	return s.sensors.LastDays(r.Context(), queryInt(r, "days", def), r.URL.Query().Get("deviceId"))
}

func (s *Server) getMLData(w http.ResponseWriter, r *http.Request) {
	readings, err := s.sensors.Readings(r.Context(), repository.ReadingQuery{
		DeviceID: r.URL.Query().Get("deviceId"),
		Limit:    queryInt(r, "limit", defaultMLLimit),
	})
	if err != nil {
		s.sendError(w, r, err, "Failed to fetch ML data")
		return
	}
	if len(readings) == 0 {
		sendEmpty(w, "No sensor data found for ML processing")
		return
	}

	rows := make([]mlFeatures, 0, len(readings))
	for _, reading := range readings {
		rows = append(rows, mlFeatures{
			ID:       reading.ID,
			Features: ml.SensorValues{Temperature: reading.Temperature, PH: reading.PH, EC: reading.EC},
			Time:     reading.Timestamp,
			DeviceID: reading.DeviceID,
		})
	}
	sendList(w, "ML data retrieved successfully", rows)
}

func (s *Server) getAnomalyData(w http.ResponseWriter, r *http.Request) {
	readings, err := s.lastDays(r, defaultAnomalyDays)
	if err != nil {
		s.sendError(w, r, err, "Failed to fetch anomaly detection data")
		return
	}
	if len(readings) == 0 {
		sendEmpty(w, "No data found for anomaly detection")
		return
	}
	sendList(w, "Anomaly detection data retrieved successfully", toPoints(readings))
}

func (s *Server) getTrendData(w http.ResponseWriter, r *http.Request) {
	interval := r.URL.Query().Get("interval")
	if interval == "" {
		interval = string(ml.Hourly)
	}

	readings, err := s.lastDays(r, defaultTrendDays)
	if err != nil {
		s.sendError(w, r, err, "Failed to fetch trend analysis data")
		return
	}
	if len(readings) == 0 {
		sendEmpty(w, "No data found for trend analysis")
		return
	}

	var g ml.Granularity
	switch interval {
	case string(ml.Hourly):
		g = ml.Hourly
	case string(ml.Daily):
		g = ml.Daily
	}
	data := series(readings, g)
	sendSeries(w, APIResponse{
		Message:  "Trend analysis data retrieved successfully",
		Interval: interval,
		Data:     data,
	}, seriesLen(data))
}

func (s *Server) getPredictiveData(w http.ResponseWriter, r *http.Request) {
	predictionType := r.URL.Query().Get("predictionType")
	if predictionType == "" {
		predictionType = "all"
	}

	readings, err := s.lastDays(r, defaultPredictiveDays)
	if err != nil {
		s.sendError(w, r, err, "Failed to fetch predictive analysis data")
		return
	}
	if len(readings) == 0 {
		sendEmpty(w, "No data found for predictive analysis")
		return
	}

	var g ml.Granularity
	switch predictionType {
	case "hourly":
		g = ml.Hourly
	case "daily":
		g = ml.Daily
	}
	data := series(readings, g)
	sendSeries(w, APIResponse{
		Message:        "Predictive analysis data retrieved successfully",
		PredictionType: predictionType,
		Data:           data,
	}, seriesLen(data))
}

func seriesLen(data any) int {
	switch v := data.(type) {
	case []mlPoint:
		return len(v)
	case []ml.Bucket:
		return len(v)
	}
	return 0
}

func (s *Server) getHealthAssessment(w http.ResponseWriter, r *http.Request) {
	readings, err := s.lastDays(r, defaultHealthDays)
	if err != nil {
		s.sendError(w, r, err, "Failed to fetch health assessment data")
		return
	}
	if len(readings) == 0 {
		sendEmpty(w, "No data found for health assessment")
		return
	}

	points := make([]scoredPoint, 0, len(readings))
	scores := make([]int, 0, len(readings))
	for _, reading := range readings {
		score := ml.HealthScore(reading.Temperature, reading.PH, reading.EC)
		points = append(points, scoredPoint{mlPoint: toPoint(reading), HealthScore: score})
		scores = append(scores, score)
	}

	sendSeries(w, APIResponse{
		Message:       "Health assessment data retrieved successfully",
		HealthMetrics: ml.AggregateHealth(scores),
		Data:          points,
	}, len(points))
}
