package ml

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Capstone-E1/aquahealth_backend/internal/apperrors"
	"github.com/Capstone-E1/aquahealth_backend/internal/models"
	"github.com/Capstone-E1/aquahealth_backend/internal/predictor"
	"github.com/Capstone-E1/aquahealth_backend/internal/repository"
	"go.uber.org/zap"
)

// Predictor scores one disease from a feature vector
type Predictor interface {
	Predict(ctx context.Context, disease string, features any) (predictor.Score, error)
	Health(ctx context.Context) error
}

// PredictionBroadcaster is notified after a prediction is persisted
type PredictionBroadcaster interface {
	BroadcastPrediction(record *models.PredictionRecord)
}

// PredictRequest is the body of a prediction call
type PredictRequest struct {
	SensorData  *models.SensorInput `json:"sensorData"`
	Symptoms    *models.Symptoms    `json:"symptoms"`
	DiseaseType string              `json:"diseaseType"`
}

// PredictResponse is returned after a prediction is stored
type PredictResponse struct {
	PredictionID string                  `json:"predictionId"`
	Prediction   models.PredictionResult `json:"prediction"`
	SensorData   models.SensorInput      `json:"sensorData"`
	Symptoms     models.Symptoms         `json:"symptoms"`
	Timestamp    time.Time               `json:"timestamp"`
}

// PredictorHealth reports whether the prediction service answers
type PredictorHealth struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// DiseaseService runs prediction requests end to end
type DiseaseService struct {
	predictor   Predictor
	sensors     *repository.SensorRepository
	predictions *repository.PredictionRepository
	broadcaster PredictionBroadcaster
	logger      *zap.Logger
	now         func() time.Time
}

// NewDiseaseService creates the service. broadcaster may be nil.
func NewDiseaseService(p Predictor, sensors *repository.SensorRepository, predictions *repository.PredictionRepository, broadcaster PredictionBroadcaster, logger *zap.Logger) *DiseaseService {
	return &DiseaseService{
		predictor:   p,
		sensors:     sensors,
		predictions: predictions,
		broadcaster: broadcaster,
		logger:      logger,
		now:         time.Now,
	}
}

// Predict validates the request, scores the requested diseases and stores the result.
// Predictor failures become per-disease fallbacks; only validation and persistence
// errors are returned.
func (s *DiseaseService) Predict(ctx context.Context, req PredictRequest) (*PredictResponse, error) {
	if req.SensorData == nil || req.Symptoms == nil {
		return nil, apperrors.NewValidationError([]string{"Sensor data and symptoms are required"})
	}

	diseaseType := req.DiseaseType
	if diseaseType == "" {
		diseaseType = models.DiseaseAll
	}
	diseases, err := dispatchList(diseaseType)
	if err != nil {
		return nil, err
	}

	// A disconnecting caller does not abort a prediction already in flight.
	ctx = context.WithoutCancel(ctx)

	sensor := *req.SensorData
	if sensor.Empty() {
		sensor = s.latestSensor(ctx)
	}
	features := MapFeatures(Resolve(sensor), *req.Symptoms)

	result := Aggregate(s.dispatch(ctx, diseases, features), s.now())

	record := &models.PredictionRecord{
		SensorData:  sensor,
		Symptoms:    *req.Symptoms,
		Prediction:  result,
		DiseaseType: diseaseType,
		Timestamp:   s.now(),
	}
	saved, err := s.predictions.Create(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("failed to save prediction: %w", err)
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastPrediction(saved)
	}

	s.logger.Info("Disease prediction completed",
		zap.String("prediction_id", saved.ID),
		zap.String("disease_type", diseaseType),
		zap.String("overall_risk", result.OverallRisk),
	)

	return &PredictResponse{
		PredictionID: saved.ID,
		Prediction:   saved.Prediction,
		SensorData:   saved.SensorData,
		Symptoms:     saved.Symptoms,
		Timestamp:    saved.Timestamp,
	}, nil
}

func dispatchList(diseaseType string) ([]string, error) {
	t := strings.ToLower(diseaseType)
	if t == models.DiseaseAll {
		return models.Diseases, nil
	}
	for _, d := range models.Diseases {
		if d == t {
			return []string{d}, nil
		}
	}
	return nil, apperrors.NewValidationError([]string{"Unknown disease type: " + diseaseType})
}

// dispatch calls the predictor for each disease concurrently. Results keep the
// order of diseases.
func (s *DiseaseService) dispatch(ctx context.Context, diseases []string, features FeatureVector) []models.DiseasePrediction {
	results := make([]models.DiseasePrediction, len(diseases))

	var wg sync.WaitGroup
	for i, disease := range diseases {
		wg.Add(1)
		go func(i int, disease string) {
			defer wg.Done()
			results[i] = s.predictOne(ctx, disease, features)
		}(i, disease)
	}
	wg.Wait()

	return results
}

func (s *DiseaseService) predictOne(ctx context.Context, disease string, features FeatureVector) models.DiseasePrediction {
	score, err := s.predictor.Predict(ctx, disease, features)
	if err != nil {
		s.logger.Warn("Predictor unavailable, using fallback",
			zap.String("disease", disease),
			zap.Error(err),
		)
		return Fallback(disease)
	}
	return models.DiseasePrediction{
		Disease:     disease,
		Probability: score.Probability,
		Confidence:  score.Confidence,
		RiskLevel:   RiskLevel(score.Probability),
	}
}

// latestSensor substitutes the newest stored reading, or defaults when there is none
func (s *DiseaseService) latestSensor(ctx context.Context) models.SensorInput {
	reading, found, err := s.sensors.Latest(ctx)
	if err != nil {
		s.logger.Warn("Failed to fetch latest sensor reading, using defaults", zap.Error(err))
	}
	if err != nil || !found {
		return defaultSensorInput(s.now())
	}

	ts := reading.Timestamp
	return models.SensorInput{
		Temperature: &reading.Temperature,
		PH:          &reading.PH,
		EC:          &reading.EC,
		Timestamp:   &ts,
	}
}

func defaultSensorInput(now time.Time) models.SensorInput {
	d := DefaultSensorValues
	return models.SensorInput{
		Temperature: &d.Temperature,
		PH:          &d.PH,
		EC:          &d.EC,
		Timestamp:   &now,
	}
}

// Health probes the prediction service
func (s *DiseaseService) Health(ctx context.Context) PredictorHealth {
	if err := s.predictor.Health(ctx); err != nil {
		return PredictorHealth{
			Status:    "unhealthy",
			Message:   "ML service is not responding",
			Error:     err.Error(),
			Timestamp: s.now(),
		}
	}
	return PredictorHealth{
		Status:    "healthy",
		Message:   "ML service is running",
		Timestamp: s.now(),
	}
}
