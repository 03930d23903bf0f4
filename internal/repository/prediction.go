package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Capstone-E1/aquahealth_backend/internal/models"
	"github.com/Capstone-E1/aquahealth_backend/internal/store"
	"go.uber.org/zap"
)

const PredictionsCollection = "disease_predictions"

// PredictionRepository stores disease prediction records
type PredictionRepository struct {
	*Repository[models.PredictionRecord, *models.PredictionRecord]
}

func NewPredictions(ds store.DocumentStore, logger *zap.Logger) *PredictionRepository {
	return &PredictionRepository{New[models.PredictionRecord, *models.PredictionRecord](ds, Options[models.PredictionRecord]{
		Collection: PredictionsCollection,
		Resource:   "Prediction",
		Plural:     "Predictions",
		Order:      newestFirst,
	}, logger)}
}

// HistoryFilter narrows prediction history. The date window applies only when both
// ends are set.
type HistoryFilter struct {
	DiseaseType string
	Start       time.Time
	End         time.Time
	Limit       int
}

// History returns matching predictions, newest first
func (r *PredictionRepository) History(ctx context.Context, f HistoryFilter) ([]models.PredictionRecord, error) {
	var filters []store.Filter
	if f.DiseaseType != "" {
		filters = append(filters, store.Where("diseaseType", store.OpEq, f.DiseaseType))
	}
	if !f.Start.IsZero() && !f.End.IsZero() {
		filters = append(filters,
			store.Where("timestamp", store.OpGte, f.Start),
			store.Where("timestamp", store.OpLte, f.End))
	}

	records, err := r.Find(ctx, store.Query{Filters: filters, Order: newestFirst, Limit: f.Limit})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prediction history: %w", err)
	}
	return records, nil
}

// PredictionStats summarizes every stored prediction
type PredictionStats struct {
	TotalPredictions  int            `json:"totalPredictions"`
	DiseaseTypes      []string       `json:"diseaseTypes"`
	DateRange         DateRange      `json:"dateRange"`
	RiskDistribution  map[string]int `json:"riskDistribution"`
	AverageConfidence float64        `json:"averageConfidence"`
}

// Statistics scans every record; it returns nil when there are none
func (r *PredictionRepository) Statistics(ctx context.Context) (*PredictionStats, error) {
	records, err := r.Find(ctx, store.Query{})
	if err != nil {
		return nil, fmt.Errorf("failed to calculate prediction statistics: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	stats := &PredictionStats{
		TotalPredictions: len(records),
		DiseaseTypes:     []string{},
		RiskDistribution: map[string]int{
			models.RiskCritical: 0,
			models.RiskHigh:     0,
			models.RiskMedium:   0,
			models.RiskLow:      0,
			models.RiskMinimal:  0,
		},
	}

	seen := make(map[string]bool)
	var confidenceSum float64
	for i, rec := range records {
		if !seen[rec.DiseaseType] {
			seen[rec.DiseaseType] = true
			stats.DiseaseTypes = append(stats.DiseaseTypes, rec.DiseaseType)
		}
		if i == 0 || rec.Timestamp.Before(stats.DateRange.Earliest) {
			stats.DateRange.Earliest = rec.Timestamp
		}
		if i == 0 || rec.Timestamp.After(stats.DateRange.Latest) {
			stats.DateRange.Latest = rec.Timestamp
		}
		if _, ok := stats.RiskDistribution[rec.Prediction.OverallRisk]; ok {
			stats.RiskDistribution[rec.Prediction.OverallRisk]++
		}

		// a record without predictions contributes zero confidence
		if n := len(rec.Prediction.Predictions); n > 0 {
			var s float64
			for _, p := range rec.Prediction.Predictions {
				s += p.Confidence
			}
			confidenceSum += s / float64(n)
		}
	}
	stats.AverageConfidence = confidenceSum / float64(len(records))
	return stats, nil
}
