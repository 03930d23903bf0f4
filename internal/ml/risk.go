package ml

import (
	"sort"
	"time"

	"github.com/Capstone-E1/aquahealth_backend/internal/models"
)

// recommendThreshold is the probability above which a disease gets follow-up steps
const recommendThreshold = 0.3

// RiskLevel maps a probability to a severity label
func RiskLevel(probability float64) string {
	switch {
	case probability >= 0.8:
		return models.RiskCritical
	case probability >= 0.6:
		return models.RiskHigh
	case probability >= 0.4:
		return models.RiskMedium
	case probability >= 0.2:
		return models.RiskLow
	}
	return models.RiskMinimal
}

// Fallback stands in for a disease whose predictor call failed
func Fallback(disease string) models.DiseasePrediction {
	return models.DiseasePrediction{
		Disease:     disease,
		Probability: 0.1,
		Confidence:  0.1,
		RiskLevel:   models.RiskLow,
		Error:       "Prediction service unavailable",
	}
}

var recommendations = map[string]models.Recommendation{
	models.DiseaseCholera: {
		Disease: models.DiseaseCholera,
		Action:  "Immediate medical attention required",
		Steps: []string{
			"Administer oral rehydration therapy",
			"Collect stool sample for testing",
			"Isolate patient if confirmed",
			"Notify health authorities",
			"Check water source contamination",
		},
	},
	models.DiseaseDiarrheal: {
		Disease: models.DiseaseDiarrheal,
		Action:  "Monitor and provide supportive care",
		Steps: []string{
			"Ensure adequate hydration",
			"Monitor for dehydration signs",
			"Consider antibiotic treatment if severe",
			"Check water and food sources",
			"Maintain hygiene protocols",
		},
	},
	models.DiseaseTyphoid: {
		Disease: models.DiseaseTyphoid,
		Action:  "Urgent medical evaluation needed",
		Steps: []string{
			"Blood culture and Widal test",
			"Antibiotic treatment protocol",
			"Monitor for complications",
			"Check vaccination status",
			"Investigate food/water sources",
		},
	},
}

// Recommend returns follow-up steps for every prediction above the threshold,
// in the order given
func Recommend(predictions []models.DiseasePrediction) []models.Recommendation {
	out := []models.Recommendation{}
	for _, p := range predictions {
		if p.Probability <= recommendThreshold {
			continue
		}
		if rec, ok := recommendations[p.Disease]; ok {
			rec.Steps = append([]string(nil), rec.Steps...)
			out = append(out, rec)
		}
	}
	return out
}

// Aggregate builds the combined result. Recommendations follow dispatch order;
// predictions are then sorted by descending probability and the highest one sets
// the overall risk.
func Aggregate(predictions []models.DiseasePrediction, now time.Time) models.PredictionResult {
	recs := Recommend(predictions)

	sorted := append([]models.DiseasePrediction(nil), predictions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Probability > sorted[j].Probability
	})

	overall := models.RiskMinimal
	if len(sorted) > 0 {
		overall = RiskLevel(sorted[0].Probability)
	}

	return models.PredictionResult{
		Predictions:     sorted,
		OverallRisk:     overall,
		Recommendations: recs,
		Timestamp:       now,
	}
}
