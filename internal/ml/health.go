package ml

import "math"

// HealthScore rates one reading from 0 to 100. Each channel loses points outside
// its optimal band and more outside its acceptable band.
func HealthScore(temperature, ph, ec float64) int {
	score := 100

	// Temperature: optimal 22-28, acceptable 20-30
	if temperature < 20 || temperature > 30 {
		score -= 20
	} else if temperature < 22 || temperature > 28 {
		score -= 10
	}

	// pH: optimal 6.5-7.5, acceptable 6.0-8.0
	if ph < 6.0 || ph > 8.0 {
		score -= 25
	} else if ph < 6.5 || ph > 7.5 {
		score -= 15
	}

	// EC: optimal 1.0-2.0, acceptable 0.5-3.0
	if ec < 0.5 || ec > 3.0 {
		score -= 20
	} else if ec < 1.0 || ec > 2.0 {
		score -= 10
	}

	return max(0, score)
}

// ScoreDistribution counts scores per status band
type ScoreDistribution struct {
	Excellent int `json:"excellent"`
	Good      int `json:"good"`
	Fair      int `json:"fair"`
	Poor      int `json:"poor"`
}

// HealthMetrics aggregates a set of scores
type HealthMetrics struct {
	AverageHealthScore float64           `json:"averageHealthScore"`
	HealthStatus       string            `json:"healthStatus"`
	TotalReadings      int               `json:"totalReadings"`
	ScoreDistribution  ScoreDistribution `json:"scoreDistribution"`
}

// HealthStatus labels a score
func HealthStatus(score float64) string {
	switch {
	case score >= 80:
		return "Excellent"
	case score >= 60:
		return "Good"
	case score >= 40:
		return "Fair"
	}
	return "Poor"
}

// AggregateHealth returns nil for an empty set
func AggregateHealth(scores []int) *HealthMetrics {
	if len(scores) == 0 {
		return nil
	}

	var sum int
	var dist ScoreDistribution
	for _, s := range scores {
		sum += s
		switch {
		case s >= 80:
			dist.Excellent++
		case s >= 60:
			dist.Good++
		case s >= 40:
			dist.Fair++
		default:
			dist.Poor++
		}
	}

	avg := float64(sum) / float64(len(scores))
	return &HealthMetrics{
		AverageHealthScore: math.Round(avg*100) / 100,
		HealthStatus:       HealthStatus(avg),
		TotalReadings:      len(scores),
		ScoreDistribution:  dist,
	}
}
