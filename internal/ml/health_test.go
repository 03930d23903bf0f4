package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthScore(t *testing.T) {
	assert.Equal(t, 100, HealthScore(25, 7, 1.5))
	assert.Equal(t, 90, HealthScore(21, 7, 1.5))
	assert.Equal(t, 80, HealthScore(19, 7, 1.5))
	assert.Equal(t, 85, HealthScore(25, 7.8, 1.5))
	assert.Equal(t, 75, HealthScore(25, 8.5, 1.5))
	assert.Equal(t, 90, HealthScore(25, 7, 2.5))
	assert.Equal(t, 35, HealthScore(35, 4, 0.1))
}

func TestHealthScoreBoundaries(t *testing.T) {
	assert.Equal(t, 100, HealthScore(22, 6.5, 1.0))
	assert.Equal(t, 100, HealthScore(28, 7.5, 2.0))
	assert.Equal(t, 65, HealthScore(20, 6.0, 3.0))
}

func TestHealthStatus(t *testing.T) {
	assert.Equal(t, "Excellent", HealthStatus(80))
	assert.Equal(t, "Good", HealthStatus(79.99))
	assert.Equal(t, "Fair", HealthStatus(40))
	assert.Equal(t, "Poor", HealthStatus(39))
}

func TestAggregateHealth(t *testing.T) {
	assert.Nil(t, AggregateHealth(nil))

	m := AggregateHealth([]int{100, 75, 45, 35, 90, 90})
	require.NotNil(t, m)
	assert.Equal(t, 72.5, m.AverageHealthScore)
	assert.Equal(t, "Good", m.HealthStatus)
	assert.Equal(t, 6, m.TotalReadings)
	assert.Equal(t, ScoreDistribution{Excellent: 3, Good: 1, Fair: 1, Poor: 1}, m.ScoreDistribution)
}

func TestAggregateHealthRounds(t *testing.T) {
	m := AggregateHealth([]int{100, 90, 90})
	assert.Equal(t, 93.33, m.AverageHealthScore)
}
