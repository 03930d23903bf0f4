package repository

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Capstone-E1/aquahealth_backend/internal/models"
	"github.com/Capstone-E1/aquahealth_backend/internal/store"
	"go.uber.org/zap"
)

const SensorReadingsCollection = "sensor_readings"

var newestFirst = []store.Order{{Field: "timestamp", Desc: true, Kind: store.KindTime}}

// SensorRepository stores device readings and answers time-window queries
type SensorRepository struct {
	*Repository[models.SensorReading, *models.SensorReading]
}

// NewSensors creates the sensor reading repository
func NewSensors(ds store.DocumentStore, logger *zap.Logger) *SensorRepository {
	return &SensorRepository{New[models.SensorReading, *models.SensorReading](ds, Options[models.SensorReading]{
		Collection: SensorReadingsCollection,
		Resource:   "Sensor reading",
		Plural:     "Sensor readings",
		Order:      newestFirst,
	}, logger)}
}

// ReadingQuery selects readings by device and time window. Zero values mean unbounded.
type ReadingQuery struct {
	DeviceID  string
	Start     time.Time
	End       time.Time
	Ascending bool
	Limit     int
}

func (q ReadingQuery) toStore() store.Query {
	var filters []store.Filter
	if q.DeviceID != "" {
		filters = append(filters, store.Where("device_id", store.OpEq, q.DeviceID))
	}
	if !q.Start.IsZero() {
		filters = append(filters, store.Where("timestamp", store.OpGte, q.Start))
	}
	if !q.End.IsZero() {
		filters = append(filters, store.Where("timestamp", store.OpLte, q.End))
	}
	return store.Query{
		Filters: filters,
		Order:   []store.Order{{Field: "timestamp", Desc: !q.Ascending, Kind: store.KindTime}},
		Limit:   q.Limit,
	}
}

// Readings runs q
func (r *SensorRepository) Readings(ctx context.Context, q ReadingQuery) ([]models.SensorReading, error) {
	readings, err := r.Find(ctx, q.toStore())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sensor readings: %w", err)
	}
	return readings, nil
}

// LastDays returns readings from the trailing window, oldest first
func (r *SensorRepository) LastDays(ctx context.Context, days int, deviceID string) ([]models.SensorReading, error) {
	end := r.now()
	return r.Readings(ctx, ReadingQuery{
		DeviceID:  deviceID,
		Start:     end.AddDate(0, 0, -days),
		End:       end,
		Ascending: true,
	})
}

// Latest returns the most recent reading; found is false when there are none
func (r *SensorRepository) Latest(ctx context.Context) (reading *models.SensorReading, found bool, err error) {
	readings, err := r.Readings(ctx, ReadingQuery{Limit: 1})
	if err != nil || len(readings) == 0 {
		return nil, false, err
	}
	return &readings[0], true, nil
}

// Range summarizes one numeric field
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Triplet holds a value per sensor channel
type Triplet[V any] struct {
	Temperature V `json:"temperature"`
	PH          V `json:"pH"`
	EC          V `json:"EC"`
}

// DateRange is the span of timestamps in a result set
type DateRange struct {
	Earliest time.Time `json:"earliest"`
	Latest   time.Time `json:"latest"`
}

// SensorStats summarizes the whole collection
type SensorStats struct {
	TotalReadings int              `json:"totalReadings"`
	Devices       []string         `json:"devices"`
	DateRange     DateRange        `json:"dateRange"`
	Averages      Triplet[float64] `json:"averages"`
	Ranges        Triplet[Range]   `json:"ranges"`
}

// Statistics scans every reading; it returns nil when the collection is empty
func (r *SensorRepository) Statistics(ctx context.Context) (*SensorStats, error) {
	readings, err := r.Find(ctx, store.Query{})
	if err != nil {
		return nil, fmt.Errorf("failed to calculate sensor statistics: %w", err)
	}
	if len(readings) == 0 {
		return nil, nil
	}

	stats := &SensorStats{TotalReadings: len(readings), Devices: []string{}}
	seen := make(map[string]bool)
	inf := math.Inf(1)
	stats.Ranges = Triplet[Range]{
		Temperature: Range{Min: inf, Max: -inf},
		PH:          Range{Min: inf, Max: -inf},
		EC:          Range{Min: inf, Max: -inf},
	}
	var sum Triplet[float64]

	for i, reading := range readings {
		if !seen[reading.DeviceID] {
			seen[reading.DeviceID] = true
			stats.Devices = append(stats.Devices, reading.DeviceID)
		}
		if i == 0 || reading.Timestamp.Before(stats.DateRange.Earliest) {
			stats.DateRange.Earliest = reading.Timestamp
		}
		if i == 0 || reading.Timestamp.After(stats.DateRange.Latest) {
			stats.DateRange.Latest = reading.Timestamp
		}

		sum.Temperature += reading.Temperature
		sum.PH += reading.PH
		sum.EC += reading.EC
		widen(&stats.Ranges.Temperature, reading.Temperature)
		widen(&stats.Ranges.PH, reading.PH)
		widen(&stats.Ranges.EC, reading.EC)
	}

	n := float64(len(readings))
	stats.Averages = Triplet[float64]{
		Temperature: sum.Temperature / n,
		PH:          sum.PH / n,
		EC:          sum.EC / n,
	}
	return stats, nil
}

func widen(r *Range, v float64) {
	r.Min = math.Min(r.Min, v)
	r.Max = math.Max(r.Max, v)
}
