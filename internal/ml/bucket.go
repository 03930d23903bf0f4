package ml

import (
	"time"

	"github.com/Capstone-E1/aquahealth_backend/internal/models"
)

// Granularity is the width of a time bucket
type Granularity string

const (
	Hourly Granularity = "hour"
	Daily  Granularity = "day"
)

// Bucket averages the readings that share a calendar hour or day
type Bucket struct {
	Timestamp   time.Time `json:"timestamp"`
	DeviceID    string    `json:"device_id"`
	Temperature float64   `json:"temperature"`
	PH          float64   `json:"pH"`
	EC          float64   `json:"EC"`
}

// BucketReadings groups readings by local calendar hour or day
func BucketReadings(readings []models.SensorReading, g Granularity) []Bucket {
	return BucketReadingsIn(readings, g, time.Local)
}

type accumulator struct {
	start    time.Time
	deviceID string
	n        int
	sum      SensorValues
}

// BucketReadingsIn groups readings by calendar fields in loc. Buckets come out in
// order of first appearance, so callers sort input ascending for chronological output.
// Each bucket keeps the device id of its first reading.
func BucketReadingsIn(readings []models.SensorReading, g Granularity, loc *time.Location) []Bucket {
	index := make(map[time.Time]int)
	var accs []*accumulator

	for _, r := range readings {
		start := truncate(r.Timestamp.In(loc), g)
		i, ok := index[start]
		if !ok {
			i = len(accs)
			index[start] = i
			accs = append(accs, &accumulator{start: start, deviceID: r.DeviceID})
		}
		a := accs[i]
		a.n++
		a.sum.Temperature += r.Temperature
		a.sum.PH += r.PH
		a.sum.EC += r.EC
	}

	buckets := make([]Bucket, 0, len(accs))
	for _, a := range accs {
		n := float64(a.n)
		buckets = append(buckets, Bucket{
			Timestamp:   a.start,
			DeviceID:    a.deviceID,
			Temperature: a.sum.Temperature / n,
			PH:          a.sum.PH / n,
			EC:          a.sum.EC / n,
		})
	}
	return buckets
}

// truncate keeps the calendar fields of the granularity. Unlike time.Truncate it
// respects the location's wall clock.
func truncate(t time.Time, g Granularity) time.Time {
	hour := t.Hour()
	if g == Daily {
		hour = 0
	}
	return time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, t.Location())
}
