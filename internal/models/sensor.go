package models

import (
	"time"
)

// SensorReading represents one water-quality sample from a field device
type SensorReading struct {
	ID          string     `json:"id"`
	DeviceID    string     `json:"device_id"`
	Temperature float64    `json:"temperature"`
	PH          float64    `json:"pH"`
	EC          float64    `json:"EC"`
	Timestamp   time.Time  `json:"timestamp"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
}

// SensorData is the raw body a device or client submits. Missing values stay nil.
type SensorData struct {
	Temperature *float64 `json:"temperature"`
	PH          *float64 `json:"pH"`
	EC          *float64 `json:"EC"`
	DeviceID    string   `json:"device_id"`
}

// MissingFields lists the required fields absent from the submission
func (d SensorData) MissingFields() []string {
	var missing []string
	if d.Temperature == nil {
		missing = append(missing, "temperature")
	}
	if d.PH == nil {
		missing = append(missing, "pH")
	}
	if d.EC == nil {
		missing = append(missing, "EC")
	}
	if d.DeviceID == "" {
		missing = append(missing, "device_id")
	}
	return missing
}

// ToReading converts a complete submission into a reading. Callers check MissingFields first.
func (d SensorData) ToReading() *SensorReading {
	r := &SensorReading{DeviceID: d.DeviceID}
	if d.Temperature != nil {
		r.Temperature = *d.Temperature
	}
	if d.PH != nil {
		r.PH = *d.PH
	}
	if d.EC != nil {
		r.EC = *d.EC
	}
	return r
}

func (s *SensorReading) GetID() string   { return s.ID }
func (s *SensorReading) SetID(id string) { s.ID = id }

// Touch sets the sample time on ingestion and records corrections afterwards
func (s *SensorReading) Touch(now time.Time, created bool) {
	if created {
		if s.Timestamp.IsZero() {
			s.Timestamp = now
		}
		return
	}
	s.UpdatedAt = &now
}

// Validate checks if sensor values are within physically meaningful ranges
func (s *SensorReading) Validate() []string {
	var errs []string
	if blank(s.DeviceID) {
		errs = append(errs, "Device ID is required")
	}
	// pH should be between 0-14
	if s.PH < 0 || s.PH > 14 {
		errs = append(errs, "pH must be between 0 and 14")
	}
	// EC is a conductivity and cannot be negative
	if s.EC < 0 {
		errs = append(errs, "EC must be non-negative")
	}
	return errs
}
