// Package services holds device payload handling shared by the ingestion paths.
package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Capstone-E1/aquahealth_backend/internal/models"
)

// SensorParser decodes device payloads into readings
type SensorParser struct{}

// NewSensorParser creates a new instance of SensorParser
func NewSensorParser() *SensorParser {
	return &SensorParser{}
}

// Parse accepts JSON first and falls back to the comma-separated form.
// deviceID is used when the payload does not name its device.
func (sp *SensorParser) Parse(payload []byte, deviceID string) (*models.SensorReading, error) {
	reading, jsonErr := sp.ParseSensorJSON(payload, deviceID)
	if jsonErr == nil {
		return reading, nil
	}
	reading, err := sp.ParseSensorString(string(payload), deviceID)
	if err != nil {
		return nil, fmt.Errorf("unrecognized sensor payload: %v; %w", jsonErr, err)
	}
	return reading, nil
}

// ParseSensorJSON parses {"temperature", "pH", "EC", "device_id"}
func (sp *SensorParser) ParseSensorJSON(payload []byte, deviceID string) (*models.SensorReading, error) {
	var data models.SensorData
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, fmt.Errorf("failed to parse sensor JSON: %w", err)
	}
	if data.DeviceID == "" {
		data.DeviceID = deviceID
	}
	if missing := data.MissingFields(); len(missing) > 0 {
		return nil, fmt.Errorf("sensor JSON missing fields: %s", strings.Join(missing, ", "))
	}
	return data.ToReading(), nil
}

// ParseSensorString parses "temperature,pH,EC"
func (sp *SensorParser) ParseSensorString(payload string, deviceID string) (*models.SensorReading, error) {
	var temperature, ph, ec float64

	n, err := fmt.Sscanf(strings.TrimSpace(payload), "%f,%f,%f", &temperature, &ph, &ec)
	if err != nil || n != 3 {
		return nil, fmt.Errorf("failed to parse sensor string: expected 3 values (temperature,pH,EC), got %d", n)
	}
	if deviceID == "" {
		return nil, fmt.Errorf("sensor string has no device id")
	}

	return &models.SensorReading{
		DeviceID:    deviceID,
		Temperature: temperature,
		PH:          ph,
		EC:          ec,
	}, nil
}

// FormatSensorReading formats sensor reading for logging or debugging
func (sp *SensorParser) FormatSensorReading(reading *models.SensorReading) string {
	return fmt.Sprintf("Device: %s, Temperature: %.2f C, pH: %.2f, EC: %.2f mS/cm",
		reading.DeviceID,
		reading.Temperature,
		reading.PH,
		reading.EC)
}
