package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/Capstone-E1/aquahealth_backend/internal/export"
	"github.com/Capstone-E1/aquahealth_backend/internal/models"
	"github.com/Capstone-E1/aquahealth_backend/internal/repository"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const defaultDeviceLimit = 10

func (s *Server) getAllReadings(w http.ResponseWriter, r *http.Request) {
	readings, err := s.sensors.Readings(r.Context(), repository.ReadingQuery{})
	if err != nil {
		s.sendError(w, r, err, "Failed to fetch sensor readings")
		return
	}
	if len(readings) == 0 {
		sendEmpty(w, "No sensor readings found")
		return
	}
	sendList(w, "Sensor readings retrieved successfully", readings)
}

func (s *Server) getLatestReading(w http.ResponseWriter, r *http.Request) {
	reading, found, err := s.sensors.Latest(r.Context())
	if err != nil {
		s.sendError(w, r, err, "Failed to fetch latest sensor reading")
		return
	}
	if !found {
		s.sendErrorResponse(w, http.StatusNotFound, "No sensor readings found")
		return
	}
	s.sendSuccess(w, http.StatusOK, "Latest sensor reading retrieved successfully", reading)
}

func (s *Server) getReadingsByDateRange(w http.ResponseWriter, r *http.Request) {
	start, end, ok, err := dateRange(r)
	if !ok {
		s.sendErrorResponse(w, http.StatusBadRequest, "Start date and end date are required")
		return
	}
	if err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest, "Invalid date format")
		return
	}

	readings, err := s.sensors.Readings(r.Context(), repository.ReadingQuery{
		DeviceID: r.URL.Query().Get("deviceId"),
		Start:    start,
		End:      end,
	})
	if err != nil {
		s.sendError(w, r, err, "Failed to fetch sensor readings")
		return
	}
	if len(readings) == 0 {
		sendEmpty(w, "No sensor readings found for the specified date range")
		return
	}
	sendList(w, "Sensor readings retrieved successfully", readings)
}

func (s *Server) getReadingsByDevice(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "deviceID")
	readings, err := s.sensors.Readings(r.Context(), repository.ReadingQuery{
		DeviceID: deviceID,
		Limit:    queryInt(r, "limit", defaultDeviceLimit),
	})
	if err != nil {
		s.sendError(w, r, err, "Failed to fetch sensor readings")
		return
	}
	if len(readings) == 0 {
		sendEmpty(w, "No sensor readings found for device: "+deviceID)
		return
	}
	sendList(w, "Sensor readings retrieved successfully", readings)
}

func (s *Server) getSensorStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := s.sensors.Statistics(r.Context())
	if err != nil {
		s.sendError(w, r, err, "Failed to calculate sensor statistics")
		return
	}
	if stats == nil {
		s.sendErrorResponse(w, http.StatusNotFound, "No sensor readings found for statistics")
		return
	}
	s.sendSuccess(w, http.StatusOK, "Sensor statistics calculated successfully", stats)
}

func (s *Server) addSensorReading(w http.ResponseWriter, r *http.Request) {
	var data models.SensorData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(data.MissingFields()) > 0 {
		s.sendErrorResponse(w, http.StatusBadRequest, "Missing required fields: temperature, pH, EC, device_id")
		return
	}

	reading, err := s.sensors.Create(r.Context(), data.ToReading())
	if err != nil {
		s.sendError(w, r, err, "Failed to add sensor reading")
		return
	}
	s.broadcastReading(reading)

	s.logger.Debug("Added sensor reading",
		zap.String("id", reading.ID),
		zap.String("device_id", reading.DeviceID),
	)
	s.sendSuccess(w, http.StatusCreated, "Sensor reading added successfully", reading)
}

func (s *Server) updateSensorReading(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	reading, err := s.sensors.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		s.sendError(w, r, err, "Failed to update sensor reading")
		return
	}
	s.sendSuccess(w, http.StatusOK, "Sensor reading updated successfully", reading)
}

func (s *Server) deleteSensorReading(w http.ResponseWriter, r *http.Request) {
	if err := s.sensors.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.sendError(w, r, err, "Failed to delete sensor reading")
		return
	}
	s.sendSuccess(w, http.StatusOK, "Sensor reading deleted successfully", nil)
}

// exportQuery reads the optional window and device of an export request
func (s *Server) exportQuery(w http.ResponseWriter, r *http.Request) (repository.ReadingQuery, string, bool) {
	start, end, ok, err := dateRange(r)
	if err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest, "Invalid date format")
		return repository.ReadingQuery{}, "", false
	}

	q := repository.ReadingQuery{DeviceID: r.URL.Query().Get("deviceId"), Ascending: true}
	label := "All time"
	if ok {
		q.Start, q.End = start, end
		label = fmt.Sprintf("%s to %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	return q, label, true
}

func exportFilename(ext string, q repository.ReadingQuery, generated string) string {
	name := "aquahealth_sensors_" + generated
	if q.DeviceID != "" {
		name += "_" + strings.ReplaceAll(q.DeviceID, "\"", "")
	}
	return name + "." + ext
}

func (s *Server) exportExcel(w http.ResponseWriter, r *http.Request) {
	q, label, ok := s.exportQuery(w, r)
	if !ok {
		return
	}
	readings, err := s.sensors.Readings(r.Context(), q)
	if err != nil {
		s.sendError(w, r, err, "Failed to export sensor readings")
		return
	}

	now := s.now()
	var buf bytes.Buffer
	err = s.exportService.WriteExcel(&buf, export.ExportData{
		SensorReadings: readings,
		ExportMetadata: export.ExportMetadata{
			GeneratedAt: now,
			DateRange:   label,
			DeviceID:    q.DeviceID,
		},
	})
	if err != nil {
		s.sendError(w, r, err, "Failed to generate Excel file")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", exportFilename("xlsx", q, now.Format("20060102_150405"))))
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Warn("Failed to write Excel export", zap.Error(err))
	}
}

func (s *Server) exportCSV(w http.ResponseWriter, r *http.Request) {
	q, _, ok := s.exportQuery(w, r)
	if !ok {
		return
	}
	readings, err := s.sensors.Readings(r.Context(), q)
	if err != nil {
		s.sendError(w, r, err, "Failed to export sensor readings")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", exportFilename("csv", q, s.now().Format("20060102_150405"))))
	if err := s.exportService.WriteCSV(w, readings); err != nil {
		s.logger.Warn("Failed to write CSV export", zap.Error(err))
	}
}
