// Package export renders sensor history as spreadsheets.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/Capstone-E1/aquahealth_backend/internal/ml"
	"github.com/Capstone-E1/aquahealth_backend/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet = "Summary"
	dataSheet    = "Sensor Data"
	timeLayout   = "2006-01-02 15:04:05"
)

var sensorHeaders = []string{"Timestamp", "Device ID", "Temperature (C)", "pH", "EC (mS/cm)", "Health Score"}

// ExportService handles data export functionality
type ExportService struct{}

// NewExportService creates a new export service instance
func NewExportService() *ExportService {
	return &ExportService{}
}

// ExportData is one export request's readings plus its metadata
type ExportData struct {
	SensorReadings []models.SensorReading
	ExportMetadata ExportMetadata
}

// ExportMetadata contains information about the export
type ExportMetadata struct {
	GeneratedAt time.Time
	DateRange   string
	DeviceID    string
}

// Summary is the aggregate shown on the first sheet
type Summary struct {
	TotalReadings int
	Devices       int
	Averages      ml.SensorValues
	Health        *ml.HealthMetrics
}

// Summarize averages the readings and scores their health
func Summarize(readings []models.SensorReading) Summary {
	s := Summary{TotalReadings: len(readings)}
	if len(readings) == 0 {
		return s
	}

	devices := make(map[string]struct{})
	scores := make([]int, 0, len(readings))
	for _, r := range readings {
		devices[r.DeviceID] = struct{}{}
		s.Averages.Temperature += r.Temperature
		s.Averages.PH += r.PH
		s.Averages.EC += r.EC
		scores = append(scores, ml.HealthScore(r.Temperature, r.PH, r.EC))
	}

	n := float64(len(readings))
	s.Devices = len(devices)
	s.Averages.Temperature /= n
	s.Averages.PH /= n
	s.Averages.EC /= n
	s.Health = ml.AggregateHealth(scores)
	return s
}

// GenerateExcel builds a workbook with a Summary and a Sensor Data sheet.
// The caller closes the returned file.
func (es *ExportService) GenerateExcel(data ExportData) (*excelize.File, error) {
	f := excelize.NewFile()

	generated := data.ExportMetadata.GeneratedAt.Format(time.RFC3339)
	if err := f.SetDocProps(&excelize.DocProperties{
		Category:       "AquaHealth Water Monitoring",
		Created:        generated,
		Creator:        "AquaHealth System",
		Description:    "Water quality sensor history export",
		LastModifiedBy: "AquaHealth Backend",
		Modified:       generated,
		Subject:        "Water Quality Sensor History",
		Title:          "AquaHealth Sensor Report",
		Version:        "1.0",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set document properties: %w", err)
	}

	if err := es.createSummarySheet(f, data); err != nil {
		f.Close()
		return nil, err
	}
	if err := es.createSensorDataSheet(f, data.SensorReadings); err != nil {
		f.Close()
		return nil, err
	}

	f.SetActiveSheet(0)
	return f, nil
}

// WriteExcel generates the workbook straight into w
func (es *ExportService) WriteExcel(w io.Writer, data ExportData) error {
	f, err := es.GenerateExcel(data)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func headerStyle(f *excelize.File, color string, size float64) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: size, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
}

func (es *ExportService) createSummarySheet(f *excelize.File, data ExportData) error {
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	style, err := headerStyle(f, "4472C4", 14)
	if err != nil {
		return fmt.Errorf("failed to create summary style: %w", err)
	}

	summary := Summarize(data.SensorReadings)
	device := data.ExportMetadata.DeviceID
	if device == "" {
		device = "All devices"
	}
	status, avgScore := "N/A", 0.0
	if summary.Health != nil {
		status, avgScore = summary.Health.HealthStatus, summary.Health.AverageHealthScore
	}

	rows := [][2]any{
		{"Generated At:", data.ExportMetadata.GeneratedAt.Format(timeLayout)},
		{"Date Range:", data.ExportMetadata.DateRange},
		{"Device:", device},
		{"Total Readings:", summary.TotalReadings},
		{"Devices:", summary.Devices},
		{"Average Temperature:", round2(summary.Averages.Temperature)},
		{"Average pH:", round2(summary.Averages.PH)},
		{"Average EC:", round2(summary.Averages.EC)},
		{"Average Health Score:", avgScore},
		{"Health Status:", status},
	}

	f.SetCellValue(summarySheet, "A1", "AquaHealth Water Quality Report")
	f.MergeCell(summarySheet, "A1", "D1")
	f.SetCellStyle(summarySheet, "A1", "D1", style)
	f.SetRowHeight(summarySheet, 1, 25)

	for i, row := range rows {
		r := i + 3
		f.SetCellValue(summarySheet, fmt.Sprintf("A%d", r), row[0])
		f.SetCellValue(summarySheet, fmt.Sprintf("B%d", r), row[1])
	}

	f.SetColWidth(summarySheet, "A", "A", 24)
	f.SetColWidth(summarySheet, "B", "D", 20)
	return nil
}

func (es *ExportService) createSensorDataSheet(f *excelize.File, readings []models.SensorReading) error {
	if _, err := f.NewSheet(dataSheet); err != nil {
		return fmt.Errorf("failed to create sensor sheet: %w", err)
	}

	for i, header := range sensorHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(dataSheet, cell, header)
	}

	style, err := headerStyle(f, "70AD47", 11)
	if err != nil {
		return fmt.Errorf("failed to create sensor style: %w", err)
	}
	f.SetCellStyle(dataSheet, "A1", "F1", style)

	for i, reading := range readings {
		row := i + 2
		f.SetCellValue(dataSheet, fmt.Sprintf("A%d", row), reading.Timestamp.Format(timeLayout))
		f.SetCellValue(dataSheet, fmt.Sprintf("B%d", row), reading.DeviceID)
		f.SetCellValue(dataSheet, fmt.Sprintf("C%d", row), reading.Temperature)
		f.SetCellValue(dataSheet, fmt.Sprintf("D%d", row), reading.PH)
		f.SetCellValue(dataSheet, fmt.Sprintf("E%d", row), reading.EC)
		f.SetCellValue(dataSheet, fmt.Sprintf("F%d", row), ml.HealthScore(reading.Temperature, reading.PH, reading.EC))
	}

	f.SetColWidth(dataSheet, "A", "B", 20)
	f.SetColWidth(dataSheet, "C", "F", 14)
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// GenerateCSV creates CSV rows for sensor readings, header first
func (es *ExportService) GenerateCSV(readings []models.SensorReading) [][]string {
	records := [][]string{sensorHeaders}

	for _, reading := range readings {
		records = append(records, []string{
			reading.Timestamp.Format(timeLayout),
			reading.DeviceID,
			strconv.FormatFloat(reading.Temperature, 'f', 2, 64),
			strconv.FormatFloat(reading.PH, 'f', 2, 64),
			strconv.FormatFloat(reading.EC, 'f', 2, 64),
			strconv.Itoa(ml.HealthScore(reading.Temperature, reading.PH, reading.EC)),
		})
	}

	return records
}

// WriteCSV writes the readings as CSV to w
func (es *ExportService) WriteCSV(w io.Writer, readings []models.SensorReading) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(es.GenerateCSV(readings)); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}
