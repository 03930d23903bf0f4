package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Capstone-E1/aquahealth_backend/config"
	"github.com/Capstone-E1/aquahealth_backend/internal/database"
	"github.com/Capstone-E1/aquahealth_backend/internal/logger"
	"github.com/Capstone-E1/aquahealth_backend/internal/ml"
	"github.com/Capstone-E1/aquahealth_backend/internal/repository"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	var (
		collection = flag.String("collection", repository.SensorReadingsCollection, "Collection to view (sensor_readings, disease_predictions)")
		limit      = flag.Int("limit", 10, "Number of records to show")
		device     = flag.String("device", "", "Only show readings from this device")
	)
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logger.New("warn", "console", "aquahealth-viewdata")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.Connect(cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	ds := database.NewDatabaseStore(db.DB, log)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch *collection {
	case repository.SensorReadingsCollection:
		err = viewSensorReadings(ctx, repository.NewSensors(ds, log), *device, *limit)
	case repository.PredictionsCollection:
		err = viewPredictions(ctx, repository.NewPredictions(ds, log), *limit)
	default:
		fmt.Fprintf(os.Stderr, "Unknown collection: %s\n", *collection)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal("Query failed", zap.Error(err))
	}
}

func viewSensorReadings(ctx context.Context, sensors *repository.SensorRepository, device string, limit int) error {
	readings, err := sensors.Readings(ctx, repository.ReadingQuery{DeviceID: device, Limit: limit})
	if err != nil {
		return err
	}

	fmt.Printf("\nLatest %d sensor readings:\n", limit)
	fmt.Printf("%-36s %-12s %-20s %-8s %-6s %-8s %-6s\n",
		"ID", "Device", "Timestamp", "Temp", "pH", "EC", "Score")
	for _, r := range readings {
		fmt.Printf("%-36s %-12s %-20s %-8.2f %-6.2f %-8.3f %-6d\n",
			r.ID, r.DeviceID, r.Timestamp.Format("2006-01-02 15:04:05"),
			r.Temperature, r.PH, r.EC, ml.HealthScore(r.Temperature, r.PH, r.EC))
	}

	if len(readings) == 0 {
		fmt.Println("No sensor readings found.")
	} else {
		fmt.Printf("\nTotal: %d readings\n", len(readings))
	}
	return nil
}

func viewPredictions(ctx context.Context, predictions *repository.PredictionRepository, limit int) error {
	records, err := predictions.History(ctx, repository.HistoryFilter{Limit: limit})
	if err != nil {
		return err
	}

	fmt.Printf("\nLatest %d disease predictions:\n", limit)
	fmt.Printf("%-36s %-20s %-10s %-10s %s\n", "ID", "Timestamp", "Type", "Overall", "Top")
	for _, r := range records {
		top := "-"
		if len(r.Prediction.Predictions) > 0 {
			p := r.Prediction.Predictions[0]
			top = fmt.Sprintf("%s (%.2f)", p.Disease, p.Probability)
		}
		fmt.Printf("%-36s %-20s %-10s %-10s %s\n",
			r.ID, r.Timestamp.Format("2006-01-02 15:04:05"), r.DiseaseType, r.Prediction.OverallRisk, top)
	}

	if len(records) == 0 {
		fmt.Println("No predictions found.")
	}
	return nil
}
