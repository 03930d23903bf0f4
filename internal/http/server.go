// Package http exposes the AquaHealth REST API.
package http

import (
	"time"

	"github.com/Capstone-E1/aquahealth_backend/internal/export"
	"github.com/Capstone-E1/aquahealth_backend/internal/ml"
	"github.com/Capstone-E1/aquahealth_backend/internal/models"
	"github.com/Capstone-E1/aquahealth_backend/internal/repository"
	"github.com/Capstone-E1/aquahealth_backend/internal/ws"
	"go.uber.org/zap"
)

// Dependencies are the collaborators the handlers need. Hub may be nil.
type Dependencies struct {
	Regions     *repository.Regions
	Users       *repository.UserRepository
	Sensors     *repository.SensorRepository
	Predictions *repository.PredictionRepository
	Disease     *ml.DiseaseService
	Hub         *ws.Hub
	Logger      *zap.Logger
	Production  bool
}

// Server holds the handler state
type Server struct {
	regions       *repository.Regions
	users         *repository.UserRepository
	sensors       *repository.SensorRepository
	predictions   *repository.PredictionRepository
	disease       *ml.DiseaseService
	hub           *ws.Hub
	exportService *export.ExportService
	logger        *zap.Logger
	production    bool
	started       time.Time
	now           func() time.Time
}

// NewServer creates the handler set
func NewServer(deps Dependencies) *Server {
	return &Server{
		regions:       deps.Regions,
		users:         deps.Users,
		sensors:       deps.Sensors,
		predictions:   deps.Predictions,
		disease:       deps.Disease,
		hub:           deps.Hub,
		exportService: export.NewExportService(),
		logger:        deps.Logger,
		production:    deps.Production,
		started:       time.Now(),
		now:           time.Now,
	}
}

// broadcastReading pushes a stored reading to websocket clients
func (s *Server) broadcastReading(reading *models.SensorReading) {
	if s.hub != nil {
		s.hub.BroadcastSensorReading(reading)
	}
}
