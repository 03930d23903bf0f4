package http

import (
	"net/http"
	"time"

	"github.com/Capstone-E1/aquahealth_backend/internal/models"
	"github.com/Capstone-E1/aquahealth_backend/internal/repository"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Routes configures all HTTP routes for the AquaHealth API
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(s.recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", s.serverHealth)

	districts := newEntityHandlers(s, s.regions.Districts, models.NewDistrict, "District", "Districts",
		stringFilter("name"), boolFilter("is_active"), boolFilter("is_archived"))
	taluks := newEntityHandlers(s, s.regions.Taluks, models.NewTaluk, "Taluk", "Taluks",
		stringFilter("district"), boolFilter("is_active"), boolFilter("is_archived"))
	taluks.expanded = expandWith(s.regions.TalukExpanded)
	hoblis := newEntityHandlers(s, s.regions.Hoblis, models.NewHobli, "Hobli", "Hoblis",
		stringFilter("district"), stringFilter("taluk"), boolFilter("is_active"), boolFilter("is_archived"))
	hoblis.expanded = expandWith(s.regions.HobliExpanded)
	villages := newEntityHandlers(s, s.regions.Villages, models.NewVillage, "Village", "Villages",
		stringFilter("district"), stringFilter("taluk"), stringFilter("hobli"), boolFilter("is_active"), boolFilter("is_archived"))
	villages.expanded = expandWith(s.regions.VillageExpanded)
	users := newEntityHandlers(s, s.users, models.NewUser, "User", "Users",
		stringFilter("district"), stringFilter("taluk"), stringFilter("village"), boolFilter("isActive"))

	r.Route("/api", func(r chi.Router) {
		r.Route("/districts", func(r chi.Router) {
			districts.mount(r, "is_active", "is_archived")
		})

		r.Route("/taluks", func(r chi.Router) {
			r.Get("/district/{parentID}", childrenOf(taluks, "district"))
			taluks.mount(r, "is_active", "is_archived")
		})

		r.Route("/hoblis", func(r chi.Router) {
			r.Get("/district/{parentID}", childrenOf(hoblis, "district"))
			r.Get("/taluk/{parentID}", childrenOf(hoblis, "taluk"))
			hoblis.mount(r, "is_active", "is_archived")
		})

		r.Route("/villages", func(r chi.Router) {
			r.Get("/code/{code}", s.getVillageByCode)
			r.Get("/district/{parentID}", childrenOf(villages, "district"))
			r.Get("/taluk/{parentID}", childrenOf(villages, "taluk"))
			r.Get("/hobli/{parentID}", childrenOf(villages, "hobli"))
			villages.mount(r, "is_active", "is_archived")
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/location/{district}", s.getUsersByLocation)
			users.mount(r, "isActive", "")
		})

		r.Route("/sensors", func(r chi.Router) {
			r.Get("/", s.getAllReadings)
			r.Post("/", s.addSensorReading)
			r.Get("/latest", s.getLatestReading)
			r.Get("/range", s.getReadingsByDateRange)
			r.Get("/device/{deviceID}", s.getReadingsByDevice)
			r.Get("/stats", s.getSensorStatistics)
			r.Get("/export.xlsx", s.exportExcel)
			r.Get("/export.csv", s.exportCSV)
			r.Put("/{id}", s.updateSensorReading)
			r.Delete("/{id}", s.deleteSensorReading)
		})

		r.Route("/ml", func(r chi.Router) {
			r.Get("/data", s.getMLData)
			r.Get("/anomaly-data", s.getAnomalyData)
			r.Get("/trend-data", s.getTrendData)
			r.Get("/predictive-data", s.getPredictiveData)
			r.Get("/health-assessment", s.getHealthAssessment)
		})

		r.Route("/disease", func(r chi.Router) {
			r.Post("/predict", s.predictDisease)
			r.Get("/history", s.getPredictionHistory)
			r.Get("/prediction/{id}", s.getPrediction)
			r.Get("/statistics", s.getPredictionStatistics)
			r.Get("/health", s.predictorHealth)
			r.Get("/recommendations/{diseaseType}", s.getRecommendations)
		})
	})

	if s.hub != nil {
		r.Handle("/ws", s.hub)
	}

	r.NotFound(s.routeNotFound)
	r.MethodNotAllowed(s.routeNotFound)

	return r
}

// mount registers the shared CRUD, search, stats and flag routes
func (h *entityHandlers[T, PT]) mount(r chi.Router, activeField, archivedField string) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/stats", h.stats)
	r.Get("/search/{term}", h.search)
	r.Get("/{id}", h.get)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.remove)
	r.Patch("/{id}/activate", h.setFlag(activeField, true, "activated"))
	r.Patch("/{id}/deactivate", h.setFlag(activeField, false, "deactivated"))
	if archivedField != "" {
		r.Patch("/{id}/archive", h.setFlag(archivedField, true, "archived"))
	}
}

func childrenOf[T any, PT interface {
	*T
	models.Entity
}](h *entityHandlers[T, PT], parentField string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := repository.ActiveChildren(r.Context(), h.repo, parentField, chi.URLParam(r, "parentID"))
		if err != nil {
			h.s.sendError(w, r, err, "Failed to fetch "+h.pluralLower())
			return
		}
		sendList(w, h.plural+" retrieved successfully", items)
	}
}

// ServerHealth is the liveness answer of GET /health
type ServerHealth struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    float64   `json:"uptime"`
}

func (s *Server) serverHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, ServerHealth{
		Success:   true,
		Message:   "Server is running",
		Timestamp: s.now().UTC(),
		Uptime:    time.Since(s.started).Seconds(),
	})
}

func (s *Server) routeNotFound(w http.ResponseWriter, r *http.Request) {
	s.sendErrorResponse(w, http.StatusNotFound, "Route "+r.URL.RequestURI()+" not found")
}
