package models

import "time"

// Risk levels assigned to a prediction probability
const (
	RiskMinimal  = "minimal"
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

// Disease types the external predictor serves
const (
	DiseaseCholera   = "cholera"
	DiseaseDiarrheal = "diarrheal"
	DiseaseTyphoid   = "typhoid"
	DiseaseAll       = "all"
)

// Diseases lists every disease in dispatch order
var Diseases = []string{DiseaseCholera, DiseaseDiarrheal, DiseaseTyphoid}

// SensorInput is the sensor triplet attached to a prediction request.
// Any field may be absent.
type SensorInput struct {
	Temperature *float64   `json:"temperature,omitempty"`
	PH          *float64   `json:"pH,omitempty"`
	EC          *float64   `json:"EC,omitempty"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
}

// Empty reports whether none of the three sensor values were supplied
func (s SensorInput) Empty() bool {
	return s.Temperature == nil && s.PH == nil && s.EC == nil
}

// Symptoms is the field-worker survey attached to a prediction request.
// Absent values are filled from SymptomDefaults when features are built.
type Symptoms struct {
	WaterSource         *string  `json:"water_source,omitempty"`
	AccessToCleanWater  *float64 `json:"access_to_clean_water,omitempty"`
	InfantMortalityRate *float64 `json:"infant_mortality_rate,omitempty"`
	GDP                 *float64 `json:"gdp,omitempty"`
	HealthcareAccess    *float64 `json:"healthcare_access,omitempty"`
	UrbanizationRate    *float64 `json:"urbanization_rate,omitempty"`
	SanitationCoverage  *float64 `json:"sanitation_coverage,omitempty"`
	RainfallPerYear     *float64 `json:"rainfall_per_year,omitempty"`
	PopulationDensity   *float64 `json:"population_density,omitempty"`
	Symptoms            []string `json:"symptoms,omitempty"`
	PatientAge          *float64 `json:"patient_age,omitempty"`
	PatientGender       *string  `json:"patient_gender,omitempty"`
	RecentTravel        *bool    `json:"recent_travel,omitempty"`
	ContactWithSick     *bool    `json:"contact_with_sick,omitempty"`
	VaccinationStatus   *string  `json:"vaccination_status,omitempty"`
}

// DiseasePrediction is one predictor result, or its fallback stand-in
type DiseasePrediction struct {
	Disease     string  `json:"disease"`
	Probability float64 `json:"probability"`
	Confidence  float64 `json:"confidence"`
	RiskLevel   string  `json:"risk_level"`
	Error       string  `json:"error,omitempty"`
}

// Recommendation is canned follow-up guidance for a likely disease
type Recommendation struct {
	Disease string   `json:"disease"`
	Action  string   `json:"action"`
	Steps   []string `json:"steps"`
}

// PredictionResult aggregates the per-disease predictions of one request
type PredictionResult struct {
	Predictions     []DiseasePrediction `json:"predictions"`
	OverallRisk     string              `json:"overall_risk"`
	Recommendations []Recommendation    `json:"recommendations"`
	Timestamp       time.Time           `json:"timestamp"`
}

// PredictionRecord is the persisted outcome of one prediction request
type PredictionRecord struct {
	ID          string           `json:"id"`
	SensorData  SensorInput      `json:"sensorData"`
	Symptoms    Symptoms         `json:"symptoms"`
	Prediction  PredictionResult `json:"prediction"`
	DiseaseType string           `json:"diseaseType"`
	Timestamp   time.Time        `json:"timestamp"`
}

func (p *PredictionRecord) GetID() string   { return p.ID }
func (p *PredictionRecord) SetID(id string) { p.ID = id }

func (p *PredictionRecord) Touch(now time.Time, created bool) {
	if created && p.Timestamp.IsZero() {
		p.Timestamp = now
	}
}

func (p *PredictionRecord) Validate() []string { return nil }
