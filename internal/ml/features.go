// Package ml holds the sensor analytics: the feature mapping sent to the disease
// predictor, health scoring, time bucketing and prediction orchestration.
package ml

import (
	"strings"

	"github.com/Capstone-E1/aquahealth_backend/internal/models"
)

// SensorValues is a fully resolved sensor triplet
type SensorValues struct {
	Temperature float64 `json:"temperature"`
	PH          float64 `json:"pH"`
	EC          float64 `json:"EC"`
}

// DefaultSensorValues stand in for missing readings. Each value sits in the band that
// contributes nothing to any feature threshold.
var DefaultSensorValues = SensorValues{Temperature: 25, PH: 7, EC: 1}

// Resolve fills absent channels from DefaultSensorValues
func Resolve(in models.SensorInput) SensorValues {
	v := DefaultSensorValues
	if in.Temperature != nil {
		v.Temperature = *in.Temperature
	}
	if in.PH != nil {
		v.PH = *in.PH
	}
	if in.EC != nil {
		v.EC = *in.EC
	}
	return v
}

// SymptomDefaults are the values used for survey fields the request leaves out
type SymptomDefaults struct {
	WaterSource         string
	AccessToCleanWater  float64
	InfantMortalityRate float64
	GDP                 float64
	HealthcareAccess    float64
	UrbanizationRate    float64
	SanitationCoverage  float64
	RainfallPerYear     float64
	PopulationDensity   float64
	PatientAge          float64
	PatientGender       string
	RecentTravel        bool
	ContactWithSick     bool
	VaccinationStatus   string
}

var DefaultSymptoms = SymptomDefaults{
	WaterSource:         "Unknown",
	AccessToCleanWater:  50,
	InfantMortalityRate: 20,
	GDP:                 10000,
	HealthcareAccess:    60,
	UrbanizationRate:    30,
	SanitationCoverage:  70,
	RainfallPerYear:     1000,
	PopulationDensity:   200,
	PatientAge:          30,
	PatientGender:       "Unknown",
	RecentTravel:        false,
	ContactWithSick:     false,
	VaccinationStatus:   "Unknown",
}

// FeatureVector is the payload the external predictor expects
type FeatureVector struct {
	ContaminantLevel    float64 `json:"contaminant_level"`
	PHLevel             float64 `json:"ph_level"`
	Turbidity           float64 `json:"turbidity"`
	DissolvedOxygen     float64 `json:"dissolved_oxygen"`
	NitrateLevel        float64 `json:"nitrate_level"`
	LeadConcentration   float64 `json:"lead_concentration"`
	BacteriaCount       float64 `json:"bacteria_count"`
	Temperature         float64 `json:"temperature"`
	WaterSource         string  `json:"water_source"`
	AccessToCleanWater  float64 `json:"access_to_clean_water"`
	InfantMortalityRate float64 `json:"infant_mortality_rate"`
	GDP                 float64 `json:"gdp"`
	HealthcareAccess    float64 `json:"healthcare_access"`
	UrbanizationRate    float64 `json:"urbanization_rate"`
	SanitationCoverage  float64 `json:"sanitation_coverage"`
	RainfallPerYear     float64 `json:"rainfall_per_year"`
	PopulationDensity   float64 `json:"population_density"`
	SymptomSeverity     int     `json:"symptom_severity"`
	PatientAge          float64 `json:"patient_age"`
	PatientGender       string  `json:"patient_gender"`
	RecentTravel        bool    `json:"recent_travel"`
	ContactWithSick     bool    `json:"contact_with_sick"`
	VaccinationStatus   string  `json:"vaccination_status"`
}

var symptomWeights = map[string]int{
	"fever":          3,
	"diarrhea":       4,
	"vomiting":       3,
	"dehydration":    4,
	"abdominal_pain": 2,
	"nausea":         2,
	"headache":       1,
	"fatigue":        1,
	"muscle_aches":   1,
	"rash":           2,
	"jaundice":       3,
	"confusion":      4,
}

const maxSymptomSeverity = 10

// MapFeatures converts sensor values and a survey into predictor features
func MapFeatures(s SensorValues, sym models.Symptoms) FeatureVector {
	d := DefaultSymptoms
	return FeatureVector{
		ContaminantLevel:    contaminantLevel(s.EC),
		PHLevel:             s.PH,
		Turbidity:           turbidity(s.PH),
		DissolvedOxygen:     dissolvedOxygen(s.Temperature),
		NitrateLevel:        nitrateLevel(s.EC),
		LeadConcentration:   leadConcentration(s.PH),
		BacteriaCount:       bacteriaCount(s),
		Temperature:         s.Temperature,
		WaterSource:         orDefault(sym.WaterSource, d.WaterSource),
		AccessToCleanWater:  orDefault(sym.AccessToCleanWater, d.AccessToCleanWater),
		InfantMortalityRate: orDefault(sym.InfantMortalityRate, d.InfantMortalityRate),
		GDP:                 orDefault(sym.GDP, d.GDP),
		HealthcareAccess:    orDefault(sym.HealthcareAccess, d.HealthcareAccess),
		UrbanizationRate:    orDefault(sym.UrbanizationRate, d.UrbanizationRate),
		SanitationCoverage:  orDefault(sym.SanitationCoverage, d.SanitationCoverage),
		RainfallPerYear:     orDefault(sym.RainfallPerYear, d.RainfallPerYear),
		PopulationDensity:   orDefault(sym.PopulationDensity, d.PopulationDensity),
		SymptomSeverity:     SymptomSeverity(sym.Symptoms),
		PatientAge:          orDefault(sym.PatientAge, d.PatientAge),
		PatientGender:       orDefault(sym.PatientGender, d.PatientGender),
		RecentTravel:        orDefault(sym.RecentTravel, d.RecentTravel),
		ContactWithSick:     orDefault(sym.ContactWithSick, d.ContactWithSick),
		VaccinationStatus:   orDefault(sym.VaccinationStatus, d.VaccinationStatus),
	}
}

func orDefault[V any](p *V, def V) V {
	if p == nil {
		return def
	}
	return *p
}

// SymptomSeverity sums the weights of recognized symptoms, capped at 10
func SymptomSeverity(symptoms []string) int {
	severity := 0
	for _, s := range symptoms {
		severity += symptomWeights[strings.ToLower(s)]
	}
	return min(severity, maxSymptomSeverity)
}

// EC is the contamination proxy
func contaminantLevel(ec float64) float64 {
	switch {
	case ec > 2.0:
		return 4.0
	case ec > 1.5:
		return 3.0
	case ec > 1.0:
		return 2.0
	}
	return 1.0
}

func turbidity(ph float64) float64 {
	switch {
	case ph < 6.0 || ph > 8.5:
		return 15
	case ph < 6.5 || ph > 8.0:
		return 10
	}
	return 5
}

// warmer water holds less oxygen
func dissolvedOxygen(temperature float64) float64 {
	switch {
	case temperature > 30:
		return 5.0
	case temperature > 25:
		return 6.5
	}
	return 8.0
}

func nitrateLevel(ec float64) float64 {
	switch {
	case ec > 1.8:
		return 10.0
	case ec > 1.3:
		return 6.0
	}
	return 3.0
}

// acidic water leaches lead
func leadConcentration(ph float64) float64 {
	switch {
	case ph < 6.5:
		return 5.0
	case ph < 7.0:
		return 3.0
	}
	return 1.0
}

func bacteriaCount(s SensorValues) float64 {
	count := 100.0
	if s.Temperature > 28 {
		count += 100
	}
	if s.PH < 6.5 || s.PH > 8.0 {
		count += 50
	}
	if s.EC > 1.5 {
		count += 75
	}
	return count
}
