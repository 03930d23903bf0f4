package ml

import (
	"strings"

	"github.com/Capstone-E1/aquahealth_backend/internal/models"
)

// Guidance is the canned clinical advice for one disease
type Guidance struct {
	ImmediateActions   []string `json:"immediate_actions"`
	PreventiveMeasures []string `json:"preventive_measures"`
	Monitoring         []string `json:"monitoring"`
}

// GeneralGuidance is served for diseases without specific advice
type GeneralGuidance struct {
	Message       string   `json:"message"`
	GeneralAdvice []string `json:"general_advice"`
}

var guidance = map[string]Guidance{
	models.DiseaseCholera: {
		ImmediateActions: []string{
			"Administer oral rehydration therapy (ORT)",
			"Collect stool sample for laboratory testing",
			"Isolate patient to prevent spread",
			"Notify local health authorities immediately",
		},
		PreventiveMeasures: []string{
			"Ensure access to clean, treated water",
			"Promote proper hand hygiene",
			"Improve sanitation facilities",
			"Vaccinate high-risk populations",
		},
		Monitoring: []string{
			"Monitor fluid intake and output",
			"Check for signs of dehydration",
			"Monitor vital signs every 2-4 hours",
			"Watch for complications",
		},
	},
	models.DiseaseDiarrheal: {
		ImmediateActions: []string{
			"Ensure adequate hydration",
			"Monitor for dehydration signs",
			"Consider zinc supplementation",
			"Maintain proper nutrition",
		},
		PreventiveMeasures: []string{
			"Promote exclusive breastfeeding for infants",
			"Ensure safe water and food handling",
			"Improve sanitation and hygiene",
			"Rotavirus vaccination for children",
		},
		Monitoring: []string{
			"Monitor stool frequency and consistency",
			"Check for signs of dehydration",
			"Monitor weight and fluid balance",
			"Watch for persistent symptoms",
		},
	},
	models.DiseaseTyphoid: {
		ImmediateActions: []string{
			"Blood culture and Widal test",
			"Start appropriate antibiotic treatment",
			"Ensure adequate rest and nutrition",
			"Monitor for complications",
		},
		PreventiveMeasures: []string{
			"Typhoid vaccination for high-risk areas",
			"Ensure safe water and food sources",
			"Promote proper hand hygiene",
			"Improve sanitation infrastructure",
		},
		Monitoring: []string{
			"Monitor fever pattern",
			"Check for abdominal symptoms",
			"Monitor for complications (perforation, bleeding)",
			"Follow up on treatment response",
		},
	},
}

var generalGuidance = GeneralGuidance{
	Message: "No specific recommendations available for this disease type",
	GeneralAdvice: []string{
		"Seek immediate medical attention",
		"Maintain proper hygiene",
		"Ensure adequate hydration",
		"Follow healthcare provider instructions",
	},
}

// GuidanceFor returns the advice for diseaseType, or the general advice when
// the disease is unknown
func GuidanceFor(diseaseType string) any {
	if g, ok := guidance[strings.ToLower(diseaseType)]; ok {
		return g
	}
	return generalGuidance
}
