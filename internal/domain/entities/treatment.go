package entities

// Treatment represents a dental treatment in the catalog
type Treatment struct {
	ID          string `json:"treatment_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Icon        string `json:"icon"`
}

// TreatmentOffer is a treatment as priced and described by a single clinic
type TreatmentOffer struct {
	Treatment
	Price          float64  `json:"price"`
	DurationDays   int      `json:"duration_days"`
	WarrantyMonths int      `json:"warranty_months"`
	ProcessSteps   []string `json:"process_steps"`
	Includes       []string `json:"includes"`
}

// FindTreatment returns the treatment with the given id, if listed.
func FindTreatment(treatments []Treatment, id string) (Treatment, bool) {
	for _, t := range treatments {
		if t.ID == id {
			return t, true
		}
	}
	return Treatment{}, false
}
