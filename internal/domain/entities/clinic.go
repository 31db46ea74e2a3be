package entities

// Location represents a geographic location
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Clinic represents a dental clinic as returned by the API
type Clinic struct {
	ID          string `json:"clinic_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Address     string `json:"address"`
	City        string `json:"city"`
	PostalCode  string `json:"postal_code"`
	Location
	Phone       string  `json:"phone"`
	Email       string  `json:"email"`
	ImageURL    string  `json:"image_url"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`

	// Treatments is only present on the detail endpoint
	Treatments []TreatmentOffer `json:"treatments,omitempty"`

	// Present on list results requested for a specific treatment
	TreatmentPrice    *float64 `json:"treatment_price,omitempty"`
	TreatmentDuration *int     `json:"treatment_duration,omitempty"`
}

// HasLocation reports whether the clinic carries usable coordinates
func (c *Clinic) HasLocation() bool {
	return c.Latitude != 0 || c.Longitude != 0
}
