package entities

// MinComparisonSize is the smallest number of clinics a comparison makes sense for.
const MinComparisonSize = 2

// ComparisonRequest is the body sent to the compare endpoint
type ComparisonRequest struct {
	ClinicIDs   []string `json:"clinic_ids"`
	TreatmentID string   `json:"treatment_id"`
}

// ComparisonEntry pairs a clinic with its offer for the compared treatment.
// BestValue is computed by the API; clients render it as is.
type ComparisonEntry struct {
	Clinic    Clinic         `json:"clinic"`
	Treatment TreatmentOffer `json:"treatment"`
	BestValue bool           `json:"is_best_value"`
}

// ComparisonResult is the compare endpoint response
type ComparisonResult struct {
	TreatmentName string            `json:"treatment_name"`
	Comparisons   []ComparisonEntry `json:"comparisons"`
}

// Comparable reports whether the result holds enough entries to compare
func (r *ComparisonResult) Comparable() bool {
	return r != nil && len(r.Comparisons) >= MinComparisonSize
}
