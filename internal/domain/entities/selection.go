package entities

import (
	"net/url"
	"slices"
	"strings"

	apperrors "github.com/savelydental/Savely/pkg/errors"
)

// MaxComparisonSize caps how many clinics can be compared side by side
const MaxComparisonSize = 3

// Query keys of the comparison view URL
const (
	QueryClinics = "clinics"
)

// ComparisonSelection is the ordered set of clinics picked for comparison
// together with the treatment they are compared on.
type ComparisonSelection struct {
	ids         []string
	treatmentID string
}

// NewComparisonSelection builds a selection from previously selected ids,
// keeping order and dropping blanks, duplicates and anything past the cap.
func NewComparisonSelection(treatmentID string, ids ...string) *ComparisonSelection {
	s := &ComparisonSelection{treatmentID: strings.TrimSpace(treatmentID)}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || s.Contains(id) || len(s.ids) >= MaxComparisonSize {
			continue
		}
		s.ids = append(s.ids, id)
	}
	return s
}

// Toggle removes id when present, appends it when there is room, and
// otherwise does nothing.
func (s *ComparisonSelection) Toggle(id string) {
	id = strings.TrimSpace(id)
	if id == "" {
		return
	}
	if i := slices.Index(s.ids, id); i >= 0 {
		s.ids = slices.Delete(s.ids, i, i+1)
		return
	}
	if len(s.ids) < MaxComparisonSize {
		s.ids = append(s.ids, id)
	}
}

// SetTreatment changes the treatment the selection is compared on
func (s *ComparisonSelection) SetTreatment(treatmentID string) {
	s.treatmentID = strings.TrimSpace(treatmentID)
}

// Contains reports whether id is selected
func (s *ComparisonSelection) Contains(id string) bool {
	return slices.Contains(s.ids, id)
}

// CanToggle is false only for an unselected id while the selection is full
func (s *ComparisonSelection) CanToggle(id string) bool {
	return s.Contains(id) || len(s.ids) < MaxComparisonSize
}

// IDs returns a copy of the selected ids in selection order
func (s *ComparisonSelection) IDs() []string {
	return slices.Clone(s.ids)
}

// Len returns the number of selected clinics
func (s *ComparisonSelection) Len() int {
	return len(s.ids)
}

// TreatmentID returns the treatment the selection is compared on
func (s *ComparisonSelection) TreatmentID() string {
	return s.treatmentID
}

// CanCompare reports whether enough clinics and a treatment are selected
func (s *ComparisonSelection) CanCompare() bool {
	return len(s.ids) >= MinComparisonSize && s.treatmentID != ""
}

// ComparisonURL returns the comparison view path for the selection
func (s *ComparisonSelection) ComparisonURL() (string, error) {
	if !s.CanCompare() {
		return "", apperrors.NewValidationError("selecciona al menos 2 clínicas y un tratamiento")
	}
	escaped := make([]string, len(s.ids))
	for i, id := range s.ids {
		escaped[i] = url.QueryEscape(id)
	}
	return "/comparar?" + QueryClinics + "=" + strings.Join(escaped, ",") +
		"&" + QueryTreatment + "=" + url.QueryEscape(s.treatmentID), nil
}

// Request returns the compare endpoint body for the selection
func (s *ComparisonSelection) Request() ComparisonRequest {
	return ComparisonRequest{ClinicIDs: s.IDs(), TreatmentID: s.treatmentID}
}

// ParseComparisonQuery reads the comparison view URL parameters
func ParseComparisonQuery(values url.Values) (ids []string, treatmentID string) {
	for _, part := range strings.Split(values.Get(QueryClinics), ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	return ids, strings.TrimSpace(values.Get(QueryTreatment))
}
