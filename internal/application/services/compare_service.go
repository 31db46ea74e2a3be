package services

import (
	"context"
	"net/url"

	"github.com/savelydental/Savely/internal/domain/entities"
	"github.com/savelydental/Savely/internal/domain/providers"
	"github.com/savelydental/Savely/internal/infrastructure/observability"
)

// IncludesPreviewSize is how many included items a comparison card lists
const IncludesPreviewSize = 3

// ComparisonCard is one clinic column/card of the comparison view
type ComparisonCard struct {
	Clinic          entities.Clinic
	Offer           entities.TreatmentOffer
	BestValue       bool
	IncludesPreview []string
	MoreIncludes    int
	DetailURL       string
}

// ComparisonView is what the comparison page renders. When Empty is set the
// page shows the cannot-compare state instead of cards.
type ComparisonView struct {
	TreatmentName string
	Cards         []ComparisonCard
	Empty         bool
}

// CompareService shapes compare endpoint results for display
type CompareService struct {
	catalog providers.CatalogProvider
}

// NewCompareService creates a new compare service
func NewCompareService(catalog providers.CatalogProvider) *CompareService {
	return &CompareService{catalog: catalog}
}

// Compare fetches the comparison of clinicIDs for treatmentID. Cards keep the
// server's order and best-value flags.
func (s *CompareService) Compare(ctx context.Context, clinicIDs []string, treatmentID string) *ComparisonView {
	if len(clinicIDs) < entities.MinComparisonSize || treatmentID == "" {
		return &ComparisonView{Empty: true}
	}

	result, err := s.catalog.Compare(ctx, entities.ComparisonRequest{
		ClinicIDs:   clinicIDs,
		TreatmentID: treatmentID,
	})
	if err != nil {
		observability.LoggerFromContext(ctx).Error().Err(err).
			Strs("clinics", clinicIDs).
			Str("treatment", treatmentID).
			Msg("failed to fetch comparison")
		return &ComparisonView{Empty: true}
	}
	if !result.Comparable() {
		return &ComparisonView{Empty: true, TreatmentName: result.TreatmentName}
	}

	view := &ComparisonView{
		TreatmentName: result.TreatmentName,
		Cards:         make([]ComparisonCard, 0, len(result.Comparisons)),
	}
	for _, entry := range result.Comparisons {
		view.Cards = append(view.Cards, newComparisonCard(entry))
	}
	return view
}

func newComparisonCard(entry entities.ComparisonEntry) ComparisonCard {
	card := ComparisonCard{
		Clinic:          entry.Clinic,
		Offer:           entry.Treatment,
		BestValue:       entry.BestValue,
		IncludesPreview: entry.Treatment.Includes,
		DetailURL:       ClinicURL(entry.Clinic.ID),
	}
	if n := len(entry.Treatment.Includes); n > IncludesPreviewSize {
		card.IncludesPreview = entry.Treatment.Includes[:IncludesPreviewSize]
		card.MoreIncludes = n - IncludesPreviewSize
	}
	return card
}

// ClinicURL returns the clinic detail path
func ClinicURL(id string) string {
	return "/clinica/" + url.PathEscape(id)
}
