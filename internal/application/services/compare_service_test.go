package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/savelydental/Savely/internal/application/services"
	"github.com/savelydental/Savely/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func comparisonEntry(id string, price float64, best bool, includes ...string) entities.ComparisonEntry {
	return entities.ComparisonEntry{
		Clinic: entities.Clinic{ID: id, Name: "Clínica " + id},
		Treatment: entities.TreatmentOffer{
			Treatment: entities.Treatment{ID: "implante-dental", Name: "Implante Dental"},
			Price:     price,
			Includes:  includes,
		},
		BestValue: best,
	}
}

func TestCompareService_Compare(t *testing.T) {
	t.Run("too few clinics skips the api", func(t *testing.T) {
		catalog := new(MockCatalogProvider)
		service := services.NewCompareService(catalog)

		view := service.Compare(context.Background(), []string{"a"}, "implante-dental")

		assert.True(t, view.Empty)
		catalog.AssertNotCalled(t, "Compare", mock.Anything, mock.Anything)
	})

	t.Run("missing treatment skips the api", func(t *testing.T) {
		catalog := new(MockCatalogProvider)
		service := services.NewCompareService(catalog)

		view := service.Compare(context.Background(), []string{"a", "b"}, "")

		assert.True(t, view.Empty)
		catalog.AssertNotCalled(t, "Compare", mock.Anything, mock.Anything)
	})

	t.Run("keeps server order and best value flags", func(t *testing.T) {
		catalog := new(MockCatalogProvider)
		service := services.NewCompareService(catalog)
		result := &entities.ComparisonResult{
			TreatmentName: "Implante Dental",
			Comparisons: []entities.ComparisonEntry{
				comparisonEntry("b", 1100, false, "Corona", "Revisión", "Radiografía", "Garantía", "Seguimiento"),
				comparisonEntry("a", 900, true, "Corona"),
				comparisonEntry("c", 900, true),
			},
		}
		catalog.On("Compare", mock.Anything, entities.ComparisonRequest{
			ClinicIDs:   []string{"a", "b", "c"},
			TreatmentID: "implante-dental",
		}).Return(result, nil)

		view := service.Compare(context.Background(), []string{"a", "b", "c"}, "implante-dental")

		require.False(t, view.Empty)
		assert.Equal(t, "Implante Dental", view.TreatmentName)

		order := make([]string, len(view.Cards))
		best := make([]bool, len(view.Cards))
		for i, card := range view.Cards {
			order[i] = card.Clinic.ID
			best[i] = card.BestValue
		}
		if diff := cmp.Diff([]string{"b", "a", "c"}, order); diff != "" {
			t.Errorf("card order mismatch (-want +got):\n%s", diff)
		}
		assert.Equal(t, []bool{false, true, true}, best, "ties are all best value")

		assert.Equal(t, []string{"Corona", "Revisión", "Radiografía"}, view.Cards[0].IncludesPreview)
		assert.Equal(t, 2, view.Cards[0].MoreIncludes)
		assert.Zero(t, view.Cards[1].MoreIncludes)
		assert.Equal(t, "/clinica/b", view.Cards[0].DetailURL)
	})

	t.Run("fewer than two entries renders empty", func(t *testing.T) {
		catalog := new(MockCatalogProvider)
		service := services.NewCompareService(catalog)
		catalog.On("Compare", mock.Anything, mock.Anything).Return(&entities.ComparisonResult{
			TreatmentName: "Implante Dental",
			Comparisons:   []entities.ComparisonEntry{comparisonEntry("a", 900, true)},
		}, nil)

		view := service.Compare(context.Background(), []string{"a", "gone"}, "implante-dental")

		assert.True(t, view.Empty)
	})

	t.Run("api failure renders empty", func(t *testing.T) {
		catalog := new(MockCatalogProvider)
		service := services.NewCompareService(catalog)
		catalog.On("Compare", mock.Anything, mock.Anything).Return(nil, errors.New("timeout"))

		view := service.Compare(context.Background(), []string{"a", "b"}, "implante-dental")

		assert.True(t, view.Empty)
		assert.Empty(t, view.Cards)
	})
}
