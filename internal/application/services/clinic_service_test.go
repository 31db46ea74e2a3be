package services_test

import (
	"context"
	"testing"

	"github.com/savelydental/Savely/internal/application/services"
	"github.com/savelydental/Savely/internal/domain/entities"
	apperrors "github.com/savelydental/Savely/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestClinicService_Detail(t *testing.T) {
	t.Run("builds map links", func(t *testing.T) {
		catalog := new(MockCatalogProvider)
		service := services.NewClinicService(catalog)
		clinic := &entities.Clinic{ID: "clinic_001", Location: entities.Location{Latitude: 40.5, Longitude: -3.5}}
		catalog.On("GetClinic", mock.Anything, "clinic_001").Return(clinic, nil)

		detail, err := service.Detail(context.Background(), "clinic_001")

		require.NoError(t, err)
		require.NotNil(t, detail.Map)
		assert.Equal(t, "https://www.openstreetmap.org/?mlat=40.5&mlon=-3.5#map=17/40.5/-3.5", detail.Map.FullURL)
		assert.Contains(t, detail.Map.EmbedURL, "https://www.openstreetmap.org/export/embed.html?bbox=")
		assert.Contains(t, detail.Map.EmbedURL, "&layer=mapnik&marker=40.5%2C-3.5")
	})

	t.Run("not found is preserved", func(t *testing.T) {
		catalog := new(MockCatalogProvider)
		service := services.NewClinicService(catalog)
		catalog.On("GetClinic", mock.Anything, "missing").Return(nil, apperrors.NewNotFoundError("Clínica no encontrada"))

		_, err := service.Detail(context.Background(), "missing")

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})

	t.Run("no coordinates means no map", func(t *testing.T) {
		catalog := new(MockCatalogProvider)
		service := services.NewClinicService(catalog)
		catalog.On("GetClinic", mock.Anything, "x").Return(&entities.Clinic{ID: "x"}, nil)

		detail, err := service.Detail(context.Background(), "x")

		require.NoError(t, err)
		assert.Nil(t, detail.Map)
	})
}
