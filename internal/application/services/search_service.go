package services

import (
	"context"
	"errors"

	"github.com/savelydental/Savely/internal/domain/entities"
	"github.com/savelydental/Savely/internal/domain/providers"
	"github.com/savelydental/Savely/internal/infrastructure/observability"
	apperrors "github.com/savelydental/Savely/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// FeaturedClinics is how many clinics the landing page highlights
const FeaturedClinics = 3

// ReferenceData holds the option lists of the search filters
type ReferenceData struct {
	Treatments []entities.Treatment
	Cities     []string
}

// SearchService turns filter selections into clinic result sets
type SearchService struct {
	catalog providers.CatalogProvider
	guard   *FetchGuard
	metrics *observability.Metrics
}

// NewSearchService creates a new search service
func NewSearchService(catalog providers.CatalogProvider, guard *FetchGuard, metrics *observability.Metrics) *SearchService {
	if guard == nil {
		guard = NewFetchGuard()
	}
	return &SearchService{
		catalog: catalog,
		guard:   guard,
		metrics: metrics,
	}
}

// ReferenceData loads treatments and cities concurrently. A failing list is
// logged and left empty; it never fails the page.
func (s *SearchService) ReferenceData(ctx context.Context) ReferenceData {
	var data ReferenceData
	logger := observability.LoggerFromContext(ctx)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		treatments, err := s.catalog.ListTreatments(egCtx)
		if err != nil {
			logger.Error().Err(err).Msg("failed to load treatments")
			return nil
		}
		data.Treatments = treatments
		return nil
	})
	eg.Go(func() error {
		cities, err := s.catalog.ListCities(egCtx)
		if err != nil {
			logger.Error().Err(err).Msg("failed to load cities")
			return nil
		}
		data.Cities = cities
		return nil
	})
	_ = eg.Wait()

	return data
}

// Search fetches the clinics matching filter. viewKey identifies the search
// view instance: a newer search for the same key supersedes this one.
// On failure the error is logged and returned along with an empty list.
func (s *SearchService) Search(ctx context.Context, viewKey string, filter entities.FilterSelection) ([]entities.Clinic, error) {
	query := filter.ClinicQuery()
	logger := observability.LoggerFromContext(ctx)

	clinics, err := RunLatest(ctx, s.guard, viewKey, func(ctx context.Context) ([]entities.Clinic, error) {
		return s.catalog.ListClinics(ctx, query)
	})
	if errors.Is(err, apperrors.ErrSuperseded) {
		observability.RecordSuperseded(ctx, s.metrics)
		logger.Debug().Str("view", viewKey).Str("query", query).Msg("clinic fetch superseded")
		return nil, err
	}
	if err != nil {
		logger.Error().Err(err).Str("query", query).Msg("failed to fetch clinics")
		return []entities.Clinic{}, err
	}
	if clinics == nil {
		clinics = []entities.Clinic{}
	}
	return clinics, nil
}

// Featured returns the first clinics of the unfiltered catalog
func (s *SearchService) Featured(ctx context.Context) []entities.Clinic {
	clinics, err := s.catalog.ListClinics(ctx, entities.DefaultFilter().ClinicQuery())
	if err != nil {
		observability.LoggerFromContext(ctx).Error().Err(err).Msg("failed to fetch featured clinics")
		return nil
	}
	if len(clinics) > FeaturedClinics {
		clinics = clinics[:FeaturedClinics]
	}
	return clinics
}
