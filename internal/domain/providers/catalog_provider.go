package providers

import (
	"context"

	"github.com/savelydental/Savely/internal/domain/entities"
)

// CatalogProvider reads the clinic and treatment catalog from the API
type CatalogProvider interface {
	ListTreatments(ctx context.Context) ([]entities.Treatment, error)
	ListCities(ctx context.Context) ([]string, error)
	// ListClinics takes an already encoded clinics query string
	ListClinics(ctx context.Context, query string) ([]entities.Clinic, error)
	GetClinic(ctx context.Context, id string) (*entities.Clinic, error)
	Compare(ctx context.Context, req entities.ComparisonRequest) (*entities.ComparisonResult, error)
	// Seed resets the API's sample data
	Seed(ctx context.Context) (*SeedSummary, error)
}

// SeedSummary reports what the seed endpoint inserted
type SeedSummary struct {
	Message          string `json:"message"`
	Treatments       int    `json:"treatments"`
	Clinics          int    `json:"clinics"`
	ClinicTreatments int    `json:"clinic_treatments"`
}
