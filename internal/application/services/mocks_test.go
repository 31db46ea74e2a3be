package services_test

import (
	"context"

	"github.com/savelydental/Savely/internal/domain/entities"
	"github.com/savelydental/Savely/internal/domain/providers"
	"github.com/stretchr/testify/mock"
)

// Mocks

type MockCatalogProvider struct {
	mock.Mock
}

func (m *MockCatalogProvider) ListTreatments(ctx context.Context) ([]entities.Treatment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Treatment), args.Error(1)
}

func (m *MockCatalogProvider) ListCities(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockCatalogProvider) ListClinics(ctx context.Context, query string) ([]entities.Clinic, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.Clinic), args.Error(1)
}

func (m *MockCatalogProvider) GetClinic(ctx context.Context, id string) (*entities.Clinic, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Clinic), args.Error(1)
}

func (m *MockCatalogProvider) Compare(ctx context.Context, req entities.ComparisonRequest) (*entities.ComparisonResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ComparisonResult), args.Error(1)
}

func (m *MockCatalogProvider) Seed(ctx context.Context) (*providers.SeedSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*providers.SeedSummary), args.Error(1)
}

type MockAuthProvider struct {
	mock.Mock
}

func (m *MockAuthProvider) Login(ctx context.Context, creds entities.Credentials) (*entities.AuthResult, error) {
	args := m.Called(ctx, creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.AuthResult), args.Error(1)
}

func (m *MockAuthProvider) Register(ctx context.Context, reg entities.Registration) (*entities.AuthResult, error) {
	args := m.Called(ctx, reg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.AuthResult), args.Error(1)
}

func (m *MockAuthProvider) ExchangeSession(ctx context.Context, sessionID string) (*entities.AuthResult, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.AuthResult), args.Error(1)
}

func (m *MockAuthProvider) Me(ctx context.Context, token string) (*entities.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *MockAuthProvider) Logout(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}
