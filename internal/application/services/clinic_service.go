package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/savelydental/Savely/internal/domain/entities"
	"github.com/savelydental/Savely/internal/domain/providers"
)

const (
	mapBBoxDelta = 0.01
	mapZoom      = 17
)

// MapLinks holds the OpenStreetMap embed and full map URLs for a clinic
type MapLinks struct {
	EmbedURL string
	FullURL  string
}

// ClinicDetail is a clinic together with its map links
type ClinicDetail struct {
	Clinic *entities.Clinic
	Map    *MapLinks
}

// ClinicService loads clinic detail pages
type ClinicService struct {
	catalog providers.CatalogProvider
}

// NewClinicService creates a new clinic service
func NewClinicService(catalog providers.CatalogProvider) *ClinicService {
	return &ClinicService{catalog: catalog}
}

// Detail loads the clinic with its treatment offers. NotFound errors from the
// API are returned unchanged.
func (s *ClinicService) Detail(ctx context.Context, id string) (*ClinicDetail, error) {
	clinic, err := s.catalog.GetClinic(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get clinic %s: %w", id, err)
	}

	detail := &ClinicDetail{Clinic: clinic}
	if clinic.HasLocation() {
		links := OpenStreetMapLinks(clinic.Location)
		detail.Map = &links
	}
	return detail, nil
}

// OpenStreetMapLinks builds the embed (bbox of ±0.01°) and full map URLs for loc
func OpenStreetMapLinks(loc entities.Location) MapLinks {
	lat, lon := loc.Latitude, loc.Longitude
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

	embed := fmt.Sprintf(
		"https://www.openstreetmap.org/export/embed.html?bbox=%s%%2C%s%%2C%s%%2C%s&layer=mapnik&marker=%s%%2C%s",
		f(lon-mapBBoxDelta), f(lat-mapBBoxDelta), f(lon+mapBBoxDelta), f(lat+mapBBoxDelta), f(lat), f(lon),
	)
	full := fmt.Sprintf("https://www.openstreetmap.org/?mlat=%s&mlon=%s#map=%d/%s/%s", f(lat), f(lon), mapZoom, f(lat), f(lon))

	return MapLinks{EmbedURL: embed, FullURL: full}
}
