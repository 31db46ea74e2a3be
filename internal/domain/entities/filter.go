package entities

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

const (
	// DefaultMinPrice and DefaultMaxPrice bound the price range filter
	DefaultMinPrice = 0.0
	DefaultMaxPrice = 5000.0
	// PriceStep is the granularity of the price slider
	PriceStep = 100.0
)

// RatingThresholds are the only accepted minimum-rating values; 0 means any rating.
var RatingThresholds = []float64{0, 4, 4.5, 4.8}

// Query keys used by the search view's own URL
const (
	QueryCity      = "city"
	QueryTreatment = "treatment"
	QueryMinPrice  = "min_price"
	QueryMaxPrice  = "max_price"
	QueryMinRating = "min_rating"
)

// FilterSelection holds the search view's filter state. Values are immutable:
// the With* methods return an updated copy.
type FilterSelection struct {
	City        string
	TreatmentID string
	MinPrice    float64
	MaxPrice    float64
	MinRating   float64
}

// DefaultFilter returns a selection with every field at its default
func DefaultFilter() FilterSelection {
	return FilterSelection{
		MinPrice: DefaultMinPrice,
		MaxPrice: DefaultMaxPrice,
	}
}

// FilterFromQuery builds the filter the search view mounts with.
// City and treatment always come from the URL; price and rating are only
// restored when persistAll is set, otherwise they start at their defaults.
func FilterFromQuery(values url.Values, persistAll bool) FilterSelection {
	f := DefaultFilter().
		WithCity(values.Get(QueryCity)).
		WithTreatment(values.Get(QueryTreatment))
	if !persistAll {
		return f
	}
	return f.withNumbers(values)
}

// FilterFromForm builds the filter from a submitted filter form, which always
// carries every field.
func FilterFromForm(values url.Values) FilterSelection {
	return DefaultFilter().
		WithCity(values.Get(QueryCity)).
		WithTreatment(values.Get(QueryTreatment)).
		withNumbers(values)
}

func (f FilterSelection) withNumbers(values url.Values) FilterSelection {
	minPrice := parseFloat(values.Get(QueryMinPrice), DefaultMinPrice)
	maxPrice := parseFloat(values.Get(QueryMaxPrice), DefaultMaxPrice)
	f = f.WithPriceRange(minPrice, maxPrice)
	return f.WithMinRating(parseFloat(values.Get(QueryMinRating), 0))
}

// WithCity sets the city filter; an empty string clears it
func (f FilterSelection) WithCity(city string) FilterSelection {
	f.City = strings.TrimSpace(city)
	return f
}

// WithTreatment sets the treatment filter; an empty string clears it
func (f FilterSelection) WithTreatment(treatmentID string) FilterSelection {
	f.TreatmentID = strings.TrimSpace(treatmentID)
	return f
}

// WithPriceRange sets the price bounds, clamped to the slider range and
// swapped when given in the wrong order.
func (f FilterSelection) WithPriceRange(minPrice, maxPrice float64) FilterSelection {
	minPrice = clamp(minPrice, DefaultMinPrice, DefaultMaxPrice)
	maxPrice = clamp(maxPrice, DefaultMinPrice, DefaultMaxPrice)
	if minPrice > maxPrice {
		minPrice, maxPrice = maxPrice, minPrice
	}
	f.MinPrice = minPrice
	f.MaxPrice = maxPrice
	return f
}

// WithMinRating sets the rating threshold. Values outside RatingThresholds
// leave the current threshold unchanged.
func (f FilterSelection) WithMinRating(rating float64) FilterSelection {
	if IsRatingThreshold(rating) {
		f.MinRating = rating
	}
	return f
}

// Cleared resets every field to its default
func (f FilterSelection) Cleared() FilterSelection {
	return DefaultFilter()
}

// HasTreatment reports whether a treatment is selected
func (f FilterSelection) HasTreatment() bool {
	return f.TreatmentID != ""
}

// Active reports whether any filter shown in the "active" badge is set
func (f FilterSelection) Active() bool {
	return f.City != "" || f.TreatmentID != "" || f.MinRating > 0
}

// ClinicQuery encodes the filter as the clinics endpoint query string.
// Keys appear in a fixed order and defaults are omitted.
func (f FilterSelection) ClinicQuery() string {
	q := orderedQuery{}
	q.add("city", f.City, f.City != "")
	q.add("treatment_id", f.TreatmentID, f.TreatmentID != "")
	q.add("min_price", formatNumber(f.MinPrice), f.MinPrice > DefaultMinPrice)
	q.add("max_price", formatNumber(f.MaxPrice), f.MaxPrice < DefaultMaxPrice)
	q.add("min_rating", formatNumber(f.MinRating), f.MinRating > 0)
	return q.String()
}

// LocationQuery encodes the filter for the search view's own URL
func (f FilterSelection) LocationQuery(persistAll bool) string {
	q := orderedQuery{}
	q.add(QueryCity, f.City, f.City != "")
	q.add(QueryTreatment, f.TreatmentID, f.TreatmentID != "")
	if persistAll {
		q.add(QueryMinPrice, formatNumber(f.MinPrice), f.MinPrice > DefaultMinPrice)
		q.add(QueryMaxPrice, formatNumber(f.MaxPrice), f.MaxPrice < DefaultMaxPrice)
		q.add(QueryMinRating, formatNumber(f.MinRating), f.MinRating > 0)
	}
	return q.String()
}

// SearchURL returns the search view path for the filter
func (f FilterSelection) SearchURL(persistAll bool) string {
	if q := f.LocationQuery(persistAll); q != "" {
		return "/buscar?" + q
	}
	return "/buscar"
}

// IsRatingThreshold reports whether r is one of RatingThresholds
func IsRatingThreshold(r float64) bool {
	return slices.Contains(RatingThresholds, r)
}

// FormatNumber renders a filter bound with the shortest exact decimal form
func FormatNumber(v float64) string {
	return formatNumber(v)
}

type orderedQuery struct {
	b strings.Builder
}

func (q *orderedQuery) add(key, value string, include bool) {
	if !include {
		return
	}
	if q.b.Len() > 0 {
		q.b.WriteByte('&')
	}
	q.b.WriteString(url.QueryEscape(key))
	q.b.WriteByte('=')
	q.b.WriteString(url.QueryEscape(value))
}

func (q *orderedQuery) String() string {
	return q.b.String()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseFloat(raw string, fallback float64) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
