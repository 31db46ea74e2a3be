package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"github.com/savelydental/Savely/internal/application/services"
	"github.com/savelydental/Savely/internal/domain/entities"
	"github.com/savelydental/Savely/internal/web"
	apperrors "github.com/savelydental/Savely/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Form fields of the search page besides the filter fields
const (
	formView      = "view"
	formSelected  = "selected"
	formToggle    = "toggle"
	formSetRating = "set_rating"
	formAction    = "action"
	actionClear   = "clear"
)

const fetchFailedMessage = "No se pudieron cargar las clínicas"

// SearchHandler serves the search view: filters, results and comparison selection
type SearchHandler struct {
	view       *View
	search     *services.SearchService
	persistAll bool
}

// NewSearchHandler creates a new search handler. persistAll writes price and
// rating filters to the URL as well.
func NewSearchHandler(view *View, search *services.SearchService, persistAll bool) *SearchHandler {
	return &SearchHandler{view: view, search: search, persistAll: persistAll}
}

type searchPage struct {
	ViewID        string
	Filter        entities.FilterSelection
	Treatments    []entities.Treatment
	Cities        []string
	TreatmentName string
	Clinics       []clinicResult
	SelectedIDs   []string
	SelectedCount int
	CanCompare    bool
	Ratings       []ratingOption
	PriceFloor    string
	PriceCeiling  string
	PriceStep     string
	LocationURL   string
}

type clinicResult struct {
	entities.Clinic
	DetailURL string
	Selected  bool
	CanToggle bool
}

type ratingOption struct {
	Value  string
	Label  string
	Active bool
}

// Show handles GET /buscar: a new search view mounted from the URL
func (h *SearchHandler) Show(w http.ResponseWriter, r *http.Request) {
	filter := entities.FilterFromQuery(r.URL.Query(), h.persistAll)
	selection := entities.NewComparisonSelection(filter.TreatmentID)
	h.render(w, r, uuid.NewString(), filter, selection, "")
}

// Update handles POST /buscar: a filter change, rating pick, selection toggle
// or clear on an existing search view.
func (h *SearchHandler) Update(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirect(w, r, "/buscar")
		return
	}
	form := r.PostForm

	if form.Get(formAction) == actionClear {
		redirect(w, r, "/buscar")
		return
	}

	filter := filterFromForm(form)
	selection := entities.NewComparisonSelection(filter.TreatmentID, form[formSelected]...)
	if id := form.Get(formToggle); id != "" && filter.HasTreatment() {
		selection.Toggle(id)
	}

	h.render(w, r, viewID(form.Get(formView)), filter, selection, filter.SearchURL(h.persistAll))
}

// Compare handles POST /buscar/comparar
func (h *SearchHandler) Compare(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirect(w, r, "/buscar")
		return
	}
	form := r.PostForm

	filter := filterFromForm(form)
	selection := entities.NewComparisonSelection(filter.TreatmentID, form[formSelected]...)

	target, err := selection.ComparisonURL()
	if err != nil {
		h.view.Flash(r.Context(), entities.FlashError, apperrors.MessageOf(err, "No se puede comparar"))
		redirect(w, r, filter.SearchURL(h.persistAll))
		return
	}
	redirect(w, r, target)
}

func (h *SearchHandler) render(w http.ResponseWriter, r *http.Request, viewID string, filter entities.FilterSelection, selection *entities.ComparisonSelection, locationURL string) {
	ctx := r.Context()

	var (
		ref       services.ReferenceData
		clinics   []entities.Clinic
		searchErr error
		eg        errgroup.Group
	)
	eg.Go(func() error {
		ref = h.search.ReferenceData(ctx)
		return nil
	})
	eg.Go(func() error {
		clinics, searchErr = h.search.Search(ctx, viewKey(r, viewID), filter)
		return nil
	})
	_ = eg.Wait()

	if errors.Is(searchErr, apperrors.ErrSuperseded) {
		// A newer submission of this view is being served
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if searchErr != nil {
		h.view.Flash(ctx, entities.FlashError, fetchFailedMessage)
	}

	page := searchPage{
		ViewID:        viewID,
		Filter:        filter,
		Treatments:    ref.Treatments,
		Cities:        ref.Cities,
		Clinics:       make([]clinicResult, 0, len(clinics)),
		SelectedIDs:   selection.IDs(),
		SelectedCount: selection.Len(),
		CanCompare:    selection.CanCompare(),
		Ratings:       ratingOptions(filter.MinRating),
		PriceFloor:    entities.FormatNumber(entities.DefaultMinPrice),
		PriceCeiling:  entities.FormatNumber(entities.DefaultMaxPrice),
		PriceStep:     entities.FormatNumber(entities.PriceStep),
		LocationURL:   locationURL,
	}
	if t, ok := entities.FindTreatment(ref.Treatments, filter.TreatmentID); ok {
		page.TreatmentName = t.Name
	}
	for _, c := range clinics {
		page.Clinics = append(page.Clinics, clinicResult{
			Clinic:    c,
			DetailURL: services.ClinicURL(c.ID),
			Selected:  selection.Contains(c.ID),
			CanToggle: selection.CanToggle(c.ID),
		})
	}

	h.view.Render(w, r, http.StatusOK, web.PageSearch, "Buscar clínicas", page)
}

// filterFromForm reads the submitted filter; a pressed rating button
// overrides the carried rating.
func filterFromForm(form url.Values) entities.FilterSelection {
	filter := entities.FilterFromForm(form)
	if raw := form.Get(formSetRating); raw != "" {
		if rating, err := strconv.ParseFloat(raw, 64); err == nil {
			filter = filter.WithMinRating(rating)
		}
	}
	return filter
}

// viewID keeps a submitted view id when it is well formed
func viewID(raw string) string {
	if _, err := uuid.Parse(raw); err == nil {
		return raw
	}
	return uuid.NewString()
}

// viewKey scopes fetch supersession to one view of one browser session
func viewKey(r *http.Request, viewID string) string {
	if sess, err := services.SessionFromContext(r.Context()); err == nil {
		return sess.ID + ":" + viewID
	}
	return viewID
}

func ratingOptions(current float64) []ratingOption {
	options := make([]ratingOption, 0, len(entities.RatingThresholds))
	for _, threshold := range entities.RatingThresholds {
		label := "Todas"
		if threshold > 0 {
			label = entities.FormatNumber(threshold) + "+ ★"
		}
		options = append(options, ratingOption{
			Value:  entities.FormatNumber(threshold),
			Label:  label,
			Active: threshold == current,
		})
	}
	return options
}
