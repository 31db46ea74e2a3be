package handlers

import (
	"net/http"

	"github.com/savelydental/Savely/internal/application/services"
	"github.com/savelydental/Savely/internal/domain/entities"
	"github.com/savelydental/Savely/internal/web"
	"golang.org/x/sync/errgroup"
)

// LandingHandler serves the home page
type LandingHandler struct {
	view   *View
	search *services.SearchService
}

// NewLandingHandler creates a new landing handler
func NewLandingHandler(view *View, search *services.SearchService) *LandingHandler {
	return &LandingHandler{view: view, search: search}
}

type landingPage struct {
	Treatments []entities.Treatment
	Cities     []string
	Featured   []entities.Clinic
}

// Show handles GET /
func (h *LandingHandler) Show(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		ref      services.ReferenceData
		featured []entities.Clinic
		eg       errgroup.Group
	)
	eg.Go(func() error {
		ref = h.search.ReferenceData(ctx)
		return nil
	})
	eg.Go(func() error {
		featured = h.search.Featured(ctx)
		return nil
	})
	_ = eg.Wait()

	h.view.Render(w, r, http.StatusOK, web.PageLanding, "", landingPage{
		Treatments: ref.Treatments,
		Cities:     ref.Cities,
		Featured:   featured,
	})
}
