package handlers

import (
	"net/http"

	"github.com/savelydental/Savely/internal/application/services"
	"github.com/savelydental/Savely/internal/domain/entities"
	"github.com/savelydental/Savely/internal/web"
)

// CompareHandler serves the side-by-side comparison view
type CompareHandler struct {
	view    *View
	compare *services.CompareService
}

// NewCompareHandler creates a new compare handler
func NewCompareHandler(view *View, compare *services.CompareService) *CompareHandler {
	return &CompareHandler{view: view, compare: compare}
}

// Show handles GET /comparar?clinics=a,b&treatment=x
func (h *CompareHandler) Show(w http.ResponseWriter, r *http.Request) {
	ids, treatmentID := entities.ParseComparisonQuery(r.URL.Query())
	comparison := h.compare.Compare(r.Context(), ids, treatmentID)

	title := "No se puede comparar"
	if !comparison.Empty {
		title = "Comparando " + comparison.TreatmentName
	}
	h.view.Render(w, r, http.StatusOK, web.PageCompare, title, comparison)
}
