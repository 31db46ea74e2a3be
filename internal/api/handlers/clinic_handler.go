package handlers

import (
	"net/http"

	"github.com/savelydental/Savely/internal/application/services"
	"github.com/savelydental/Savely/internal/web"
	apperrors "github.com/savelydental/Savely/pkg/errors"
)

// ClinicHandler serves clinic detail pages
type ClinicHandler struct {
	view    *View
	clinics *services.ClinicService
}

// NewClinicHandler creates a new clinic handler
func NewClinicHandler(view *View, clinics *services.ClinicService) *ClinicHandler {
	return &ClinicHandler{view: view, clinics: clinics}
}

// Show handles GET /clinica/{id}
func (h *ClinicHandler) Show(w http.ResponseWriter, r *http.Request) {
	clinicID := r.PathValue("id")
	if clinicID == "" {
		h.view.NotFound(w, r, "Clínica no encontrada", "")
		return
	}

	detail, err := h.clinics.Detail(r.Context(), clinicID)
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
			h.view.NotFound(w, r, "Clínica no encontrada", "La clínica que buscas no existe o ya no está disponible.")
			return
		}
		h.view.Error(w, r, err)
		return
	}

	h.view.Render(w, r, http.StatusOK, web.PageClinic, detail.Clinic.Name, detail)
}
