package handlers

import (
	"net/http"
	"strconv"

	"vitalquiz/internal/repository"
)

// VitalPointHandler handles catalog HTTP requests
type VitalPointHandler struct {
	vitalPoints *repository.VitalPointRepository
}

// NewVitalPointHandler creates a new vital point handler
func NewVitalPointHandler(vitalPoints *repository.VitalPointRepository) *VitalPointHandler {
	return &VitalPointHandler{vitalPoints: vitalPoints}
}

// List returns the full catalog
func (h *VitalPointHandler) List(w http.ResponseWriter, r *http.Request) {
	points, err := h.vitalPoints.GetAll()
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal server error", "failed to load vital points", err)
		return
	}

	list := make([]vitalPointJSON, len(points))
	for i, vp := range points {
		list[i] = toVitalPointJSON(vp)
	}
	respondJSON(w, http.StatusOK, list)
}

// Get returns a single catalog entry
func (h *VitalPointHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid vital point ID", "", nil)
		return
	}

	vp, err := h.vitalPoints.GetByID(id)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Internal server error", "failed to load vital point", err)
		return
	}
	if vp == nil {
		respondWithError(w, http.StatusNotFound, "Vital point not found", "", nil)
		return
	}

	respondJSON(w, http.StatusOK, toVitalPointJSON(*vp))
}
