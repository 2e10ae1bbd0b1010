package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/model"
	"github.com/kanishkadharmarathne/sk-electrical-new-sub001/internal/repository"
)

// TechnicianHandler manages the support pool. Admin-only routes.
type TechnicianHandler struct {
	techRepo *repository.TechnicianRepository
}

func NewTechnicianHandler(techRepo *repository.TechnicianRepository) *TechnicianHandler {
	return &TechnicianHandler{techRepo: techRepo}
}

type UpsertTechnicianRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

// Upsert creates a technician or refreshes name/email for an existing id.
// New technicians join the pool active.
func (h *TechnicianHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req UpsertTechnicianRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "name and a valid email are required")
		return
	}
	t := &model.Technician{
		ID:        req.ID,
		Name:      req.Name,
		Email:     req.Email,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if err := h.techRepo.Upsert(r.Context(), t); err != nil {
		writeServiceError(w, "technician.Upsert", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TechnicianHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.techRepo.List(r.Context())
	if err != nil {
		writeServiceError(w, "technician.List", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"technicians": list})
}

func (h *TechnicianHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.techRepo.GetByID(r.Context(), chi.URLParam(r, "technicianID"))
	if err != nil {
		writeServiceError(w, "technician.Get", err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type SetActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// SetActive toggles pool membership. Deactivation stops new notifications;
// existing ledger entries stay until read.
func (h *TechnicianHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req SetActiveRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "active is required")
		return
	}
	id := chi.URLParam(r, "technicianID")
	if err := h.techRepo.SetActive(r.Context(), id, *req.Active); err != nil {
		writeServiceError(w, "technician.SetActive", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "active": *req.Active})
}
