package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ogurasousui/nomina/internal/core/organization"
)

type createOrganizationRequest struct {
	Name string `json:"name" validate:"required"`
}

type updateOrganizationRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1"`
}

func (h *Handler) createOrganization(w http.ResponseWriter, r *http.Request) {
	var req createOrganizationRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	created, err := h.svc.Organizations.CreateOrganization(r.Context(), organization.CreateOrganizationInput{Name: req.Name})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrganizationResponse(created))
}

func (h *Handler) getOrganization(w http.ResponseWriter, r *http.Request) {
	found, err := h.svc.Organizations.GetOrganization(r.Context(), organization.GetOrganizationInput{
		ID: chi.URLParam(r, "organizationID"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrganizationResponse(found))
}

func (h *Handler) listOrganizations(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Organizations.ListOrganizations(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, toOrganizationResponse))
}

func (h *Handler) updateOrganization(w http.ResponseWriter, r *http.Request) {
	var req updateOrganizationRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	updated, err := h.svc.Organizations.UpdateOrganization(r.Context(), organization.UpdateOrganizationInput{
		ID:   chi.URLParam(r, "organizationID"),
		Name: req.Name,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrganizationResponse(updated))
}

func (h *Handler) deleteOrganization(w http.ResponseWriter, r *http.Request) {
	err := h.svc.Organizations.DeleteOrganization(r.Context(), organization.DeleteOrganizationInput{
		ID: chi.URLParam(r, "organizationID"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
