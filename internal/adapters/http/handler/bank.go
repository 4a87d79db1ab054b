package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ogurasousui/nomina/internal/core/bank"
)

type createBankRequest struct {
	Name string `json:"name" validate:"required"`
}

type updateBankRequest struct {
	Name *string `json:"name" validate:"omitempty,min=1"`
}

func (h *Handler) createBank(w http.ResponseWriter, r *http.Request) {
	var req createBankRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	created, err := h.svc.Banks.CreateBank(r.Context(), bank.CreateBankInput{
		OrganizationID: chi.URLParam(r, "organizationID"),
		Name:           req.Name,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBankResponse(created))
}

func (h *Handler) getBank(w http.ResponseWriter, r *http.Request) {
	found, err := h.svc.Banks.GetBank(r.Context(), bank.GetBankInput{
		OrganizationID: chi.URLParam(r, "organizationID"),
		ID:             chi.URLParam(r, "bankID"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBankResponse(found))
}

func (h *Handler) listBanks(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Banks.ListBanks(r.Context(), bank.ListBanksInput{
		OrganizationID: chi.URLParam(r, "organizationID"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, toBankResponse))
}

func (h *Handler) updateBank(w http.ResponseWriter, r *http.Request) {
	var req updateBankRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	updated, err := h.svc.Banks.UpdateBank(r.Context(), bank.UpdateBankInput{
		OrganizationID: chi.URLParam(r, "organizationID"),
		ID:             chi.URLParam(r, "bankID"),
		Name:           req.Name,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBankResponse(updated))
}

func (h *Handler) deleteBank(w http.ResponseWriter, r *http.Request) {
	err := h.svc.Banks.DeleteBank(r.Context(), bank.DeleteBankInput{
		OrganizationID: chi.URLParam(r, "organizationID"),
		ID:             chi.URLParam(r, "bankID"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
