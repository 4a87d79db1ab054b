package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ogurasousui/nomina/internal/core/division"
)

type createDivisionRequest struct {
	ParentDivisionID *string `json:"parent_division_id" validate:"omitempty,min=1"`
	Name             string  `json:"name" validate:"required"`
	Description      string  `json:"description"`
	BudgetCode       string  `json:"budget_code"`
}

// parent_division_id に null を指定するとルートへ移動します。
type updateDivisionRequest struct {
	Name             *string          `json:"name" validate:"omitempty,min=1"`
	Description      *string          `json:"description"`
	BudgetCode       *string          `json:"budget_code"`
	ParentDivisionID optional[string] `json:"parent_division_id"`
}

func (h *Handler) createDivision(w http.ResponseWriter, r *http.Request) {
	var req createDivisionRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	created, err := h.svc.Divisions.CreateDivision(r.Context(), division.CreateDivisionInput{
		PayrollID:        chi.URLParam(r, "payrollID"),
		ParentDivisionID: req.ParentDivisionID,
		Name:             req.Name,
		Description:      req.Description,
		BudgetCode:       req.BudgetCode,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDivisionResponse(created))
}

func (h *Handler) getDivision(w http.ResponseWriter, r *http.Request) {
	found, err := h.svc.Divisions.GetDivision(r.Context(), division.GetDivisionInput{
		PayrollID: chi.URLParam(r, "payrollID"),
		ID:        chi.URLParam(r, "divisionID"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDivisionResponse(found))
}

func (h *Handler) listDivisions(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Divisions.ListDivisions(r.Context(), division.ListDivisionsInput{
		PayrollID: chi.URLParam(r, "payrollID"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, toDivisionResponse))
}

func (h *Handler) updateDivision(w http.ResponseWriter, r *http.Request) {
	var req updateDivisionRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	updated, err := h.svc.Divisions.UpdateDivision(r.Context(), division.UpdateDivisionInput{
		PayrollID:           chi.URLParam(r, "payrollID"),
		ID:                  chi.URLParam(r, "divisionID"),
		Name:                req.Name,
		Description:         req.Description,
		BudgetCode:          req.BudgetCode,
		ParentDivisionIDSet: req.ParentDivisionID.Set,
		ParentDivisionID:    req.ParentDivisionID.Value,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDivisionResponse(updated))
}

func (h *Handler) deleteDivision(w http.ResponseWriter, r *http.Request) {
	err := h.svc.Divisions.DeleteDivision(r.Context(), division.DeleteDivisionInput{
		PayrollID: chi.URLParam(r, "payrollID"),
		ID:        chi.URLParam(r, "divisionID"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
