package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ogurasousui/nomina/internal/core/domain"
	"github.com/ogurasousui/nomina/internal/core/payroll"
)

type createPayrollRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

type updatePayrollRequest struct {
	Name           *string `json:"name" validate:"omitempty,min=1"`
	Description    *string `json:"description"`
	OrganizationID *string `json:"organization_id" validate:"omitempty,min=1"`
}

func (h *Handler) createPayroll(w http.ResponseWriter, r *http.Request) {
	var req createPayrollRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	created, err := h.svc.Payrolls.CreatePayroll(r.Context(), payroll.CreatePayrollInput{
		OrganizationID: chi.URLParam(r, "organizationID"),
		Name:           req.Name,
		Description:    req.Description,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPayrollResponse(created))
}

func (h *Handler) getPayroll(w http.ResponseWriter, r *http.Request) {
	found, err := h.svc.Payrolls.GetPayroll(r.Context(), payroll.GetPayrollInput{
		OrganizationID: chi.URLParam(r, "organizationID"),
		ID:             chi.URLParam(r, "payrollID"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayrollResponse(found))
}

func (h *Handler) listPayrolls(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Payrolls.ListPayrolls(r.Context(), payroll.ListPayrollsInput{
		OrganizationID: chi.URLParam(r, "organizationID"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, toPayrollResponse))
}

// updatePayroll は organization_id を指定すると給与台帳を別組織へ付け替えます。
func (h *Handler) updatePayroll(w http.ResponseWriter, r *http.Request) {
	var req updatePayrollRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	updated, err := h.svc.Payrolls.UpdatePayroll(r.Context(), payroll.UpdatePayrollInput{
		OrganizationID:    chi.URLParam(r, "organizationID"),
		ID:                chi.URLParam(r, "payrollID"),
		Name:              req.Name,
		Description:       req.Description,
		NewOrganizationID: req.OrganizationID,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayrollResponse(updated))
}

// deletePayroll は ?cascade=true のときだけ配下のレコードごと削除します。
func (h *Handler) deletePayroll(w http.ResponseWriter, r *http.Request) {
	cascade := false
	if raw := r.URL.Query().Get("cascade"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			h.writeError(w, r, domain.Invalid("cascade", "must be a boolean"))
			return
		}
		cascade = parsed
	}

	in := payroll.DeletePayrollInput{
		OrganizationID: chi.URLParam(r, "organizationID"),
		ID:             chi.URLParam(r, "payrollID"),
	}

	if !cascade {
		if err := h.svc.Payrolls.DeletePayroll(r.Context(), in); err != nil {
			h.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	result, err := h.svc.Payrolls.DeletePayrollCascade(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cascadeResponse{
		Employees: result.Employees,
		Divisions: result.Divisions,
		Jobs:      result.Jobs,
	})
}
