package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ogurasousui/nomina/internal/core/job"
)

// salary は "1234.56" のような文字列か数値で受け付けます。
type createJobRequest struct {
	Title  string           `json:"title" validate:"required"`
	Salary *decimal.Decimal `json:"salary" validate:"required"`
}

type updateJobRequest struct {
	Title  *string          `json:"title" validate:"omitempty,min=1"`
	Salary *decimal.Decimal `json:"salary"`
}

func (h *Handler) createJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	created, err := h.svc.Jobs.CreateJob(r.Context(), job.CreateJobInput{
		PayrollID: chi.URLParam(r, "payrollID"),
		Title:     req.Title,
		Salary:    *req.Salary,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toJobResponse(created))
}

func (h *Handler) getJob(w http.ResponseWriter, r *http.Request) {
	found, err := h.svc.Jobs.GetJob(r.Context(), job.GetJobInput{
		PayrollID: chi.URLParam(r, "payrollID"),
		ID:        chi.URLParam(r, "jobID"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toJobResponse(found))
}

func (h *Handler) listJobs(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Jobs.ListJobs(r.Context(), job.ListJobsInput{
		PayrollID: chi.URLParam(r, "payrollID"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, toJobResponse))
}

func (h *Handler) updateJob(w http.ResponseWriter, r *http.Request) {
	var req updateJobRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	updated, err := h.svc.Jobs.UpdateJob(r.Context(), job.UpdateJobInput{
		PayrollID: chi.URLParam(r, "payrollID"),
		ID:        chi.URLParam(r, "jobID"),
		Title:     req.Title,
		Salary:    req.Salary,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toJobResponse(updated))
}

func (h *Handler) deleteJob(w http.ResponseWriter, r *http.Request) {
	err := h.svc.Jobs.DeleteJob(r.Context(), job.DeleteJobInput{
		PayrollID: chi.URLParam(r, "payrollID"),
		ID:        chi.URLParam(r, "jobID"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
