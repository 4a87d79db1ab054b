package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ogurasousui/nomina/internal/core/employee"
)

type createEmployeeRequest struct {
	JobID           string  `json:"job_id" validate:"required"`
	BankID          string  `json:"bank_id" validate:"required"`
	IDNumber        string  `json:"id_number" validate:"required"`
	FirstName       string  `json:"first_name" validate:"required"`
	LastName        string  `json:"last_name" validate:"required"`
	BankAccount     string  `json:"bank_account" validate:"required"`
	Status          *string `json:"status" validate:"omitempty,oneof=active inactive"`
	Hours           int     `json:"hours" validate:"gte=0,lte=168"`
	HireDate        string  `json:"hire_date" validate:"required,datetime=2006-01-02"`
	TerminationDate *string `json:"termination_date" validate:"omitempty,datetime=2006-01-02"`
}

// termination_date に null を指定すると退職日を取り消します。
type updateEmployeeRequest struct {
	JobID           *string          `json:"job_id" validate:"omitempty,min=1"`
	BankID          *string          `json:"bank_id" validate:"omitempty,min=1"`
	IDNumber        *string          `json:"id_number" validate:"omitempty,min=1"`
	FirstName       *string          `json:"first_name" validate:"omitempty,min=1"`
	LastName        *string          `json:"last_name" validate:"omitempty,min=1"`
	BankAccount     *string          `json:"bank_account" validate:"omitempty,min=1"`
	Status          *string          `json:"status" validate:"omitempty,oneof=active inactive"`
	Hours           *int             `json:"hours" validate:"omitempty,gte=0,lte=168"`
	HireDate        *string          `json:"hire_date" validate:"omitempty,datetime=2006-01-02"`
	TerminationDate optional[string] `json:"termination_date"`
}

func (h *Handler) createEmployee(w http.ResponseWriter, r *http.Request) {
	var req createEmployeeRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	hireDate, err := parseDate("hire_date", req.HireDate)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var terminationDate *time.Time
	if req.TerminationDate != nil {
		t, err := parseDate("termination_date", *req.TerminationDate)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		terminationDate = &t
	}

	created, err := h.svc.Employees.CreateEmployee(r.Context(), employee.CreateEmployeeInput{
		DivisionID:      chi.URLParam(r, "divisionID"),
		JobID:           req.JobID,
		BankID:          req.BankID,
		IDNumber:        req.IDNumber,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		BankAccount:     req.BankAccount,
		Status:          req.Status,
		Hours:           req.Hours,
		HireDate:        hireDate,
		TerminationDate: terminationDate,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeResponse(created))
}

func (h *Handler) getEmployee(w http.ResponseWriter, r *http.Request) {
	found, err := h.svc.Employees.GetEmployee(r.Context(), employee.GetEmployeeInput{
		DivisionID: chi.URLParam(r, "divisionID"),
		ID:         chi.URLParam(r, "employeeID"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeResponse(found))
}

func (h *Handler) listEmployees(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Employees.ListEmployees(r.Context(), employee.ListEmployeesInput{
		DivisionID: chi.URLParam(r, "divisionID"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, toEmployeeResponse))
}

func (h *Handler) updateEmployee(w http.ResponseWriter, r *http.Request) {
	var req updateEmployeeRequest
	if err := h.decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	in := employee.UpdateEmployeeInput{
		DivisionID:         chi.URLParam(r, "divisionID"),
		ID:                 chi.URLParam(r, "employeeID"),
		JobID:              req.JobID,
		BankID:             req.BankID,
		IDNumber:           req.IDNumber,
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		BankAccount:        req.BankAccount,
		Status:             req.Status,
		Hours:              req.Hours,
		TerminationDateSet: req.TerminationDate.Set,
	}
	if req.HireDate != nil {
		t, err := parseDate("hire_date", *req.HireDate)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		in.HireDate = &t
	}
	if req.TerminationDate.Value != nil {
		t, err := parseDate("termination_date", *req.TerminationDate.Value)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		in.TerminationDate = &t
	}

	updated, err := h.svc.Employees.UpdateEmployee(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeResponse(updated))
}

func (h *Handler) deleteEmployee(w http.ResponseWriter, r *http.Request) {
	err := h.svc.Employees.DeleteEmployee(r.Context(), employee.DeleteEmployeeInput{
		DivisionID: chi.URLParam(r, "divisionID"),
		ID:         chi.URLParam(r, "employeeID"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
