package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ogurasousui/nomina/internal/core/domain"
)

const dateLayout = "2006-01-02"

type organizationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toOrganizationResponse(o *domain.Organization) organizationResponse {
	return organizationResponse{ID: o.ID, Name: o.Name, CreatedAt: o.CreatedAt, UpdatedAt: o.UpdatedAt}
}

type payrollResponse struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toPayrollResponse(p *domain.Payroll) payrollResponse {
	return payrollResponse{
		ID:             p.ID,
		OrganizationID: p.OrganizationID,
		Name:           p.Name,
		Description:    p.Description,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

type cascadeResponse struct {
	Employees int `json:"employees"`
	Divisions int `json:"divisions"`
	Jobs      int `json:"jobs"`
}

type divisionResponse struct {
	ID               string    `json:"id"`
	PayrollID        string    `json:"payroll_id"`
	ParentDivisionID *string   `json:"parent_division_id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	BudgetCode       string    `json:"budget_code"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toDivisionResponse(d *domain.Division) divisionResponse {
	return divisionResponse{
		ID:               d.ID,
		PayrollID:        d.PayrollID,
		ParentDivisionID: d.ParentDivisionID,
		Name:             d.Name,
		Description:      d.Description,
		BudgetCode:       d.BudgetCode,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

type jobResponse struct {
	ID        string          `json:"id"`
	PayrollID string          `json:"payroll_id"`
	Title     string          `json:"title"`
	Salary    decimal.Decimal `json:"salary"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func toJobResponse(j *domain.Job) jobResponse {
	return jobResponse{
		ID:        j.ID,
		PayrollID: j.PayrollID,
		Title:     j.Title,
		Salary:    j.Salary,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

type bankResponse struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toBankResponse(b *domain.Bank) bankResponse {
	return bankResponse{
		ID:             b.ID,
		OrganizationID: b.OrganizationID,
		Name:           b.Name,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

type employeeResponse struct {
	ID              string    `json:"id"`
	PayrollID       string    `json:"payroll_id"`
	DivisionID      string    `json:"division_id"`
	JobID           string    `json:"job_id"`
	BankID          string    `json:"bank_id"`
	IDNumber        string    `json:"id_number"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	BankAccount     string    `json:"bank_account"`
	Status          string    `json:"status"`
	Hours           int       `json:"hours"`
	HireDate        string    `json:"hire_date"`
	TerminationDate *string   `json:"termination_date"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toEmployeeResponse(e *domain.Employee) employeeResponse {
	var terminated *string
	if e.TerminationDate != nil {
		s := e.TerminationDate.Format(dateLayout)
		terminated = &s
	}
	return employeeResponse{
		ID:              e.ID,
		PayrollID:       e.PayrollID,
		DivisionID:      e.DivisionID,
		JobID:           e.JobID,
		BankID:          e.BankID,
		IDNumber:        e.IDNumber,
		FirstName:       e.FirstName,
		LastName:        e.LastName,
		BankAccount:     e.BankAccount,
		Status:          e.Status,
		Hours:           e.Hours,
		HireDate:        e.HireDate.Format(dateLayout),
		TerminationDate: terminated,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

// mapSlice は一覧レスポンスを構築します。空でも null ではなく [] を返します。
func mapSlice[T, R any](items []*T, fn func(*T) R) []R {
	out := make([]R, 0, len(items))
	for _, item := range items {
		out = append(out, fn(item))
	}
	return out
}

func parseDate(field, raw string) (time.Time, error) {
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, domain.Invalid(field, "must be a date in YYYY-MM-DD format")
	}
	return t, nil
}
