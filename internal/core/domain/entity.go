package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntityKind は階層に属するリソースの種別です。
type EntityKind string

const (
	EntityOrganization EntityKind = "organization"
	EntityPayroll      EntityKind = "payroll"
	EntityDivision     EntityKind = "division"
	EntityJob          EntityKind = "job"
	EntityBank         EntityKind = "bank"
	EntityEmployee     EntityKind = "employee"
)

// Organization は階層の最上位に位置する組織です。
type Organization struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Payroll は組織に属する給与台帳です。
type Payroll struct {
	ID             string
	OrganizationID string
	Name           string
	Description    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Division は給与台帳に属する部門です。ParentDivisionID は同じ台帳内の部門のみを指します。
type Division struct {
	ID               string
	PayrollID        string
	ParentDivisionID *string
	Name             string
	Description      string
	BudgetCode       string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Job は給与台帳に属する職務です。
type Job struct {
	ID        string
	PayrollID string
	Title     string
	Salary    decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Bank は組織に属する振込先銀行です。
type Bank struct {
	ID             string
	OrganizationID string
	Name           string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Employee は部門に所属する従業員です。
type Employee struct {
	ID              string
	PayrollID       string
	DivisionID      string
	JobID           string
	BankID          string
	IDNumber        string
	FirstName       string
	LastName        string
	BankAccount     string
	Status          string
	Hours           int
	HireDate        time.Time
	TerminationDate *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Clone はポインタフィールドを含めて複製します。
func (d *Division) Clone() *Division {
	if d == nil {
		return nil
	}
	c := *d
	c.ParentDivisionID = CloneString(d.ParentDivisionID)
	return &c
}

// Clone はポインタフィールドを含めて複製します。
func (e *Employee) Clone() *Employee {
	if e == nil {
		return nil
	}
	c := *e
	if e.TerminationDate != nil {
		t := *e.TerminationDate
		c.TerminationDate = &t
	}
	return &c
}

// CloneString は文字列ポインタを複製します。
func CloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// SameString は 2 つの文字列ポインタが同じ値を指すかを返します。
func SameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
