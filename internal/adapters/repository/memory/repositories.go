package memory

import (
	"context"

	"github.com/ogurasousui/nomina/internal/core/domain"
)

// OrganizationRepository は組織のインメモリ実装です。
type OrganizationRepository struct {
	t *table[domain.Organization]
}

// NewOrganizationRepository は OrganizationRepository を生成します。
func NewOrganizationRepository() *OrganizationRepository {
	return &OrganizationRepository{t: newTable(domain.EntityOrganization,
		func(o *domain.Organization) string { return o.ID }, shallow[domain.Organization])}
}

func (r *OrganizationRepository) Create(_ context.Context, o *domain.Organization) (*domain.Organization, error) {
	return r.t.insert(o)
}

func (r *OrganizationRepository) Get(_ context.Context, id string) (*domain.Organization, error) {
	return r.t.get(id)
}

func (r *OrganizationRepository) List(_ context.Context) ([]*domain.Organization, error) {
	return r.t.filter(nil), nil
}

func (r *OrganizationRepository) Update(_ context.Context, o *domain.Organization) (*domain.Organization, error) {
	return r.t.modify(o.ID, func(stored *domain.Organization) {
		stored.Name = o.Name
		stored.UpdatedAt = o.UpdatedAt
	})
}

func (r *OrganizationRepository) Delete(_ context.Context, id string) error {
	return r.t.remove(id)
}

// PayrollRepository は給与台帳のインメモリ実装です。
type PayrollRepository struct {
	t *table[domain.Payroll]
}

// NewPayrollRepository は PayrollRepository を生成します。
func NewPayrollRepository() *PayrollRepository {
	return &PayrollRepository{t: newTable(domain.EntityPayroll,
		func(p *domain.Payroll) string { return p.ID }, shallow[domain.Payroll])}
}

func (r *PayrollRepository) Create(_ context.Context, p *domain.Payroll) (*domain.Payroll, error) {
	return r.t.insert(p)
}

func (r *PayrollRepository) Get(_ context.Context, id string) (*domain.Payroll, error) {
	return r.t.get(id)
}

func (r *PayrollRepository) ListByParent(_ context.Context, organizationID string) ([]*domain.Payroll, error) {
	return r.t.filter(func(p *domain.Payroll) bool { return p.OrganizationID == organizationID }), nil
}

func (r *PayrollRepository) Update(_ context.Context, p *domain.Payroll) (*domain.Payroll, error) {
	return r.t.modify(p.ID, func(stored *domain.Payroll) {
		stored.Name = p.Name
		stored.Description = p.Description
		stored.UpdatedAt = p.UpdatedAt
	})
}

func (r *PayrollRepository) Relocate(_ context.Context, id, organizationID string) (*domain.Payroll, error) {
	return r.t.modify(id, func(stored *domain.Payroll) {
		stored.OrganizationID = organizationID
	})
}

func (r *PayrollRepository) Delete(_ context.Context, id string) error {
	return r.t.remove(id)
}

// DivisionRepository は部門のインメモリ実装です。
type DivisionRepository struct {
	t *table[domain.Division]
}

// NewDivisionRepository は DivisionRepository を生成します。
func NewDivisionRepository() *DivisionRepository {
	return &DivisionRepository{t: newTable(domain.EntityDivision,
		func(d *domain.Division) string { return d.ID }, (*domain.Division).Clone)}
}

func (r *DivisionRepository) Create(_ context.Context, d *domain.Division) (*domain.Division, error) {
	return r.t.insert(d)
}

func (r *DivisionRepository) Get(_ context.Context, id string) (*domain.Division, error) {
	return r.t.get(id)
}

func (r *DivisionRepository) ListByParent(_ context.Context, payrollID string) ([]*domain.Division, error) {
	return r.t.filter(func(d *domain.Division) bool { return d.PayrollID == payrollID }), nil
}

func (r *DivisionRepository) ListChildren(_ context.Context, divisionID string) ([]*domain.Division, error) {
	return r.t.filter(func(d *domain.Division) bool {
		return d.ParentDivisionID != nil && *d.ParentDivisionID == divisionID
	}), nil
}

func (r *DivisionRepository) Update(_ context.Context, d *domain.Division) (*domain.Division, error) {
	return r.t.modify(d.ID, func(stored *domain.Division) {
		stored.Name = d.Name
		stored.Description = d.Description
		stored.BudgetCode = d.BudgetCode
		stored.UpdatedAt = d.UpdatedAt
	})
}

func (r *DivisionRepository) Reparent(_ context.Context, id string, parentDivisionID *string) (*domain.Division, error) {
	return r.t.modify(id, func(stored *domain.Division) {
		stored.ParentDivisionID = domain.CloneString(parentDivisionID)
	})
}

func (r *DivisionRepository) Delete(_ context.Context, id string) error {
	return r.t.remove(id)
}

// JobRepository は職務のインメモリ実装です。
type JobRepository struct {
	t *table[domain.Job]
}

// NewJobRepository は JobRepository を生成します。
func NewJobRepository() *JobRepository {
	return &JobRepository{t: newTable(domain.EntityJob,
		func(j *domain.Job) string { return j.ID }, shallow[domain.Job])}
}

func (r *JobRepository) Create(_ context.Context, j *domain.Job) (*domain.Job, error) {
	return r.t.insert(j)
}

func (r *JobRepository) Get(_ context.Context, id string) (*domain.Job, error) {
	return r.t.get(id)
}

func (r *JobRepository) ListByParent(_ context.Context, payrollID string) ([]*domain.Job, error) {
	return r.t.filter(func(j *domain.Job) bool { return j.PayrollID == payrollID }), nil
}

func (r *JobRepository) Update(_ context.Context, j *domain.Job) (*domain.Job, error) {
	return r.t.modify(j.ID, func(stored *domain.Job) {
		stored.Title = j.Title
		stored.Salary = j.Salary
		stored.UpdatedAt = j.UpdatedAt
	})
}

func (r *JobRepository) Delete(_ context.Context, id string) error {
	return r.t.remove(id)
}

// BankRepository は銀行のインメモリ実装です。
type BankRepository struct {
	t *table[domain.Bank]
}

// NewBankRepository は BankRepository を生成します。
func NewBankRepository() *BankRepository {
	return &BankRepository{t: newTable(domain.EntityBank,
		func(b *domain.Bank) string { return b.ID }, shallow[domain.Bank])}
}

func (r *BankRepository) Create(_ context.Context, b *domain.Bank) (*domain.Bank, error) {
	return r.t.insert(b)
}

func (r *BankRepository) Get(_ context.Context, id string) (*domain.Bank, error) {
	return r.t.get(id)
}

func (r *BankRepository) ListByParent(_ context.Context, organizationID string) ([]*domain.Bank, error) {
	return r.t.filter(func(b *domain.Bank) bool { return b.OrganizationID == organizationID }), nil
}

func (r *BankRepository) Update(_ context.Context, b *domain.Bank) (*domain.Bank, error) {
	return r.t.modify(b.ID, func(stored *domain.Bank) {
		stored.Name = b.Name
		stored.UpdatedAt = b.UpdatedAt
	})
}

func (r *BankRepository) Delete(_ context.Context, id string) error {
	return r.t.remove(id)
}

// EmployeeRepository は従業員のインメモリ実装です。
type EmployeeRepository struct {
	t *table[domain.Employee]
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository() *EmployeeRepository {
	return &EmployeeRepository{t: newTable(domain.EntityEmployee,
		func(e *domain.Employee) string { return e.ID }, (*domain.Employee).Clone)}
}

func (r *EmployeeRepository) Create(_ context.Context, e *domain.Employee) (*domain.Employee, error) {
	return r.t.insert(e)
}

func (r *EmployeeRepository) Get(_ context.Context, id string) (*domain.Employee, error) {
	return r.t.get(id)
}

func (r *EmployeeRepository) ListByParent(_ context.Context, divisionID string) ([]*domain.Employee, error) {
	return r.t.filter(func(e *domain.Employee) bool { return e.DivisionID == divisionID }), nil
}

func (r *EmployeeRepository) ListByJob(_ context.Context, jobID string) ([]*domain.Employee, error) {
	return r.t.filter(func(e *domain.Employee) bool { return e.JobID == jobID }), nil
}

func (r *EmployeeRepository) ListByBank(_ context.Context, bankID string) ([]*domain.Employee, error) {
	return r.t.filter(func(e *domain.Employee) bool { return e.BankID == bankID }), nil
}

// Update は部門と給与台帳を除く属性を更新します。
func (r *EmployeeRepository) Update(_ context.Context, e *domain.Employee) (*domain.Employee, error) {
	return r.t.modify(e.ID, func(stored *domain.Employee) {
		stored.JobID = e.JobID
		stored.BankID = e.BankID
		stored.IDNumber = e.IDNumber
		stored.FirstName = e.FirstName
		stored.LastName = e.LastName
		stored.BankAccount = e.BankAccount
		stored.Status = e.Status
		stored.Hours = e.Hours
		stored.HireDate = e.HireDate
		if e.TerminationDate != nil {
			t := *e.TerminationDate
			stored.TerminationDate = &t
		} else {
			stored.TerminationDate = nil
		}
		stored.UpdatedAt = e.UpdatedAt
	})
}

func (r *EmployeeRepository) Delete(_ context.Context, id string) error {
	return r.t.remove(id)
}

// NewRepositories は全エンティティのインメモリリポジトリを生成します。
func NewRepositories() domain.Repositories {
	return domain.Repositories{
		Organizations: NewOrganizationRepository(),
		Payrolls:      NewPayrollRepository(),
		Divisions:     NewDivisionRepository(),
		Jobs:          NewJobRepository(),
		Banks:         NewBankRepository(),
		Employees:     NewEmployeeRepository(),
	}
}
