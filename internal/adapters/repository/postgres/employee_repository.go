package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/nomina/internal/core/domain"
	pgdb "github.com/ogurasousui/nomina/internal/platform/db/postgres"
)

const employeeColumns = `id, payroll_id, division_id, job_id, bank_id, id_number, first_name, last_name,
               bank_account, status, hours, hire_date, termination_date, created_at, updated_at`

// EmployeeRepository は PostgreSQL を利用した従業員永続化の実装です。
type EmployeeRepository struct {
	pool pgdb.Queryer
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(pool pgdb.Queryer) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// Create は従業員を新規作成します。
func (r *EmployeeRepository) Create(ctx context.Context, e *domain.Employee) (*domain.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO employees (id, payroll_id, division_id, job_id, bank_id, id_number, first_name, last_name,
                               bank_account, status, hours, hire_date, termination_date, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
        RETURNING `+employeeColumns,
		e.ID,
		e.PayrollID,
		e.DivisionID,
		e.JobID,
		e.BankID,
		e.IDNumber,
		e.FirstName,
		e.LastName,
		e.BankAccount,
		e.Status,
		e.Hours,
		dateOnly(e.HireDate),
		nullableDate(e.TerminationDate),
		e.CreatedAt,
		e.UpdatedAt,
	)

	created, err := scanEmployee(row)
	if err != nil {
		return nil, translatePgError(opCreate, domain.EntityEmployee, e.ID, err)
	}
	return created, nil
}

// Get は ID で従業員を取得します。
func (r *EmployeeRepository) Get(ctx context.Context, id string) (*domain.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+employeeColumns+`
          FROM employees
         WHERE id = $1
    `, id)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, translatePgError(opGet, domain.EntityEmployee, id, err)
	}
	return found, nil
}

// ListByParent は部門に所属する従業員を返します。
func (r *EmployeeRepository) ListByParent(ctx context.Context, divisionID string) ([]*domain.Employee, error) {
	return r.listBy(ctx, "division_id", divisionID)
}

// ListByJob は職務を参照している従業員を返します。
func (r *EmployeeRepository) ListByJob(ctx context.Context, jobID string) ([]*domain.Employee, error) {
	return r.listBy(ctx, "job_id", jobID)
}

// ListByBank は銀行を参照している従業員を返します。
func (r *EmployeeRepository) ListByBank(ctx context.Context, bankID string) ([]*domain.Employee, error) {
	return r.listBy(ctx, "bank_id", bankID)
}

// listBy の column は固定の列名のみを受け付けます。
func (r *EmployeeRepository) listBy(ctx context.Context, column, value string) ([]*domain.Employee, error) {
	query := `
        SELECT ` + employeeColumns + `
          FROM employees
         WHERE ` + column + ` = $1
         ORDER BY created_at, id
    `

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, value)
	if err != nil {
		return nil, translatePgError(opList, domain.EntityEmployee, "", err)
	}

	employees, err := collect(rows, scanEmployee)
	if err != nil {
		return nil, translatePgError(opList, domain.EntityEmployee, "", err)
	}
	return employees, nil
}

// Update は所属部門と給与台帳を除く属性を更新します。
func (r *EmployeeRepository) Update(ctx context.Context, e *domain.Employee) (*domain.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE employees
           SET job_id = $1,
               bank_id = $2,
               id_number = $3,
               first_name = $4,
               last_name = $5,
               bank_account = $6,
               status = $7,
               hours = $8,
               hire_date = $9,
               termination_date = $10,
               updated_at = $11
         WHERE id = $12
        RETURNING `+employeeColumns,
		e.JobID,
		e.BankID,
		e.IDNumber,
		e.FirstName,
		e.LastName,
		e.BankAccount,
		e.Status,
		e.Hours,
		dateOnly(e.HireDate),
		nullableDate(e.TerminationDate),
		e.UpdatedAt,
		e.ID,
	)

	updated, err := scanEmployee(row)
	if err != nil {
		return nil, translatePgError(opUpdate, domain.EntityEmployee, e.ID, err)
	}
	return updated, nil
}

// Delete は従業員を削除します。
func (r *EmployeeRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return translatePgError(opDelete, domain.EntityEmployee, id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound(domain.EntityEmployee, id)
	}
	return nil
}

func scanEmployee(row pgx.Row) (*domain.Employee, error) {
	var (
		e          domain.Employee
		hireDate   time.Time
		terminated sql.NullTime
		createdAt  time.Time
		updatedAt  time.Time
	)

	if err := row.Scan(
		&e.ID,
		&e.PayrollID,
		&e.DivisionID,
		&e.JobID,
		&e.BankID,
		&e.IDNumber,
		&e.FirstName,
		&e.LastName,
		&e.BankAccount,
		&e.Status,
		&e.Hours,
		&hireDate,
		&terminated,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	e.HireDate = dateOnly(hireDate)
	if terminated.Valid {
		date := dateOnly(terminated.Time)
		e.TerminationDate = &date
	}
	e.CreatedAt = createdAt.UTC()
	e.UpdatedAt = updatedAt.UTC()
	return &e, nil
}

func dateOnly(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
}

func nullableDate(value *time.Time) any {
	if value == nil {
		return nil
	}
	return dateOnly(*value)
}
