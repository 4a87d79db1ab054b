package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/nomina/internal/core/domain"
	pgdb "github.com/ogurasousui/nomina/internal/platform/db/postgres"
	"github.com/shopspring/decimal"
)

// salary は NUMERIC のまま text で受け渡し、decimal で精度を保ちます。
const jobColumns = `id, payroll_id, title, salary::text, created_at, updated_at`

// JobRepository は PostgreSQL を利用した職務永続化の実装です。
type JobRepository struct {
	pool pgdb.Queryer
}

// NewJobRepository は JobRepository を生成します。
func NewJobRepository(pool pgdb.Queryer) *JobRepository {
	return &JobRepository{pool: pool}
}

// Create は職務を新規作成します。
func (r *JobRepository) Create(ctx context.Context, j *domain.Job) (*domain.Job, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO jobs (id, payroll_id, title, salary, created_at, updated_at)
        VALUES ($1, $2, $3, $4::numeric, $5, $6)
        RETURNING `+jobColumns,
		j.ID, j.PayrollID, j.Title, j.Salary.String(), j.CreatedAt, j.UpdatedAt)

	created, err := scanJob(row)
	if err != nil {
		return nil, translatePgError(opCreate, domain.EntityJob, j.ID, err)
	}
	return created, nil
}

// Get は ID で職務を取得します。
func (r *JobRepository) Get(ctx context.Context, id string) (*domain.Job, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)

	found, err := scanJob(row)
	if err != nil {
		return nil, translatePgError(opGet, domain.EntityJob, id, err)
	}
	return found, nil
}

// ListByParent は給与台帳に属する職務を返します。
func (r *JobRepository) ListByParent(ctx context.Context, payrollID string) ([]*domain.Job, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+jobColumns+`
          FROM jobs
         WHERE payroll_id = $1
         ORDER BY created_at, id
    `, payrollID)
	if err != nil {
		return nil, translatePgError(opList, domain.EntityJob, "", err)
	}

	jobs, err := collect(rows, scanJob)
	if err != nil {
		return nil, translatePgError(opList, domain.EntityJob, "", err)
	}
	return jobs, nil
}

// Update は職名と給与を更新します。
func (r *JobRepository) Update(ctx context.Context, j *domain.Job) (*domain.Job, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE jobs
           SET title = $1,
               salary = $2::numeric,
               updated_at = $3
         WHERE id = $4
        RETURNING `+jobColumns,
		j.Title, j.Salary.String(), j.UpdatedAt, j.ID)

	updated, err := scanJob(row)
	if err != nil {
		return nil, translatePgError(opUpdate, domain.EntityJob, j.ID, err)
	}
	return updated, nil
}

// Delete は職務を削除します。
func (r *JobRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return translatePgError(opDelete, domain.EntityJob, id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound(domain.EntityJob, id)
	}
	return nil
}

func scanJob(row pgx.Row) (*domain.Job, error) {
	var (
		j         domain.Job
		salary    string
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&j.ID, &j.PayrollID, &j.Title, &salary, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(salary)
	if err != nil {
		return nil, fmt.Errorf("parse salary %q: %w", salary, err)
	}
	j.Salary = amount
	j.CreatedAt = createdAt.UTC()
	j.UpdatedAt = updatedAt.UTC()
	return &j, nil
}
