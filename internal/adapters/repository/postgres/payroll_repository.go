package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/nomina/internal/core/domain"
	pgdb "github.com/ogurasousui/nomina/internal/platform/db/postgres"
)

const payrollColumns = `id, organization_id, name, description, created_at, updated_at`

// PayrollRepository は PostgreSQL を利用した給与台帳永続化の実装です。
type PayrollRepository struct {
	pool pgdb.Queryer
}

// NewPayrollRepository は PayrollRepository を生成します。
func NewPayrollRepository(pool pgdb.Queryer) *PayrollRepository {
	return &PayrollRepository{pool: pool}
}

// Create は給与台帳を新規作成します。親組織が存在しない場合は OrganizationNotFound です。
func (r *PayrollRepository) Create(ctx context.Context, p *domain.Payroll) (*domain.Payroll, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO payrolls (id, organization_id, name, description, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING `+payrollColumns,
		p.ID, p.OrganizationID, p.Name, p.Description, p.CreatedAt, p.UpdatedAt)

	created, err := scanPayroll(row)
	if err != nil {
		return nil, translatePgError(opCreate, domain.EntityPayroll, p.ID, err)
	}
	return created, nil
}

// Get は ID で給与台帳を取得します。
func (r *PayrollRepository) Get(ctx context.Context, id string) (*domain.Payroll, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT `+payrollColumns+` FROM payrolls WHERE id = $1`, id)

	found, err := scanPayroll(row)
	if err != nil {
		return nil, translatePgError(opGet, domain.EntityPayroll, id, err)
	}
	return found, nil
}

// ListByParent は組織に属する給与台帳を返します。
func (r *PayrollRepository) ListByParent(ctx context.Context, organizationID string) ([]*domain.Payroll, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+payrollColumns+`
          FROM payrolls
         WHERE organization_id = $1
         ORDER BY created_at, id
    `, organizationID)
	if err != nil {
		return nil, translatePgError(opList, domain.EntityPayroll, "", err)
	}

	payrolls, err := collect(rows, scanPayroll)
	if err != nil {
		return nil, translatePgError(opList, domain.EntityPayroll, "", err)
	}
	return payrolls, nil
}

// Update は名前・説明・更新日時を更新します。所属組織は変更しません。
func (r *PayrollRepository) Update(ctx context.Context, p *domain.Payroll) (*domain.Payroll, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE payrolls
           SET name = $1,
               description = $2,
               updated_at = $3
         WHERE id = $4
        RETURNING `+payrollColumns,
		p.Name, p.Description, p.UpdatedAt, p.ID)

	updated, err := scanPayroll(row)
	if err != nil {
		return nil, translatePgError(opUpdate, domain.EntityPayroll, p.ID, err)
	}
	return updated, nil
}

// Relocate は給与台帳の所属組織を差し替えます。
func (r *PayrollRepository) Relocate(ctx context.Context, id, organizationID string) (*domain.Payroll, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE payrolls
           SET organization_id = $1
         WHERE id = $2
        RETURNING `+payrollColumns,
		organizationID, id)

	relocated, err := scanPayroll(row)
	if err != nil {
		return nil, translatePgError(opUpdate, domain.EntityPayroll, id, err)
	}
	return relocated, nil
}

// Delete は給与台帳を削除します。
func (r *PayrollRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM payrolls WHERE id = $1`, id)
	if err != nil {
		return translatePgError(opDelete, domain.EntityPayroll, id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound(domain.EntityPayroll, id)
	}
	return nil
}

func scanPayroll(row pgx.Row) (*domain.Payroll, error) {
	var (
		p         domain.Payroll
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&p.ID, &p.OrganizationID, &p.Name, &p.Description, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.CreatedAt = createdAt.UTC()
	p.UpdatedAt = updatedAt.UTC()
	return &p, nil
}
