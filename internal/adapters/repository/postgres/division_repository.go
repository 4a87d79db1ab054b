package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/nomina/internal/core/domain"
	pgdb "github.com/ogurasousui/nomina/internal/platform/db/postgres"
)

const divisionColumns = `id, payroll_id, parent_division_id, name, description, budget_code, created_at, updated_at`

// DivisionRepository は PostgreSQL を利用した部門永続化の実装です。
// 親子関係は parent_division_id の自己参照外部キーで表現します。
type DivisionRepository struct {
	pool pgdb.Queryer
}

// NewDivisionRepository は DivisionRepository を生成します。
func NewDivisionRepository(pool pgdb.Queryer) *DivisionRepository {
	return &DivisionRepository{pool: pool}
}

// Create は部門を新規作成します。
func (r *DivisionRepository) Create(ctx context.Context, d *domain.Division) (*domain.Division, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO divisions (id, payroll_id, parent_division_id, name, description, budget_code, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING `+divisionColumns,
		d.ID,
		d.PayrollID,
		nullableString(d.ParentDivisionID),
		d.Name,
		d.Description,
		d.BudgetCode,
		d.CreatedAt,
		d.UpdatedAt,
	)

	created, err := scanDivision(row)
	if err != nil {
		return nil, translatePgError(opCreate, domain.EntityDivision, d.ID, err)
	}
	return created, nil
}

// Get は ID で部門を取得します。
func (r *DivisionRepository) Get(ctx context.Context, id string) (*domain.Division, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT `+divisionColumns+` FROM divisions WHERE id = $1`, id)

	found, err := scanDivision(row)
	if err != nil {
		return nil, translatePgError(opGet, domain.EntityDivision, id, err)
	}
	return found, nil
}

// ListByParent は給与台帳に属するすべての部門を返します。
func (r *DivisionRepository) ListByParent(ctx context.Context, payrollID string) ([]*domain.Division, error) {
	return r.list(ctx, `
        SELECT `+divisionColumns+`
          FROM divisions
         WHERE payroll_id = $1
         ORDER BY created_at, id
    `, payrollID)
}

// ListChildren は直下の子部門を返します。
func (r *DivisionRepository) ListChildren(ctx context.Context, divisionID string) ([]*domain.Division, error) {
	return r.list(ctx, `
        SELECT `+divisionColumns+`
          FROM divisions
         WHERE parent_division_id = $1
         ORDER BY created_at, id
    `, divisionID)
}

func (r *DivisionRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Division, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, translatePgError(opList, domain.EntityDivision, "", err)
	}

	divisions, err := collect(rows, scanDivision)
	if err != nil {
		return nil, translatePgError(opList, domain.EntityDivision, "", err)
	}
	return divisions, nil
}

// Update は名前・説明・予算コードを更新します。親部門は変更しません。
func (r *DivisionRepository) Update(ctx context.Context, d *domain.Division) (*domain.Division, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE divisions
           SET name = $1,
               description = $2,
               budget_code = $3,
               updated_at = $4
         WHERE id = $5
        RETURNING `+divisionColumns,
		d.Name, d.Description, d.BudgetCode, d.UpdatedAt, d.ID)

	updated, err := scanDivision(row)
	if err != nil {
		return nil, translatePgError(opUpdate, domain.EntityDivision, d.ID, err)
	}
	return updated, nil
}

// Reparent は親部門を差し替えます。
func (r *DivisionRepository) Reparent(ctx context.Context, id string, parentDivisionID *string) (*domain.Division, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE divisions
           SET parent_division_id = $1
         WHERE id = $2
        RETURNING `+divisionColumns,
		nullableString(parentDivisionID), id)

	moved, err := scanDivision(row)
	if err != nil {
		return nil, translatePgError(opUpdate, domain.EntityDivision, id, err)
	}
	return moved, nil
}

// Delete は部門を削除します。子部門や従業員が残っている場合は HasDependents です。
func (r *DivisionRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM divisions WHERE id = $1`, id)
	if err != nil {
		return translatePgError(opDelete, domain.EntityDivision, id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound(domain.EntityDivision, id)
	}
	return nil
}

func scanDivision(row pgx.Row) (*domain.Division, error) {
	var (
		d         domain.Division
		parentID  sql.NullString
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(
		&d.ID,
		&d.PayrollID,
		&parentID,
		&d.Name,
		&d.Description,
		&d.BudgetCode,
		&createdAt,
		&updatedAt,
	); err != nil {
		return nil, err
	}

	if parentID.Valid {
		parent := parentID.String
		d.ParentDivisionID = &parent
	}
	d.CreatedAt = createdAt.UTC()
	d.UpdatedAt = updatedAt.UTC()
	return &d, nil
}
