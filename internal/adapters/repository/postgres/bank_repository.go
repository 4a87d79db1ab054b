package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/nomina/internal/core/domain"
	pgdb "github.com/ogurasousui/nomina/internal/platform/db/postgres"
)

const bankColumns = `id, organization_id, name, created_at, updated_at`

// BankRepository は PostgreSQL を利用した銀行永続化の実装です。
type BankRepository struct {
	pool pgdb.Queryer
}

// NewBankRepository は BankRepository を生成します。
func NewBankRepository(pool pgdb.Queryer) *BankRepository {
	return &BankRepository{pool: pool}
}

// Create は銀行を新規作成します。
func (r *BankRepository) Create(ctx context.Context, b *domain.Bank) (*domain.Bank, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO banks (id, organization_id, name, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING `+bankColumns,
		b.ID, b.OrganizationID, b.Name, b.CreatedAt, b.UpdatedAt)

	created, err := scanBank(row)
	if err != nil {
		return nil, translatePgError(opCreate, domain.EntityBank, b.ID, err)
	}
	return created, nil
}

// Get は ID で銀行を取得します。
func (r *BankRepository) Get(ctx context.Context, id string) (*domain.Bank, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT `+bankColumns+` FROM banks WHERE id = $1`, id)

	found, err := scanBank(row)
	if err != nil {
		return nil, translatePgError(opGet, domain.EntityBank, id, err)
	}
	return found, nil
}

// ListByParent は組織に属する銀行を返します。
func (r *BankRepository) ListByParent(ctx context.Context, organizationID string) ([]*domain.Bank, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+bankColumns+`
          FROM banks
         WHERE organization_id = $1
         ORDER BY created_at, id
    `, organizationID)
	if err != nil {
		return nil, translatePgError(opList, domain.EntityBank, "", err)
	}

	banks, err := collect(rows, scanBank)
	if err != nil {
		return nil, translatePgError(opList, domain.EntityBank, "", err)
	}
	return banks, nil
}

func (r *BankRepository) Update(ctx context.Context, b *domain.Bank) (*domain.Bank, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE banks
           SET name = $1,
               updated_at = $2
         WHERE id = $3
        RETURNING `+bankColumns,
		b.Name, b.UpdatedAt, b.ID)

	updated, err := scanBank(row)
	if err != nil {
		return nil, translatePgError(opUpdate, domain.EntityBank, b.ID, err)
	}
	return updated, nil
}

func (r *BankRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM banks WHERE id = $1`, id)
	if err != nil {
		return translatePgError(opDelete, domain.EntityBank, id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound(domain.EntityBank, id)
	}
	return nil
}

func scanBank(row pgx.Row) (*domain.Bank, error) {
	var (
		b         domain.Bank
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&b.ID, &b.OrganizationID, &b.Name, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	b.CreatedAt = createdAt.UTC()
	b.UpdatedAt = updatedAt.UTC()
	return &b, nil
}
