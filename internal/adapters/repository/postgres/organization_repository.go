package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/nomina/internal/core/domain"
	pgdb "github.com/ogurasousui/nomina/internal/platform/db/postgres"
)

// OrganizationRepository は PostgreSQL を利用した組織永続化の実装です。
type OrganizationRepository struct {
	pool pgdb.Queryer
}

// NewOrganizationRepository は OrganizationRepository を生成します。
func NewOrganizationRepository(pool pgdb.Queryer) *OrganizationRepository {
	return &OrganizationRepository{pool: pool}
}

// Create は組織を新規作成します。
func (r *OrganizationRepository) Create(ctx context.Context, o *domain.Organization) (*domain.Organization, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO organizations (id, name, created_at, updated_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id, name, created_at, updated_at
    `, o.ID, o.Name, o.CreatedAt, o.UpdatedAt)

	created, err := scanOrganization(row)
	if err != nil {
		return nil, translatePgError(opCreate, domain.EntityOrganization, o.ID, err)
	}
	return created, nil
}

// Get は ID で組織を取得します。
func (r *OrganizationRepository) Get(ctx context.Context, id string) (*domain.Organization, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, name, created_at, updated_at
          FROM organizations
         WHERE id = $1
    `, id)

	found, err := scanOrganization(row)
	if err != nil {
		return nil, translatePgError(opGet, domain.EntityOrganization, id, err)
	}
	return found, nil
}

// List は組織を作成順に返します。
func (r *OrganizationRepository) List(ctx context.Context) ([]*domain.Organization, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT id, name, created_at, updated_at
          FROM organizations
         ORDER BY created_at, id
    `)
	if err != nil {
		return nil, translatePgError(opList, domain.EntityOrganization, "", err)
	}

	organizations, err := collect(rows, scanOrganization)
	if err != nil {
		return nil, translatePgError(opList, domain.EntityOrganization, "", err)
	}
	return organizations, nil
}

// Update は組織名と更新日時を更新します。
func (r *OrganizationRepository) Update(ctx context.Context, o *domain.Organization) (*domain.Organization, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE organizations
           SET name = $1,
               updated_at = $2
         WHERE id = $3
        RETURNING id, name, created_at, updated_at
    `, o.Name, o.UpdatedAt, o.ID)

	updated, err := scanOrganization(row)
	if err != nil {
		return nil, translatePgError(opUpdate, domain.EntityOrganization, o.ID, err)
	}
	return updated, nil
}

// Delete は組織を削除します。
func (r *OrganizationRepository) Delete(ctx context.Context, id string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return translatePgError(opDelete, domain.EntityOrganization, id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFound(domain.EntityOrganization, id)
	}
	return nil
}

func scanOrganization(row pgx.Row) (*domain.Organization, error) {
	var (
		o         domain.Organization
		createdAt time.Time
		updatedAt time.Time
	)
	if err := row.Scan(&o.ID, &o.Name, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	o.CreatedAt = createdAt.UTC()
	o.UpdatedAt = updatedAt.UTC()
	return &o, nil
}
