package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogurasousui/nomina/internal/core/domain"
	pgdb "github.com/ogurasousui/nomina/internal/platform/db/postgres"
)

var organizationCols = []string{"id", "name", "created_at", "updated_at"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		mock.Close()
	})
	return mock
}

func TestOrganizationRepository_Create(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewOrganizationRepository(mock)
	now := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO organizations (id, name, created_at, updated_at)`)).
		WithArgs("o-1", "Acme", now, now).
		WillReturnRows(pgxmock.NewRows(organizationCols).AddRow("o-1", "Acme", now, now))

	created, err := repo.Create(context.Background(), &domain.Organization{ID: "o-1", Name: "Acme", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	assert.Equal(t, "o-1", created.ID)
	assert.True(t, now.Equal(created.CreatedAt))
}

func TestOrganizationRepository_CreateDuplicate(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewOrganizationRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO organizations`)).
		WithArgs("o-1", "Acme", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "organizations_pkey"})

	_, err := repo.Create(context.Background(), &domain.Organization{ID: "o-1", Name: "Acme"})
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestOrganizationRepository_GetNotFound(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewOrganizationRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM organizations`)).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.Get(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestOrganizationRepository_List(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewOrganizationRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY created_at, id`)).
		WillReturnRows(pgxmock.NewRows(organizationCols).
			AddRow("o-1", "Acme", now, now).
			AddRow("o-2", "Globex", now, now))

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Globex", list[1].Name)
}

func TestOrganizationRepository_ListQueryFailure(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewOrganizationRepository(mock)

	cause := errors.New("connection reset")
	mock.ExpectQuery(regexp.QuoteMeta(`FROM organizations`)).WillReturnError(cause)

	_, err := repo.List(context.Background())
	require.ErrorIs(t, err, domain.ErrStore)
	require.ErrorIs(t, err, cause)
}

func TestOrganizationRepository_Delete(t *testing.T) {
	t.Parallel()

	t.Run("missing row", func(t *testing.T) {
		mock := newMock(t)
		repo := NewOrganizationRepository(mock)

		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM organizations WHERE id = $1`)).
			WithArgs("o-1").
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		require.ErrorIs(t, repo.Delete(context.Background(), "o-1"), domain.ErrNotFound)
	})

	t.Run("restricted by dependents", func(t *testing.T) {
		mock := newMock(t)
		repo := NewOrganizationRepository(mock)

		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM organizations WHERE id = $1`)).
			WithArgs("o-1").
			WillReturnError(&pgconn.PgError{
				Code:           pgerrcode.ForeignKeyViolation,
				TableName:      "banks",
				ConstraintName: "banks_organization_id_fkey",
			})

		err := repo.Delete(context.Background(), "o-1")
		require.ErrorIs(t, err, domain.ErrHasDependents)
		assert.Contains(t, err.Error(), "bank records")
	})

	t.Run("deleted", func(t *testing.T) {
		mock := newMock(t)
		repo := NewOrganizationRepository(mock)

		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM organizations WHERE id = $1`)).
			WithArgs("o-1").
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		require.NoError(t, repo.Delete(context.Background(), "o-1"))
	})
}

func TestOrganizationRepository_UsesTransactionFromContext(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewOrganizationRepository(mock)
	tm := pgdb.NewTransactionManager(mock)
	now := time.Now().UTC()

	mock.ExpectBeginTx(pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadWrite})
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE organizations`)).
		WithArgs("Acme Corp", now, "o-1").
		WillReturnRows(pgxmock.NewRows(organizationCols).AddRow("o-1", "Acme Corp", now, now))
	mock.ExpectCommit()

	err := tm.WithinReadWrite(context.Background(), func(ctx context.Context) error {
		_, err := repo.Update(ctx, &domain.Organization{ID: "o-1", Name: "Acme Corp", UpdatedAt: now})
		return err
	})
	require.NoError(t, err)
}
