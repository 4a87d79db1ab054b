package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogurasousui/nomina/internal/core/domain"
)

type stubRow struct {
	scanFn func(dest ...any) error
}

func (s stubRow) Scan(dest ...any) error {
	return s.scanFn(dest...)
}

var divisionCols = []string{"id", "payroll_id", "parent_division_id", "name", "description", "budget_code", "created_at", "updated_at"}

func TestScanDivision_ParentPointer(t *testing.T) {
	t.Parallel()

	now := time.Now()
	fill := func(parent sql.NullString) stubRow {
		return stubRow{scanFn: func(dest ...any) error {
			if len(dest) != 8 {
				return errors.New("unexpected dest length")
			}
			*(dest[0].(*string)) = "d-1"
			*(dest[1].(*string)) = "p-1"
			*(dest[2].(*sql.NullString)) = parent
			*(dest[3].(*string)) = "Backend"
			*(dest[4].(*string)) = ""
			*(dest[5].(*string)) = "B-1"
			*(dest[6].(*time.Time)) = now
			*(dest[7].(*time.Time)) = now
			return nil
		}}
	}

	root, err := scanDivision(fill(sql.NullString{}))
	require.NoError(t, err)
	assert.Nil(t, root.ParentDivisionID)
	assert.Equal(t, time.UTC, root.CreatedAt.Location())

	child, err := scanDivision(fill(sql.NullString{String: "d-0", Valid: true}))
	require.NoError(t, err)
	require.NotNil(t, child.ParentDivisionID)
	assert.Equal(t, "d-0", *child.ParentDivisionID)
}

func TestDivisionRepository_CreateMissingParent(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewDivisionRepository(mock)
	parent := "ghost"

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO divisions`)).
		WithArgs("d-1", "p-1", "ghost", "Backend", "", "", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{
			Code:           pgerrcode.ForeignKeyViolation,
			TableName:      "divisions",
			ConstraintName: "divisions_parent_division_id_fkey",
		})

	_, err := repo.Create(context.Background(), &domain.Division{ID: "d-1", PayrollID: "p-1", ParentDivisionID: &parent, Name: "Backend"})
	require.ErrorIs(t, err, domain.ErrDivisionNotFound)
}

func TestDivisionRepository_ListChildren(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewDivisionRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE parent_division_id = $1`)).
		WithArgs("d-0").
		WillReturnRows(pgxmock.NewRows(divisionCols).
			AddRow("d-1", "p-1", "d-0", "Backend", "", "", now, now).
			AddRow("d-2", "p-1", "d-0", "Frontend", "", "", now, now))

	children, err := repo.ListChildren(context.Background(), "d-0")
	require.NoError(t, err)
	require.Len(t, children, 2)
	for _, child := range children {
		require.NotNil(t, child.ParentDivisionID)
		assert.Equal(t, "d-0", *child.ParentDivisionID)
	}
}

func TestDivisionRepository_Reparent(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewDivisionRepository(mock)
	now := time.Now().UTC()
	parent := "d-9"

	mock.ExpectQuery(regexp.QuoteMeta(`SET parent_division_id = $1`)).
		WithArgs("d-9", "d-1").
		WillReturnRows(pgxmock.NewRows(divisionCols).
			AddRow("d-1", "p-1", "d-9", "Backend", "", "", now, now))

	moved, err := repo.Reparent(context.Background(), "d-1", &parent)
	require.NoError(t, err)
	require.NotNil(t, moved.ParentDivisionID)
	assert.Equal(t, "d-9", *moved.ParentDivisionID)
}

func TestDivisionRepository_DeleteWithChildren(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewDivisionRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM divisions WHERE id = $1`)).
		WithArgs("d-0").
		WillReturnError(&pgconn.PgError{
			Code:           pgerrcode.ForeignKeyViolation,
			TableName:      "divisions",
			ConstraintName: "divisions_parent_division_id_fkey",
		})

	err := repo.Delete(context.Background(), "d-0")
	require.ErrorIs(t, err, domain.ErrHasDependents)
	assert.Contains(t, err.Error(), "division still owns division records")
}
