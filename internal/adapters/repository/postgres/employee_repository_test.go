package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogurasousui/nomina/internal/core/domain"
)

var employeeCols = []string{
	"id", "payroll_id", "division_id", "job_id", "bank_id", "id_number", "first_name", "last_name",
	"bank_account", "status", "hours", "hire_date", "termination_date", "created_at", "updated_at",
}

func TestScanEmployee_Dates(t *testing.T) {
	t.Parallel()

	jst := time.FixedZone("JST", 9*60*60)
	hired := time.Date(2024, 4, 1, 0, 0, 0, 0, jst)
	terminated := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	row := stubRow{scanFn: func(dest ...any) error {
		if len(dest) != 15 {
			return errors.New("unexpected dest length")
		}
		*(dest[0].(*string)) = "e-1"
		*(dest[1].(*string)) = "p-1"
		*(dest[2].(*string)) = "d-1"
		*(dest[3].(*string)) = "j-1"
		*(dest[4].(*string)) = "b-1"
		*(dest[5].(*string)) = "001"
		*(dest[6].(*string)) = "Ada"
		*(dest[7].(*string)) = "Lovelace"
		*(dest[8].(*string)) = "0001"
		*(dest[9].(*string)) = "active"
		*(dest[10].(*int)) = 40
		*(dest[11].(*time.Time)) = hired
		*(dest[12].(*sql.NullTime)) = sql.NullTime{Time: terminated, Valid: true}
		*(dest[13].(*time.Time)) = now
		*(dest[14].(*time.Time)) = now
		return nil
	}}

	e, err := scanEmployee(row)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), e.HireDate)
	require.NotNil(t, e.TerminationDate)
	assert.True(t, terminated.Equal(*e.TerminationDate))
	assert.Equal(t, 40, e.Hours)
}

func TestEmployeeRepository_ListByBank(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewEmployeeRepository(mock)
	now := time.Now().UTC()
	hired := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE bank_id = $1`)).
		WithArgs("b-1").
		WillReturnRows(pgxmock.NewRows(employeeCols).
			AddRow("e-1", "p-1", "d-1", "j-1", "b-1", "001", "Ada", "Lovelace", "0001", "active", 40, hired, nil, now, now))

	employees, err := repo.ListByBank(context.Background(), "b-1")
	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Nil(t, employees[0].TerminationDate)
	assert.Equal(t, "b-1", employees[0].BankID)
}

func TestEmployeeRepository_DeleteMissing(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewEmployeeRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM employees WHERE id = $1`)).
		WithArgs("e-404").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.ErrorIs(t, repo.Delete(context.Background(), "e-404"), domain.ErrNotFound)
}
