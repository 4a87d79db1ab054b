package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogurasousui/nomina/internal/core/domain"
)

func TestError_IsMatchesByKind(t *testing.T) {
	t.Parallel()

	err := domain.ParentNotFound(domain.EntityPayroll, "p-1")
	require.ErrorIs(t, err, domain.ErrPayrollNotFound)
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.NotErrorIs(t, err, domain.ErrDivisionNotFound)

	generic := domain.NotFound(domain.EntityJob, "j-1")
	require.ErrorIs(t, generic, domain.ErrNotFound)
	assert.NotErrorIs(t, generic, domain.ErrJobNotFound)

	wrapped := fmt.Errorf("create division: %w", domain.ErrCycleDetected)
	require.ErrorIs(t, wrapped, domain.ErrCycleDetected)
	assert.Equal(t, domain.KindCycleDetected, domain.KindOf(wrapped))
}

func TestError_Message(t *testing.T) {
	t.Parallel()

	err := domain.HasDependents(domain.EntityPayroll, "p-1", domain.EntityJob)
	assert.Equal(t, "payroll still owns job records: payroll `p-1`", err.Error())

	cause := errors.New("connection reset")
	storeErr := domain.StoreFailure("list divisions", cause)
	assert.Equal(t, "list divisions: connection reset", storeErr.Error())
	require.ErrorIs(t, storeErr, cause)
	require.ErrorIs(t, storeErr, domain.ErrStore)
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, domain.Kind(""), domain.KindOf(nil))
	assert.Equal(t, domain.KindStore, domain.KindOf(errors.New("boom")))
	assert.Equal(t, domain.KindInvalid, domain.KindOf(domain.Invalid("name", "is required")))
	assert.Equal(t, domain.KindConflict, domain.KindOf(domain.Conflict(domain.EntityBank, "b-1")))
}

func TestAsParentNotFound(t *testing.T) {
	t.Parallel()

	assert.NoError(t, domain.AsParentNotFound(nil, domain.EntityBank, "b-1"))

	converted := domain.AsParentNotFound(domain.NotFound(domain.EntityBank, "b-1"), domain.EntityBank, "b-1")
	require.ErrorIs(t, converted, domain.ErrBankNotFound)

	store := domain.StoreFailure("get bank", errors.New("timeout"))
	assert.Same(t, store, domain.AsParentNotFound(store, domain.EntityBank, "b-1"))

	// 型付き NotFound は変換しない
	typed := domain.ParentNotFound(domain.EntityJob, "j-1")
	assert.Same(t, typed, domain.AsParentNotFound(typed, domain.EntityBank, "b-1"))
}

func TestKind_IsNotFound(t *testing.T) {
	t.Parallel()

	for _, k := range []domain.Kind{
		domain.KindNotFound, domain.KindOrganizationNotFound, domain.KindPayrollNotFound,
		domain.KindDivisionNotFound, domain.KindJobNotFound, domain.KindBankNotFound,
	} {
		assert.True(t, k.IsNotFound(), k)
	}
	assert.False(t, domain.KindConflict.IsNotFound())
}
