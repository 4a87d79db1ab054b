package hierarchy_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogurasousui/nomina/internal/adapters/repository/memory"
	"github.com/ogurasousui/nomina/internal/core/domain"
	"github.com/ogurasousui/nomina/internal/core/hierarchy"
)

type fixture struct {
	ctx   context.Context
	repos domain.Repositories
	v     *hierarchy.Validator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repos := memory.NewRepositories()
	return &fixture{ctx: context.Background(), repos: repos, v: hierarchy.NewValidator(repos)}
}

func (f *fixture) org(t *testing.T, id string) {
	t.Helper()
	_, err := f.repos.Organizations.Create(f.ctx, &domain.Organization{ID: id, Name: id})
	require.NoError(t, err)
}

func (f *fixture) payroll(t *testing.T, id, orgID string) {
	t.Helper()
	_, err := f.repos.Payrolls.Create(f.ctx, &domain.Payroll{ID: id, OrganizationID: orgID, Name: id})
	require.NoError(t, err)
}

func (f *fixture) division(t *testing.T, id, payrollID string, parent *string) {
	t.Helper()
	_, err := f.repos.Divisions.Create(f.ctx, &domain.Division{ID: id, PayrollID: payrollID, ParentDivisionID: parent, Name: id})
	require.NoError(t, err)
}

func (f *fixture) job(t *testing.T, id, payrollID string) {
	t.Helper()
	_, err := f.repos.Jobs.Create(f.ctx, &domain.Job{ID: id, PayrollID: payrollID, Title: id, Salary: decimal.NewFromInt(1000)})
	require.NoError(t, err)
}

func (f *fixture) bank(t *testing.T, id, orgID string) {
	t.Helper()
	_, err := f.repos.Banks.Create(f.ctx, &domain.Bank{ID: id, OrganizationID: orgID, Name: id})
	require.NoError(t, err)
}

func (f *fixture) employee(t *testing.T, id, payrollID, divisionID, jobID, bankID string) {
	t.Helper()
	_, err := f.repos.Employees.Create(f.ctx, &domain.Employee{
		ID: id, PayrollID: payrollID, DivisionID: divisionID, JobID: jobID, BankID: bankID,
		IDNumber: id, FirstName: "Ada", LastName: "Lovelace", BankAccount: "0001", Status: "active", Hours: 40,
	})
	require.NoError(t, err)
}

func ptr(s string) *string { return &s }

func TestValidator_MissingParents(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.org(t, "org")
	f.payroll(t, "pay", "org")

	tests := []struct {
		name string
		call func() error
		want error
	}{
		{"payroll without organization", func() error { return f.v.ValidatePayrollParent(f.ctx, "missing") }, domain.ErrOrganizationNotFound},
		{"bank without organization", func() error { return f.v.ValidateBankParent(f.ctx, "missing") }, domain.ErrOrganizationNotFound},
		{"job without payroll", func() error { return f.v.ValidateJobParent(f.ctx, "missing") }, domain.ErrPayrollNotFound},
		{"division without payroll", func() error { return f.v.ValidateDivisionParent(f.ctx, "missing", nil) }, domain.ErrPayrollNotFound},
		{"division with missing parent", func() error { return f.v.ValidateDivisionParent(f.ctx, "pay", ptr("missing")) }, domain.ErrDivisionNotFound},
		{"move of missing division", func() error { return f.v.ValidateDivisionMove(f.ctx, "missing", nil) }, domain.ErrDivisionNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			require.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}

	require.NoError(t, f.v.ValidatePayrollParent(f.ctx, "org"))
	require.NoError(t, f.v.ValidateJobParent(f.ctx, "pay"))
	require.NoError(t, f.v.ValidateDivisionParent(f.ctx, "pay", nil))
}

func TestValidator_CrossPayrollParent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.org(t, "org")
	f.payroll(t, "payroll-a", "org")
	f.payroll(t, "payroll-b", "org")
	f.division(t, "div-a", "payroll-a", nil)
	f.division(t, "div-b", "payroll-b", nil)

	err := f.v.ValidateDivisionParent(f.ctx, "payroll-a", ptr("div-b"))
	require.ErrorIs(t, err, domain.ErrCrossPayrollParent)

	err = f.v.ValidateDivisionMove(f.ctx, "div-a", ptr("div-b"))
	require.ErrorIs(t, err, domain.ErrCrossPayrollParent)
}

func TestValidator_SelfParent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.org(t, "org")
	f.payroll(t, "pay", "org")
	f.division(t, "div", "pay", nil)

	err := f.v.ValidateDivisionMove(f.ctx, "div", ptr("div"))
	require.ErrorIs(t, err, domain.ErrSelfParent)
}

func TestValidator_CycleAtAnyDepth(t *testing.T) {
	t.Parallel()

	for _, depth := range []int{1, 2, 5, 20} {
		t.Run(fmt.Sprintf("depth %d", depth), func(t *testing.T) {
			f := newFixture(t)
			f.org(t, "org")
			f.payroll(t, "pay", "org")
			f.division(t, "d0", "pay", nil)
			for i := 1; i <= depth; i++ {
				f.division(t, fmt.Sprintf("d%d", i), "pay", ptr(fmt.Sprintf("d%d", i-1)))
			}

			err := f.v.ValidateDivisionMove(f.ctx, "d0", ptr(fmt.Sprintf("d%d", depth)))
			require.ErrorIs(t, err, domain.ErrCycleDetected)

			// 末端をルートへ戻すのは許可される
			require.NoError(t, f.v.ValidateDivisionMove(f.ctx, fmt.Sprintf("d%d", depth), nil))
		})
	}
}

func TestValidator_MoveToSiblingSubtree(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.org(t, "org")
	f.payroll(t, "pay", "org")
	f.division(t, "root", "pay", nil)
	f.division(t, "left", "pay", ptr("root"))
	f.division(t, "right", "pay", ptr("root"))
	f.division(t, "right-child", "pay", ptr("right"))

	require.NoError(t, f.v.ValidateDivisionMove(f.ctx, "left", ptr("right-child")))
}

func TestValidator_CorruptedGraphTerminates(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.org(t, "org")
	f.payroll(t, "pay", "org")
	f.division(t, "a", "pay", nil)
	f.division(t, "b", "pay", ptr("a"))
	f.division(t, "c", "pay", nil)

	// バリデーションを経由せずに a <-> b の循環を作る
	_, err := f.repos.Divisions.Reparent(f.ctx, "a", ptr("b"))
	require.NoError(t, err)

	err = f.v.ValidateDivisionMove(f.ctx, "c", ptr("a"))
	require.ErrorIs(t, err, domain.ErrCycleDetected)
}

func TestValidator_DanglingParentIsRoot(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.org(t, "org")
	f.payroll(t, "pay", "org")
	f.division(t, "gone", "pay", nil)
	f.division(t, "orphan", "pay", ptr("gone"))
	f.division(t, "mover", "pay", nil)
	require.NoError(t, f.repos.Divisions.Delete(f.ctx, "gone"))

	require.NoError(t, f.v.ValidateDivisionMove(f.ctx, "mover", ptr("orphan")))
}

// 分離のないストアでは、同時に行われる 2 つの付け替えがどちらも古いグラフに対して検証を通過しうる。
// PostgreSQL では SERIALIZABLE の再実行で防ぐが、メモリ実装では許容された境界として残る。
// 壊れたグラフでも検証は停止することを確認する。
func TestValidator_ConcurrentMovesBoundary(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.org(t, "org")
	f.payroll(t, "pay", "org")
	f.division(t, "x", "pay", nil)
	f.division(t, "y", "pay", nil)

	// 両方の検証が書き込み前に完了する
	errX := f.v.ValidateDivisionMove(f.ctx, "x", ptr("y"))
	errY := f.v.ValidateDivisionMove(f.ctx, "y", ptr("x"))
	require.NoError(t, errX)
	require.NoError(t, errY)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = f.repos.Divisions.Reparent(f.ctx, "x", ptr("y"))
	}()
	go func() {
		defer wg.Done()
		_, _ = f.repos.Divisions.Reparent(f.ctx, "y", ptr("x"))
	}()
	wg.Wait()

	f.division(t, "z", "pay", nil)
	err := f.v.ValidateDivisionMove(f.ctx, "z", ptr("x"))
	require.ErrorIs(t, err, domain.ErrCycleDetected)
}

func TestValidator_EmployeeReferences(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.org(t, "org")
	f.org(t, "other-org")
	f.payroll(t, "pay", "org")
	f.payroll(t, "other-pay", "org")
	f.division(t, "div", "pay", nil)
	f.job(t, "job", "pay")
	f.job(t, "foreign-job", "other-pay")
	f.bank(t, "bank", "org")
	f.bank(t, "foreign-bank", "other-org")

	division, err := f.v.ValidateEmployeeReferences(f.ctx, "div", "job", "bank")
	require.NoError(t, err)
	assert.Equal(t, "pay", division.PayrollID)

	_, err = f.v.ValidateEmployeeReferences(f.ctx, "missing", "job", "bank")
	require.ErrorIs(t, err, domain.ErrDivisionNotFound)

	_, err = f.v.ValidateEmployeeReferences(f.ctx, "div", "missing", "bank")
	require.ErrorIs(t, err, domain.ErrJobNotFound)

	_, err = f.v.ValidateEmployeeReferences(f.ctx, "div", "job", "missing")
	require.ErrorIs(t, err, domain.ErrBankNotFound)

	_, err = f.v.ValidateEmployeeReferences(f.ctx, "div", "foreign-job", "bank")
	require.ErrorIs(t, err, domain.ErrCrossScopeReference)

	_, err = f.v.ValidateEmployeeReferences(f.ctx, "div", "job", "foreign-bank")
	require.ErrorIs(t, err, domain.ErrCrossScopeReference)
}

func TestValidator_ValidateDeletable(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.org(t, "org")
	f.payroll(t, "pay", "org")
	f.division(t, "parent", "pay", nil)
	f.division(t, "child", "pay", ptr("parent"))
	f.job(t, "job", "pay")
	f.bank(t, "bank", "org")
	f.employee(t, "emp", "pay", "child", "job", "bank")

	blocked := []struct {
		kind domain.EntityKind
		id   string
	}{
		{domain.EntityOrganization, "org"},
		{domain.EntityPayroll, "pay"},
		{domain.EntityDivision, "parent"},
		{domain.EntityDivision, "child"},
		{domain.EntityJob, "job"},
		{domain.EntityBank, "bank"},
	}
	for _, b := range blocked {
		err := f.v.ValidateDeletable(f.ctx, b.kind, b.id)
		require.ErrorIs(t, err, domain.ErrHasDependents, "%s %s", b.kind, b.id)
	}

	require.NoError(t, f.v.ValidateDeletable(f.ctx, domain.EntityEmployee, "emp"))

	err := f.v.ValidateDeletable(f.ctx, domain.EntityPayroll, "missing")
	require.ErrorIs(t, err, domain.ErrPayrollNotFound)

	err = f.v.ValidateDeletable(f.ctx, domain.EntityEmployee, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)

	err = f.v.ValidateDeletable(f.ctx, domain.EntityKind("unknown"), "x")
	require.ErrorIs(t, err, domain.ErrInvalid)
}

func TestValidator_DoesNotMutate(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.org(t, "org")
	f.payroll(t, "pay", "org")
	f.division(t, "a", "pay", nil)
	f.division(t, "b", "pay", ptr("a"))

	before, err := f.repos.Divisions.ListByParent(f.ctx, "pay")
	require.NoError(t, err)

	_ = f.v.ValidateDivisionMove(f.ctx, "a", ptr("b"))
	_ = f.v.ValidateDeletable(f.ctx, domain.EntityDivision, "a")

	after, err := f.repos.Divisions.ListByParent(f.ctx, "pay")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestValidator_PayrollRelocation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.org(t, "org")
	f.org(t, "target")
	f.payroll(t, "pay", "org")
	f.division(t, "div", "pay", nil)
	f.job(t, "job", "pay")
	f.bank(t, "bank", "org")

	require.NoError(t, f.v.ValidatePayrollRelocation(f.ctx, "pay", "target"))

	err := f.v.ValidatePayrollRelocation(f.ctx, "pay", "missing")
	require.ErrorIs(t, err, domain.ErrOrganizationNotFound)

	f.employee(t, "emp", "pay", "div", "job", "bank")
	err = f.v.ValidatePayrollRelocation(f.ctx, "pay", "target")
	require.ErrorIs(t, err, domain.ErrCrossScopeReference)
}
