// Package repotest はリポジトリ実装が満たすべき共通の振る舞いを検証します。
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ogurasousui/nomina/internal/core/domain"
)

// Run は repos に対して契約テストを実行します。
// ID は毎回生成するため、同じストアを複数回の実行で共有できます。
func Run(t *testing.T, repos domain.Repositories) {
	t.Helper()

	t.Run("organization", func(t *testing.T) { testOrganizations(t, repos) })
	t.Run("payroll", func(t *testing.T) { testPayrolls(t, repos) })
	t.Run("division", func(t *testing.T) { testDivisions(t, repos) })
	t.Run("job", func(t *testing.T) { testJobs(t, repos) })
	t.Run("bank", func(t *testing.T) { testBanks(t, repos) })
	t.Run("employee", func(t *testing.T) { testEmployees(t, repos) })
}

func stamp() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func seedOrganization(t *testing.T, repos domain.Repositories, name string) *domain.Organization {
	t.Helper()
	now := stamp()
	org, err := repos.Organizations.Create(context.Background(), &domain.Organization{
		ID: uuid.NewString(), Name: name, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	return org
}

func seedPayroll(t *testing.T, repos domain.Repositories, orgID, name string) *domain.Payroll {
	t.Helper()
	now := stamp()
	p, err := repos.Payrolls.Create(context.Background(), &domain.Payroll{
		ID: uuid.NewString(), OrganizationID: orgID, Name: name, Description: "desc", CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	return p
}

func seedDivision(t *testing.T, repos domain.Repositories, payrollID string, parent *string, name string) *domain.Division {
	t.Helper()
	now := stamp()
	d, err := repos.Divisions.Create(context.Background(), &domain.Division{
		ID: uuid.NewString(), PayrollID: payrollID, ParentDivisionID: parent, Name: name,
		Description: "desc", BudgetCode: "B-1", CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	return d
}

func seedJob(t *testing.T, repos domain.Repositories, payrollID, title string) *domain.Job {
	t.Helper()
	now := stamp()
	j, err := repos.Jobs.Create(context.Background(), &domain.Job{
		ID: uuid.NewString(), PayrollID: payrollID, Title: title,
		Salary: decimal.RequireFromString("1234.56"), CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	return j
}

func seedBank(t *testing.T, repos domain.Repositories, orgID, name string) *domain.Bank {
	t.Helper()
	now := stamp()
	b, err := repos.Banks.Create(context.Background(), &domain.Bank{
		ID: uuid.NewString(), OrganizationID: orgID, Name: name, CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	return b
}

func seedEmployee(t *testing.T, repos domain.Repositories, d *domain.Division, jobID, bankID string) *domain.Employee {
	t.Helper()
	now := stamp()
	e, err := repos.Employees.Create(context.Background(), &domain.Employee{
		ID: uuid.NewString(), PayrollID: d.PayrollID, DivisionID: d.ID, JobID: jobID, BankID: bankID,
		IDNumber: "001", FirstName: "Ada", LastName: "Lovelace", BankAccount: "0001",
		Status: "active", Hours: 40, HireDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		CreatedAt: now, UpdatedAt: now,
	})
	require.NoError(t, err)
	return e
}

func testOrganizations(t *testing.T, repos domain.Repositories) {
	ctx := context.Background()
	org := seedOrganization(t, repos, "Acme")

	got, err := repos.Organizations.Get(ctx, org.ID)
	require.NoError(t, err)
	assert.Equal(t, org.Name, got.Name)
	assert.True(t, org.CreatedAt.Equal(got.CreatedAt))

	_, err = repos.Organizations.Create(ctx, org)
	require.ErrorIs(t, err, domain.ErrConflict)

	_, err = repos.Organizations.Get(ctx, uuid.NewString())
	require.ErrorIs(t, err, domain.ErrNotFound)

	got.Name = "Acme Corp"
	got.UpdatedAt = stamp().Add(time.Minute)
	updated, err := repos.Organizations.Update(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", updated.Name)
	assert.True(t, got.UpdatedAt.Equal(updated.UpdatedAt))

	_, err = repos.Organizations.Update(ctx, &domain.Organization{ID: uuid.NewString(), Name: "x"})
	require.ErrorIs(t, err, domain.ErrNotFound)

	all, err := repos.Organizations.List(ctx)
	require.NoError(t, err)
	assert.True(t, containsID(all, org.ID, func(o *domain.Organization) string { return o.ID }))

	require.NoError(t, repos.Organizations.Delete(ctx, org.ID))
	_, err = repos.Organizations.Get(ctx, org.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.ErrorIs(t, repos.Organizations.Delete(ctx, org.ID), domain.ErrNotFound)
}

func testPayrolls(t *testing.T, repos domain.Repositories) {
	ctx := context.Background()
	org := seedOrganization(t, repos, "Acme")
	other := seedOrganization(t, repos, "Globex")
	p := seedPayroll(t, repos, org.ID, "2024-Q1")

	empty, err := repos.Payrolls.ListByParent(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)

	list, err := repos.Payrolls.ListByParent(ctx, org.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, p.ID, list[0].ID)

	// Update は親を変更しない
	changed := *p
	changed.OrganizationID = other.ID
	changed.Name = "2024-Q2"
	updated, err := repos.Payrolls.Update(ctx, &changed)
	require.NoError(t, err)
	assert.Equal(t, "2024-Q2", updated.Name)
	assert.Equal(t, org.ID, updated.OrganizationID)

	relocated, err := repos.Payrolls.Relocate(ctx, p.ID, other.ID)
	require.NoError(t, err)
	assert.Equal(t, other.ID, relocated.OrganizationID)

	_, err = repos.Payrolls.Relocate(ctx, uuid.NewString(), other.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repos.Payrolls.Delete(ctx, p.ID))
	_, err = repos.Payrolls.Get(ctx, p.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func testDivisions(t *testing.T, repos domain.Repositories) {
	ctx := context.Background()
	org := seedOrganization(t, repos, "Acme")
	p := seedPayroll(t, repos, org.ID, "2024-Q1")
	root := seedDivision(t, repos, p.ID, nil, "Engineering")
	child := seedDivision(t, repos, p.ID, &root.ID, "Backend")
	sibling := seedDivision(t, repos, p.ID, nil, "Sales")

	got, err := repos.Divisions.Get(ctx, child.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ParentDivisionID)
	assert.Equal(t, root.ID, *got.ParentDivisionID)
	assert.Equal(t, "B-1", got.BudgetCode)

	all, err := repos.Divisions.ListByParent(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	children, err := repos.Divisions.ListChildren(ctx, root.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, child.ID, children[0].ID)

	// Update は親を変更しない
	changed := got.Clone()
	changed.ParentDivisionID = &sibling.ID
	changed.Name = "Platform"
	updated, err := repos.Divisions.Update(ctx, changed)
	require.NoError(t, err)
	assert.Equal(t, "Platform", updated.Name)
	require.NotNil(t, updated.ParentDivisionID)
	assert.Equal(t, root.ID, *updated.ParentDivisionID)

	moved, err := repos.Divisions.Reparent(ctx, child.ID, &sibling.ID)
	require.NoError(t, err)
	require.NotNil(t, moved.ParentDivisionID)
	assert.Equal(t, sibling.ID, *moved.ParentDivisionID)

	detached, err := repos.Divisions.Reparent(ctx, child.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, detached.ParentDivisionID)

	_, err = repos.Divisions.Reparent(ctx, uuid.NewString(), nil)
	require.ErrorIs(t, err, domain.ErrNotFound)

	for _, d := range []*domain.Division{child, root, sibling} {
		require.NoError(t, repos.Divisions.Delete(ctx, d.ID))
	}
	remaining, err := repos.Divisions.ListByParent(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func testJobs(t *testing.T, repos domain.Repositories) {
	ctx := context.Background()
	org := seedOrganization(t, repos, "Acme")
	p := seedPayroll(t, repos, org.ID, "2024-Q1")
	j := seedJob(t, repos, p.ID, "Engineer")

	got, err := repos.Jobs.Get(ctx, j.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1234.56").Equal(got.Salary), "salary %s", got.Salary)

	got.Salary = decimal.Zero
	got.Title = "Senior Engineer"
	updated, err := repos.Jobs.Update(ctx, got)
	require.NoError(t, err)
	assert.True(t, updated.Salary.IsZero())
	assert.Equal(t, "Senior Engineer", updated.Title)

	list, err := repos.Jobs.ListByParent(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repos.Jobs.Delete(ctx, j.ID))
	require.ErrorIs(t, repos.Jobs.Delete(ctx, j.ID), domain.ErrNotFound)
}

func testBanks(t *testing.T, repos domain.Repositories) {
	ctx := context.Background()
	org := seedOrganization(t, repos, "Acme")
	b := seedBank(t, repos, org.ID, "First Bank")

	_, err := repos.Banks.Create(ctx, b)
	require.ErrorIs(t, err, domain.ErrConflict)

	b.Name = "Second Bank"
	updated, err := repos.Banks.Update(ctx, b)
	require.NoError(t, err)
	assert.Equal(t, "Second Bank", updated.Name)

	list, err := repos.Banks.ListByParent(ctx, org.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repos.Banks.Delete(ctx, b.ID))
}

func testEmployees(t *testing.T, repos domain.Repositories) {
	ctx := context.Background()
	org := seedOrganization(t, repos, "Acme")
	p := seedPayroll(t, repos, org.ID, "2024-Q1")
	d := seedDivision(t, repos, p.ID, nil, "Engineering")
	j := seedJob(t, repos, p.ID, "Engineer")
	j2 := seedJob(t, repos, p.ID, "Lead")
	b := seedBank(t, repos, org.ID, "First Bank")
	e := seedEmployee(t, repos, d, j.ID, b.ID)

	got, err := repos.Employees.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lovelace", got.LastName)
	assert.True(t, e.HireDate.Equal(got.HireDate))
	assert.Nil(t, got.TerminationDate)

	byDivision, err := repos.Employees.ListByParent(ctx, d.ID)
	require.NoError(t, err)
	assert.Len(t, byDivision, 1)
	byJob, err := repos.Employees.ListByJob(ctx, j.ID)
	require.NoError(t, err)
	assert.Len(t, byJob, 1)
	byBank, err := repos.Employees.ListByBank(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, byBank, 1)

	terminated := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	got.JobID = j2.ID
	got.Hours = 20
	got.TerminationDate = &terminated
	updated, err := repos.Employees.Update(ctx, got)
	require.NoError(t, err)
	assert.Equal(t, j2.ID, updated.JobID)
	assert.Equal(t, 20, updated.Hours)
	require.NotNil(t, updated.TerminationDate)
	assert.True(t, terminated.Equal(*updated.TerminationDate))

	byJob, err = repos.Employees.ListByJob(ctx, j.ID)
	require.NoError(t, err)
	assert.Empty(t, byJob)

	require.NoError(t, repos.Employees.Delete(ctx, e.ID))
	_, err = repos.Employees.Get(ctx, e.ID)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func containsID[T any](items []*T, id string, idOf func(*T) string) bool {
	for _, item := range items {
		if idOf(item) == id {
			return true
		}
	}
	return false
}
