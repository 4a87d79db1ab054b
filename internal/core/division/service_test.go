package division

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ogurasousui/nomina/internal/adapters/repository/memory"
	"github.com/ogurasousui/nomina/internal/core/domain"
)

type stubClock struct {
	now time.Time
}

func (s *stubClock) Now() time.Time {
	return s.now
}

func newTestService(t *testing.T) (*Service, domain.Repositories, *stubClock) {
	t.Helper()
	repos := memory.NewRepositories()
	ctx := context.Background()
	if _, err := repos.Organizations.Create(ctx, &domain.Organization{ID: "acme", Name: "Acme"}); err != nil {
		t.Fatalf("seed organization: %v", err)
	}
	for _, id := range []string{"q1", "q2"} {
		if _, err := repos.Payrolls.Create(ctx, &domain.Payroll{ID: id, OrganizationID: "acme", Name: id}); err != nil {
			t.Fatalf("seed payroll: %v", err)
		}
	}
	clk := &stubClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewService(repos, clk, nil), repos, clk
}

func mustCreate(t *testing.T, svc *Service, payrollID, name string, parent *string) *domain.Division {
	t.Helper()
	created, err := svc.CreateDivision(context.Background(), CreateDivisionInput{PayrollID: payrollID, Name: name, ParentDivisionID: parent})
	if err != nil {
		t.Fatalf("CreateDivision(%s) error: %v", name, err)
	}
	return created
}

func TestService_CreateDivision_Success(t *testing.T) {
	t.Parallel()

	svc, _, clk := newTestService(t)

	root := mustCreate(t, svc, "q1", "Engineering", nil)
	child, err := svc.CreateDivision(context.Background(), CreateDivisionInput{
		PayrollID:        "q1",
		ParentDivisionID: &root.ID,
		Name:             " Backend ",
		BudgetCode:       " ENG-01 ",
	})
	if err != nil {
		t.Fatalf("CreateDivision returned error: %v", err)
	}

	if child.ParentDivisionID == nil || *child.ParentDivisionID != root.ID {
		t.Fatalf("expected parent %s, got %v", root.ID, child.ParentDivisionID)
	}
	if child.Name != "Backend" || child.BudgetCode != "ENG-01" {
		t.Fatalf("expected trimmed fields, got %q / %q", child.Name, child.BudgetCode)
	}
	if !child.CreatedAt.Equal(clk.now) {
		t.Fatalf("expected created timestamp to match clock, got %v", child.CreatedAt)
	}
}

func TestService_CreateDivision_ParentErrors(t *testing.T) {
	t.Parallel()

	svc, repos, _ := newTestService(t)
	ctx := context.Background()
	other := mustCreate(t, svc, "q2", "Other", nil)

	missing := "missing"
	blank := "  "
	tests := []struct {
		name string
		in   CreateDivisionInput
		want error
	}{
		{"missing payroll", CreateDivisionInput{PayrollID: "missing", Name: "x"}, domain.ErrPayrollNotFound},
		{"missing parent", CreateDivisionInput{PayrollID: "q1", Name: "x", ParentDivisionID: &missing}, domain.ErrDivisionNotFound},
		{"cross payroll parent", CreateDivisionInput{PayrollID: "q1", Name: "x", ParentDivisionID: &other.ID}, domain.ErrCrossPayrollParent},
		{"blank parent", CreateDivisionInput{PayrollID: "q1", Name: "x", ParentDivisionID: &blank}, domain.ErrInvalid},
		{"blank name", CreateDivisionInput{PayrollID: "q1", Name: " "}, domain.ErrInvalid},
	}

	for _, tt := range tests {
		if _, err := svc.CreateDivision(ctx, tt.in); !errors.Is(err, tt.want) {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}

	divisions, err := repos.Divisions.ListByParent(ctx, "q1")
	if err != nil {
		t.Fatalf("ListByParent error: %v", err)
	}
	if len(divisions) != 0 {
		t.Fatalf("expected no write, got %d divisions", len(divisions))
	}
}

func TestService_GetDivision_Scoped(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()
	created := mustCreate(t, svc, "q1", "Engineering", nil)

	if _, err := svc.GetDivision(ctx, GetDivisionInput{PayrollID: "q1", ID: created.ID}); err != nil {
		t.Fatalf("GetDivision returned error: %v", err)
	}
	if _, err := svc.GetDivision(ctx, GetDivisionInput{PayrollID: "q2", ID: created.ID}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign payroll, got %v", err)
	}
}

func TestService_ListDivisions(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()
	mustCreate(t, svc, "q1", "Sales", nil)
	mustCreate(t, svc, "q1", "Engineering", nil)
	mustCreate(t, svc, "q2", "Other", nil)

	divisions, err := svc.ListDivisions(ctx, ListDivisionsInput{PayrollID: "q1"})
	if err != nil {
		t.Fatalf("ListDivisions returned error: %v", err)
	}
	if len(divisions) != 2 || divisions[0].Name != "Engineering" || divisions[1].Name != "Sales" {
		t.Fatalf("unexpected divisions: %+v", divisions)
	}

	if _, err := svc.ListDivisions(ctx, ListDivisionsInput{PayrollID: "missing"}); !errors.Is(err, domain.ErrPayrollNotFound) {
		t.Fatalf("expected ErrPayrollNotFound, got %v", err)
	}
}

func TestService_UpdateDivision_EmptyPatch(t *testing.T) {
	t.Parallel()

	svc, _, clk := newTestService(t)
	ctx := context.Background()
	root := mustCreate(t, svc, "q1", "Engineering", nil)
	child := mustCreate(t, svc, "q1", "Backend", &root.ID)
	clk.now = clk.now.Add(time.Hour)

	got, err := svc.UpdateDivision(ctx, UpdateDivisionInput{PayrollID: "q1", ID: child.ID})
	if err != nil {
		t.Fatalf("UpdateDivision returned error: %v", err)
	}
	if got.Name != child.Name || !domain.SameString(got.ParentDivisionID, child.ParentDivisionID) || !got.UpdatedAt.Equal(child.UpdatedAt) {
		t.Fatalf("expected unchanged record, got %+v", got)
	}
}

func TestService_UpdateDivision_RenameSkipsHierarchy(t *testing.T) {
	t.Parallel()

	svc, repos, clk := newTestService(t)
	ctx := context.Background()
	root := mustCreate(t, svc, "q1", "Engineering", nil)
	child := mustCreate(t, svc, "q1", "Backend", &root.ID)

	// 親子を壊しても名前の変更は階層検証を行わない
	if _, err := repos.Divisions.Reparent(ctx, root.ID, &child.ID); err != nil {
		t.Fatalf("Reparent error: %v", err)
	}
	clk.now = clk.now.Add(time.Hour)

	name := "Platform"
	updated, err := svc.UpdateDivision(ctx, UpdateDivisionInput{PayrollID: "q1", ID: child.ID, Name: &name})
	if err != nil {
		t.Fatalf("UpdateDivision returned error: %v", err)
	}
	if updated.Name != "Platform" || !updated.UpdatedAt.Equal(clk.now) {
		t.Fatalf("unexpected updated division: %+v", updated)
	}
	if updated.ParentDivisionID == nil || *updated.ParentDivisionID != root.ID {
		t.Fatalf("expected parent to stay %s, got %v", root.ID, updated.ParentDivisionID)
	}
}

func TestService_UpdateDivision_Move(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()
	eng := mustCreate(t, svc, "q1", "Engineering", nil)
	sales := mustCreate(t, svc, "q1", "Sales", nil)
	backend := mustCreate(t, svc, "q1", "Backend", &eng.ID)
	api := mustCreate(t, svc, "q1", "API", &backend.ID)
	other := mustCreate(t, svc, "q2", "Other", nil)

	tests := []struct {
		name   string
		id     string
		parent *string
		want   error
	}{
		{"self parent", eng.ID, &eng.ID, domain.ErrSelfParent},
		{"direct descendant", eng.ID, &backend.ID, domain.ErrCycleDetected},
		{"deep descendant", eng.ID, &api.ID, domain.ErrCycleDetected},
		{"cross payroll", backend.ID, &other.ID, domain.ErrCrossPayrollParent},
	}
	for _, tt := range tests {
		_, err := svc.UpdateDivision(ctx, UpdateDivisionInput{PayrollID: "q1", ID: tt.id, ParentDivisionIDSet: true, ParentDivisionID: tt.parent})
		if !errors.Is(err, tt.want) {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}

	moved, err := svc.UpdateDivision(ctx, UpdateDivisionInput{PayrollID: "q1", ID: backend.ID, ParentDivisionIDSet: true, ParentDivisionID: &sales.ID})
	if err != nil {
		t.Fatalf("UpdateDivision move returned error: %v", err)
	}
	if moved.ParentDivisionID == nil || *moved.ParentDivisionID != sales.ID {
		t.Fatalf("expected parent %s, got %v", sales.ID, moved.ParentDivisionID)
	}

	detached, err := svc.UpdateDivision(ctx, UpdateDivisionInput{PayrollID: "q1", ID: backend.ID, ParentDivisionIDSet: true})
	if err != nil {
		t.Fatalf("UpdateDivision detach returned error: %v", err)
	}
	if detached.ParentDivisionID != nil {
		t.Fatalf("expected root division, got parent %v", *detached.ParentDivisionID)
	}
}

func TestService_DeleteDivision(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()
	root := mustCreate(t, svc, "q1", "Engineering", nil)
	child := mustCreate(t, svc, "q1", "Backend", &root.ID)

	if err := svc.DeleteDivision(ctx, DeleteDivisionInput{PayrollID: "q1", ID: root.ID}); !errors.Is(err, domain.ErrHasDependents) {
		t.Fatalf("expected ErrHasDependents, got %v", err)
	}
	if err := svc.DeleteDivision(ctx, DeleteDivisionInput{PayrollID: "q2", ID: child.ID}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign payroll, got %v", err)
	}
	if err := svc.DeleteDivision(ctx, DeleteDivisionInput{PayrollID: "q1", ID: child.ID}); err != nil {
		t.Fatalf("DeleteDivision returned error: %v", err)
	}
	if err := svc.DeleteDivision(ctx, DeleteDivisionInput{PayrollID: "q1", ID: root.ID}); err != nil {
		t.Fatalf("DeleteDivision returned error: %v", err)
	}
	if _, err := svc.GetDivision(ctx, GetDivisionInput{PayrollID: "q1", ID: root.ID}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

type recordingTx struct {
	domain.NoopTransactionManager
	serializable int
	readWrite    int
}

func (r *recordingTx) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	r.readWrite++
	return fn(ctx)
}

func (r *recordingTx) WithinSerializable(ctx context.Context, fn func(context.Context) error) error {
	r.serializable++
	return fn(ctx)
}

func TestService_UpdateDivision_MoveRunsSerializable(t *testing.T) {
	t.Parallel()

	base, repos, clk := newTestService(t)
	eng := mustCreate(t, base, "q1", "Engineering", nil)
	backend := mustCreate(t, base, "q1", "Backend", nil)

	tx := &recordingTx{}
	svc := NewService(repos, clk, tx)
	ctx := context.Background()

	name := "Platform"
	if _, err := svc.UpdateDivision(ctx, UpdateDivisionInput{PayrollID: "q1", ID: backend.ID, Name: &name}); err != nil {
		t.Fatalf("rename error: %v", err)
	}
	if tx.serializable != 0 || tx.readWrite != 1 {
		t.Fatalf("rename should run read-write, got serializable=%d readWrite=%d", tx.serializable, tx.readWrite)
	}

	if _, err := svc.UpdateDivision(ctx, UpdateDivisionInput{PayrollID: "q1", ID: backend.ID, ParentDivisionIDSet: true, ParentDivisionID: &eng.ID}); err != nil {
		t.Fatalf("move error: %v", err)
	}
	if tx.serializable != 1 {
		t.Fatalf("move should run serializable, got %d", tx.serializable)
	}
}
