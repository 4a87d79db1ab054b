package bank

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

func newTestService(t *testing.T) (*Service, domain.Repositories) {
	t.Helper()
	repos := memory.NewRepositories()
	for _, id := range []string{"acme", "globex"} {
		if _, err := repos.Organizations.Create(context.Background(), &domain.Organization{ID: id, Name: id}); err != nil {
			t.Fatalf("seed organization: %v", err)
		}
	}
	return NewService(repos, &stubClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}, nil), repos
}

func TestService_CreateBank(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateBank(ctx, CreateBankInput{OrganizationID: "acme", Name: " First Bank "})
	if err != nil {
		t.Fatalf("CreateBank returned error: %v", err)
	}
	if created.Name != "First Bank" || created.OrganizationID != "acme" {
		t.Fatalf("unexpected bank: %+v", created)
	}

	if _, err := svc.CreateBank(ctx, CreateBankInput{OrganizationID: "missing", Name: "x"}); !errors.Is(err, domain.ErrOrganizationNotFound) {
		t.Fatalf("expected ErrOrganizationNotFound, got %v", err)
	}
	if _, err := svc.CreateBank(ctx, CreateBankInput{OrganizationID: "acme", Name: ""}); !errors.Is(err, domain.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestService_GetAndListBanks(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	var first *domain.Bank
	for _, name := range []string{"Zeta", "Alpha"} {
		created, err := svc.CreateBank(ctx, CreateBankInput{OrganizationID: "acme", Name: name})
		if err != nil {
			t.Fatalf("CreateBank error: %v", err)
		}
		if first == nil {
			first = created
		}
	}

	if _, err := svc.GetBank(ctx, GetBankInput{OrganizationID: "globex", ID: first.ID}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign organization, got %v", err)
	}

	banks, err := svc.ListBanks(ctx, ListBanksInput{OrganizationID: "acme"})
	if err != nil {
		t.Fatalf("ListBanks returned error: %v", err)
	}
	if len(banks) != 2 || banks[0].Name != "Alpha" || banks[1].Name != "Zeta" {
		t.Fatalf("unexpected banks: %+v", banks)
	}
}

func TestService_UpdateBank(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateBank(ctx, CreateBankInput{OrganizationID: "acme", Name: "First Bank"})
	if err != nil {
		t.Fatalf("CreateBank error: %v", err)
	}

	same, err := svc.UpdateBank(ctx, UpdateBankInput{OrganizationID: "acme", ID: created.ID})
	if err != nil {
		t.Fatalf("UpdateBank with empty patch returned error: %v", err)
	}
	if *same != *created {
		t.Fatalf("expected unchanged record, got %+v", same)
	}

	name := "Second Bank"
	updated, err := svc.UpdateBank(ctx, UpdateBankInput{OrganizationID: "acme", ID: created.ID, Name: &name})
	if err != nil {
		t.Fatalf("UpdateBank returned error: %v", err)
	}
	if updated.Name != name {
		t.Fatalf("expected name %s, got %s", name, updated.Name)
	}
}

func TestService_DeleteBank(t *testing.T) {
	t.Parallel()

	svc, repos := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateBank(ctx, CreateBankInput{OrganizationID: "acme", Name: "First Bank"})
	if err != nil {
		t.Fatalf("CreateBank error: %v", err)
	}
	if _, err := repos.Employees.Create(ctx, &domain.Employee{ID: "emp", BankID: created.ID}); err != nil {
		t.Fatalf("seed employee: %v", err)
	}

	in := DeleteBankInput{OrganizationID: "acme", ID: created.ID}
	if err := svc.DeleteBank(ctx, in); !errors.Is(err, domain.ErrHasDependents) {
		t.Fatalf("expected ErrHasDependents, got %v", err)
	}
	if err := repos.Employees.Delete(ctx, "emp"); err != nil {
		t.Fatalf("delete employee: %v", err)
	}
	if err := svc.DeleteBank(ctx, in); err != nil {
		t.Fatalf("DeleteBank returned error: %v", err)
	}
	if err := svc.DeleteBank(ctx, in); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
