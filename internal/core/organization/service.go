package organization

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/ogurasousui/nomina/internal/core/domain"
	"github.com/ogurasousui/nomina/internal/core/hierarchy"
)

// Service は組織に関するユースケースをまとめます。
type Service struct {
	repos     domain.Repositories
	validator *hierarchy.Validator
	clock     domain.Clock
	tx        domain.TransactionManager
	newID     func() string
}

// UseCase は組織ユースケースの公開インターフェースです。
type UseCase interface {
	CreateOrganization(ctx context.Context, in CreateOrganizationInput) (*domain.Organization, error)
	GetOrganization(ctx context.Context, in GetOrganizationInput) (*domain.Organization, error)
	ListOrganizations(ctx context.Context) ([]*domain.Organization, error)
	UpdateOrganization(ctx context.Context, in UpdateOrganizationInput) (*domain.Organization, error)
	DeleteOrganization(ctx context.Context, in DeleteOrganizationInput) error
}

// NewService は Service を生成します。
func NewService(repos domain.Repositories, clock domain.Clock, tx domain.TransactionManager) *Service {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if tx == nil {
		tx = domain.NoopTransactionManager{}
	}
	return &Service{
		repos:     repos,
		validator: hierarchy.NewValidator(repos),
		clock:     clock,
		tx:        tx,
		newID:     uuid.NewString,
	}
}

// CreateOrganizationInput は組織作成時の入力です。
type CreateOrganizationInput struct {
	Name string
}

// GetOrganizationInput は組織取得時の入力です。
type GetOrganizationInput struct {
	ID string
}

// UpdateOrganizationInput は組織更新時の入力です。
type UpdateOrganizationInput struct {
	ID   string
	Name *string
}

// DeleteOrganizationInput は組織削除時の入力です。
type DeleteOrganizationInput struct {
	ID string
}

// CreateOrganization は新しい組織を作成します。
func (s *Service) CreateOrganization(ctx context.Context, in CreateOrganizationInput) (*domain.Organization, error) {
	name, err := normalizeName(in.Name)
	if err != nil {
		return nil, err
	}

	var created *domain.Organization
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		now := s.clock.Now()
		result, err := s.repos.Organizations.Create(txCtx, &domain.Organization{
			ID:        s.newID(),
			Name:      name,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return err
		}
		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// GetOrganization は ID で組織を取得します。
func (s *Service) GetOrganization(ctx context.Context, in GetOrganizationInput) (*domain.Organization, error) {
	if err := requireID(in.ID); err != nil {
		return nil, err
	}

	var org *domain.Organization
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repos.Organizations.Get(txCtx, in.ID)
		if err != nil {
			return err
		}
		org = result
		return nil
	}); err != nil {
		return nil, err
	}

	return org, nil
}

// ListOrganizations は組織を名前順で返します。
func (s *Service) ListOrganizations(ctx context.Context) ([]*domain.Organization, error) {
	var orgs []*domain.Organization
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repos.Organizations.List(txCtx)
		if err != nil {
			return err
		}
		orgs = result
		return nil
	}); err != nil {
		return nil, err
	}

	slices.SortFunc(orgs, func(a, b *domain.Organization) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return orgs, nil
}

// UpdateOrganization は組織名を更新します。変更項目がない場合は保存済みの値をそのまま返します。
func (s *Service) UpdateOrganization(ctx context.Context, in UpdateOrganizationInput) (*domain.Organization, error) {
	if err := requireID(in.ID); err != nil {
		return nil, err
	}
	if in.Name == nil {
		return s.GetOrganization(ctx, GetOrganizationInput{ID: in.ID})
	}

	name, err := normalizeName(*in.Name)
	if err != nil {
		return nil, err
	}

	var updated *domain.Organization
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repos.Organizations.Get(txCtx, in.ID)
		if err != nil {
			return err
		}

		existing.Name = name
		existing.UpdatedAt = s.clock.Now()

		result, err := s.repos.Organizations.Update(txCtx, existing)
		if err != nil {
			return err
		}
		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	return updated, nil
}

// DeleteOrganization は組織を削除します。給与台帳や銀行が残っている場合は HasDependents を返します。
func (s *Service) DeleteOrganization(ctx context.Context, in DeleteOrganizationInput) error {
	if err := requireID(in.ID); err != nil {
		return err
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.validator.ValidateDeletable(txCtx, domain.EntityOrganization, in.ID); err != nil {
			return err
		}
		return s.repos.Organizations.Delete(txCtx, in.ID)
	})
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.Invalid("id", "is required")
	}
	return nil
}

func normalizeName(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", domain.Invalid("name", "cannot be empty")
	}
	return trimmed, nil
}
