package bank

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/ogurasousui/nomina/internal/core/domain"
	"github.com/ogurasousui/nomina/internal/core/hierarchy"
)

// Service は振込先銀行に関するユースケースをまとめます。
type Service struct {
	repos     domain.Repositories
	validator *hierarchy.Validator
	clock     domain.Clock
	tx        domain.TransactionManager
	newID     func() string
}

// UseCase は銀行ユースケースの公開インターフェースです。
type UseCase interface {
	CreateBank(ctx context.Context, in CreateBankInput) (*domain.Bank, error)
	GetBank(ctx context.Context, in GetBankInput) (*domain.Bank, error)
	ListBanks(ctx context.Context, in ListBanksInput) ([]*domain.Bank, error)
	UpdateBank(ctx context.Context, in UpdateBankInput) (*domain.Bank, error)
	DeleteBank(ctx context.Context, in DeleteBankInput) error
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

// CreateBankInput は銀行作成時の入力です。
type CreateBankInput struct {
	OrganizationID string
	Name           string
}

// GetBankInput は銀行取得時の入力です。
type GetBankInput struct {
	OrganizationID string
	ID             string
}

// ListBanksInput は一覧取得時の入力です。
type ListBanksInput struct {
	OrganizationID string
}

// UpdateBankInput は銀行更新時の入力です。
type UpdateBankInput struct {
	OrganizationID string
	ID             string
	Name           *string
}

// DeleteBankInput は銀行削除時の入力です。
type DeleteBankInput struct {
	OrganizationID string
	ID             string
}

// CreateBank は組織配下に銀行を作成します。
func (s *Service) CreateBank(ctx context.Context, in CreateBankInput) (*domain.Bank, error) {
	if err := requireID("organization id", in.OrganizationID); err != nil {
		return nil, err
	}
	name, err := normalizeName(in.Name)
	if err != nil {
		return nil, err
	}

	var created *domain.Bank
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.validator.ValidateBankParent(txCtx, in.OrganizationID); err != nil {
			return err
		}

		now := s.clock.Now()
		result, err := s.repos.Banks.Create(txCtx, &domain.Bank{
			ID:             s.newID(),
			OrganizationID: in.OrganizationID,
			Name:           name,
			CreatedAt:      now,
			UpdatedAt:      now,
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

// GetBank は組織配下の銀行を取得します。
func (s *Service) GetBank(ctx context.Context, in GetBankInput) (*domain.Bank, error) {
	if err := requireID("id", in.ID); err != nil {
		return nil, err
	}

	var bank *domain.Bank
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.scoped(txCtx, in.OrganizationID, in.ID)
		if err != nil {
			return err
		}
		bank = result
		return nil
	}); err != nil {
		return nil, err
	}

	return bank, nil
}

// ListBanks は組織配下の銀行を名前順で返します。
func (s *Service) ListBanks(ctx context.Context, in ListBanksInput) ([]*domain.Bank, error) {
	if err := requireID("organization id", in.OrganizationID); err != nil {
		return nil, err
	}

	var banks []*domain.Bank
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		if err := s.validator.ValidateBankParent(txCtx, in.OrganizationID); err != nil {
			return err
		}
		result, err := s.repos.Banks.ListByParent(txCtx, in.OrganizationID)
		if err != nil {
			return err
		}
		banks = result
		return nil
	}); err != nil {
		return nil, err
	}

	slices.SortFunc(banks, func(a, b *domain.Bank) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return banks, nil
}

// UpdateBank は銀行名を更新します。
func (s *Service) UpdateBank(ctx context.Context, in UpdateBankInput) (*domain.Bank, error) {
	if err := requireID("id", in.ID); err != nil {
		return nil, err
	}
	if in.Name == nil {
		return s.GetBank(ctx, GetBankInput{OrganizationID: in.OrganizationID, ID: in.ID})
	}
	name, err := normalizeName(*in.Name)
	if err != nil {
		return nil, err
	}

	var updated *domain.Bank
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.scoped(txCtx, in.OrganizationID, in.ID)
		if err != nil {
			return err
		}
		existing.Name = name
		existing.UpdatedAt = s.clock.Now()

		result, err := s.repos.Banks.Update(txCtx, existing)
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

// DeleteBank は銀行を削除します。従業員が参照している場合は HasDependents を返します。
func (s *Service) DeleteBank(ctx context.Context, in DeleteBankInput) error {
	if err := requireID("id", in.ID); err != nil {
		return err
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if _, err := s.scoped(txCtx, in.OrganizationID, in.ID); err != nil {
			return err
		}
		if err := s.validator.ValidateDeletable(txCtx, domain.EntityBank, in.ID); err != nil {
			return err
		}
		return s.repos.Banks.Delete(txCtx, in.ID)
	})
}

func (s *Service) scoped(ctx context.Context, organizationID, id string) (*domain.Bank, error) {
	bank, err := s.repos.Banks.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if organizationID != "" && bank.OrganizationID != organizationID {
		return nil, domain.NotFound(domain.EntityBank, id)
	}
	return bank, nil
}

func requireID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.Invalid(field, "is required")
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
