package division

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/ogurasousui/nomina/internal/core/domain"
	"github.com/ogurasousui/nomina/internal/core/hierarchy"
)

// Service は部門に関するユースケースをまとめます。
type Service struct {
	repos     domain.Repositories
	validator *hierarchy.Validator
	clock     domain.Clock
	tx        domain.TransactionManager
	newID     func() string
}

// UseCase は部門ユースケースの公開インターフェースです。
type UseCase interface {
	CreateDivision(ctx context.Context, in CreateDivisionInput) (*domain.Division, error)
	GetDivision(ctx context.Context, in GetDivisionInput) (*domain.Division, error)
	ListDivisions(ctx context.Context, in ListDivisionsInput) ([]*domain.Division, error)
	UpdateDivision(ctx context.Context, in UpdateDivisionInput) (*domain.Division, error)
	DeleteDivision(ctx context.Context, in DeleteDivisionInput) error
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

// CreateDivisionInput は部門作成時の入力です。
type CreateDivisionInput struct {
	PayrollID        string
	ParentDivisionID *string
	Name             string
	Description      string
	BudgetCode       string
}

// GetDivisionInput は部門取得時の入力です。
type GetDivisionInput struct {
	PayrollID string
	ID        string
}

// ListDivisionsInput は一覧取得時の入力です。
type ListDivisionsInput struct {
	PayrollID string
}

// UpdateDivisionInput は部門更新時の入力です。
// ParentDivisionIDSet が true の場合のみ親部門を変更します。ParentDivisionID が nil ならルートになります。
type UpdateDivisionInput struct {
	PayrollID           string
	ID                  string
	Name                *string
	Description         *string
	BudgetCode          *string
	ParentDivisionIDSet bool
	ParentDivisionID    *string
}

func (in UpdateDivisionInput) empty() bool {
	return in.Name == nil && in.Description == nil && in.BudgetCode == nil && !in.ParentDivisionIDSet
}

// DeleteDivisionInput は部門削除時の入力です。
type DeleteDivisionInput struct {
	PayrollID string
	ID        string
}

// CreateDivision は給与台帳配下に部門を作成します。
func (s *Service) CreateDivision(ctx context.Context, in CreateDivisionInput) (*domain.Division, error) {
	if err := requireID("payroll id", in.PayrollID); err != nil {
		return nil, err
	}
	name, err := normalizeName(in.Name)
	if err != nil {
		return nil, err
	}
	parentID, err := normalizeParent(in.ParentDivisionID)
	if err != nil {
		return nil, err
	}

	var created *domain.Division
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.validator.ValidateDivisionParent(txCtx, in.PayrollID, parentID); err != nil {
			return err
		}

		now := s.clock.Now()
		result, err := s.repos.Divisions.Create(txCtx, &domain.Division{
			ID:               s.newID(),
			PayrollID:        in.PayrollID,
			ParentDivisionID: parentID,
			Name:             name,
			Description:      strings.TrimSpace(in.Description),
			BudgetCode:       strings.TrimSpace(in.BudgetCode),
			CreatedAt:        now,
			UpdatedAt:        now,
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

// GetDivision は給与台帳配下の部門を取得します。
func (s *Service) GetDivision(ctx context.Context, in GetDivisionInput) (*domain.Division, error) {
	if err := requireID("id", in.ID); err != nil {
		return nil, err
	}

	var division *domain.Division
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.scoped(txCtx, in.PayrollID, in.ID)
		if err != nil {
			return err
		}
		division = result
		return nil
	}); err != nil {
		return nil, err
	}

	return division, nil
}

// ListDivisions は給与台帳配下の部門を名前順で返します。
func (s *Service) ListDivisions(ctx context.Context, in ListDivisionsInput) ([]*domain.Division, error) {
	if err := requireID("payroll id", in.PayrollID); err != nil {
		return nil, err
	}

	var divisions []*domain.Division
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		if err := s.validator.ValidateDivisionParent(txCtx, in.PayrollID, nil); err != nil {
			return err
		}
		result, err := s.repos.Divisions.ListByParent(txCtx, in.PayrollID)
		if err != nil {
			return err
		}
		divisions = result
		return nil
	}); err != nil {
		return nil, err
	}

	slices.SortFunc(divisions, func(a, b *domain.Division) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return divisions, nil
}

// UpdateDivision は部門を更新します。親部門の変更は ValidateDivisionMove を通した上で Reparent で行います。
func (s *Service) UpdateDivision(ctx context.Context, in UpdateDivisionInput) (*domain.Division, error) {
	if err := requireID("id", in.ID); err != nil {
		return nil, err
	}
	if in.empty() {
		return s.GetDivision(ctx, GetDivisionInput{PayrollID: in.PayrollID, ID: in.ID})
	}

	var name *string
	if in.Name != nil {
		normalized, err := normalizeName(*in.Name)
		if err != nil {
			return nil, err
		}
		name = &normalized
	}
	parentID, err := normalizeParent(in.ParentDivisionID)
	if err != nil {
		return nil, err
	}

	within := s.tx.WithinReadWrite
	if in.ParentDivisionIDSet {
		within = s.tx.WithinSerializable
	}

	var updated *domain.Division
	if err := within(ctx, func(txCtx context.Context) error {
		existing, err := s.scoped(txCtx, in.PayrollID, in.ID)
		if err != nil {
			return err
		}

		if in.ParentDivisionIDSet {
			if err := s.validator.ValidateDivisionMove(txCtx, existing.ID, parentID); err != nil {
				return err
			}
			if !domain.SameString(existing.ParentDivisionID, parentID) {
				moved, err := s.repos.Divisions.Reparent(txCtx, existing.ID, parentID)
				if err != nil {
					return err
				}
				existing = moved
			}
		}

		if name != nil {
			existing.Name = *name
		}
		if in.Description != nil {
			existing.Description = strings.TrimSpace(*in.Description)
		}
		if in.BudgetCode != nil {
			existing.BudgetCode = strings.TrimSpace(*in.BudgetCode)
		}
		existing.UpdatedAt = s.clock.Now()

		result, err := s.repos.Divisions.Update(txCtx, existing)
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

// DeleteDivision は部門を削除します。子部門や従業員が残っている場合は HasDependents を返します。
func (s *Service) DeleteDivision(ctx context.Context, in DeleteDivisionInput) error {
	if err := requireID("id", in.ID); err != nil {
		return err
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if _, err := s.scoped(txCtx, in.PayrollID, in.ID); err != nil {
			return err
		}
		if err := s.validator.ValidateDeletable(txCtx, domain.EntityDivision, in.ID); err != nil {
			return err
		}
		return s.repos.Divisions.Delete(txCtx, in.ID)
	})
}

func (s *Service) scoped(ctx context.Context, payrollID, id string) (*domain.Division, error) {
	division, err := s.repos.Divisions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if payrollID != "" && division.PayrollID != payrollID {
		return nil, domain.NotFound(domain.EntityDivision, id)
	}
	return division, nil
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

func normalizeParent(raw *string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*raw)
	if trimmed == "" {
		return nil, domain.Invalid("parent division id", "cannot be empty")
	}
	return &trimmed, nil
}
