package payroll

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/ogurasousui/nomina/internal/core/domain"
	"github.com/ogurasousui/nomina/internal/core/hierarchy"
)

// Service は給与台帳に関するユースケースをまとめます。
type Service struct {
	repos     domain.Repositories
	validator *hierarchy.Validator
	clock     domain.Clock
	tx        domain.TransactionManager
	newID     func() string
}

// UseCase は給与台帳ユースケースの公開インターフェースです。
type UseCase interface {
	CreatePayroll(ctx context.Context, in CreatePayrollInput) (*domain.Payroll, error)
	GetPayroll(ctx context.Context, in GetPayrollInput) (*domain.Payroll, error)
	ListPayrolls(ctx context.Context, in ListPayrollsInput) ([]*domain.Payroll, error)
	UpdatePayroll(ctx context.Context, in UpdatePayrollInput) (*domain.Payroll, error)
	DeletePayroll(ctx context.Context, in DeletePayrollInput) error
	DeletePayrollCascade(ctx context.Context, in DeletePayrollInput) (*CascadeResult, error)
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

// CreatePayrollInput は給与台帳作成時の入力です。
type CreatePayrollInput struct {
	OrganizationID string
	Name           string
	Description    string
}

// GetPayrollInput は給与台帳取得時の入力です。
type GetPayrollInput struct {
	OrganizationID string
	ID             string
}

// ListPayrollsInput は一覧取得時の入力です。
type ListPayrollsInput struct {
	OrganizationID string
}

// UpdatePayrollInput は給与台帳更新時の入力です。
// NewOrganizationID を指定すると台帳を別の組織へ付け替えます。
type UpdatePayrollInput struct {
	OrganizationID    string
	ID                string
	Name              *string
	Description       *string
	NewOrganizationID *string
}

func (in UpdatePayrollInput) empty() bool {
	return in.Name == nil && in.Description == nil && in.NewOrganizationID == nil
}

// DeletePayrollInput は給与台帳削除時の入力です。
type DeletePayrollInput struct {
	OrganizationID string
	ID             string
}

// CascadeResult は連鎖削除で削除した件数です。
type CascadeResult struct {
	Employees int
	Divisions int
	Jobs      int
}

// CreatePayroll は組織配下に給与台帳を作成します。
func (s *Service) CreatePayroll(ctx context.Context, in CreatePayrollInput) (*domain.Payroll, error) {
	if err := requireID("organization id", in.OrganizationID); err != nil {
		return nil, err
	}
	name, err := normalizeName(in.Name)
	if err != nil {
		return nil, err
	}

	var created *domain.Payroll
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.validator.ValidatePayrollParent(txCtx, in.OrganizationID); err != nil {
			return err
		}

		now := s.clock.Now()
		result, err := s.repos.Payrolls.Create(txCtx, &domain.Payroll{
			ID:             s.newID(),
			OrganizationID: in.OrganizationID,
			Name:           name,
			Description:    strings.TrimSpace(in.Description),
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

// GetPayroll は組織配下の給与台帳を取得します。
func (s *Service) GetPayroll(ctx context.Context, in GetPayrollInput) (*domain.Payroll, error) {
	if err := requireID("id", in.ID); err != nil {
		return nil, err
	}

	var payroll *domain.Payroll
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.scoped(txCtx, in.OrganizationID, in.ID)
		if err != nil {
			return err
		}
		payroll = result
		return nil
	}); err != nil {
		return nil, err
	}

	return payroll, nil
}

// ListPayrolls は組織配下の給与台帳を名前順で返します。
func (s *Service) ListPayrolls(ctx context.Context, in ListPayrollsInput) ([]*domain.Payroll, error) {
	if err := requireID("organization id", in.OrganizationID); err != nil {
		return nil, err
	}

	var payrolls []*domain.Payroll
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		if err := s.validator.ValidatePayrollParent(txCtx, in.OrganizationID); err != nil {
			return err
		}
		result, err := s.repos.Payrolls.ListByParent(txCtx, in.OrganizationID)
		if err != nil {
			return err
		}
		payrolls = result
		return nil
	}); err != nil {
		return nil, err
	}

	slices.SortFunc(payrolls, func(a, b *domain.Payroll) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return payrolls, nil
}

// UpdatePayroll は給与台帳を更新します。組織の付け替えは Relocate で行い、親の検証を再実行します。
func (s *Service) UpdatePayroll(ctx context.Context, in UpdatePayrollInput) (*domain.Payroll, error) {
	if err := requireID("id", in.ID); err != nil {
		return nil, err
	}
	if in.empty() {
		return s.GetPayroll(ctx, GetPayrollInput{OrganizationID: in.OrganizationID, ID: in.ID})
	}

	var name *string
	if in.Name != nil {
		normalized, err := normalizeName(*in.Name)
		if err != nil {
			return nil, err
		}
		name = &normalized
	}
	if in.NewOrganizationID != nil {
		if err := requireID("organization id", *in.NewOrganizationID); err != nil {
			return nil, err
		}
	}

	within := s.tx.WithinReadWrite
	if in.NewOrganizationID != nil {
		within = s.tx.WithinSerializable
	}

	var updated *domain.Payroll
	if err := within(ctx, func(txCtx context.Context) error {
		existing, err := s.scoped(txCtx, in.OrganizationID, in.ID)
		if err != nil {
			return err
		}

		if in.NewOrganizationID != nil && *in.NewOrganizationID != existing.OrganizationID {
			if err := s.validator.ValidatePayrollRelocation(txCtx, existing.ID, *in.NewOrganizationID); err != nil {
				return err
			}
			relocated, err := s.repos.Payrolls.Relocate(txCtx, existing.ID, *in.NewOrganizationID)
			if err != nil {
				return err
			}
			existing = relocated
		}

		if name != nil {
			existing.Name = *name
		}
		if in.Description != nil {
			existing.Description = strings.TrimSpace(*in.Description)
		}
		existing.UpdatedAt = s.clock.Now()

		result, err := s.repos.Payrolls.Update(txCtx, existing)
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

// DeletePayroll は給与台帳を削除します。部門や職務が残っている場合は HasDependents を返します。
func (s *Service) DeletePayroll(ctx context.Context, in DeletePayrollInput) error {
	if err := requireID("id", in.ID); err != nil {
		return err
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if _, err := s.scoped(txCtx, in.OrganizationID, in.ID); err != nil {
			return err
		}
		if err := s.validator.ValidateDeletable(txCtx, domain.EntityPayroll, in.ID); err != nil {
			return err
		}
		return s.repos.Payrolls.Delete(txCtx, in.ID)
	})
}

// DeletePayrollCascade は給与台帳と配下のリソースをまとめて削除します。
// 従業員、部門 (深い順)、職務、台帳の順に 1 つの SERIALIZABLE トランザクション内で削除します。
func (s *Service) DeletePayrollCascade(ctx context.Context, in DeletePayrollInput) (*CascadeResult, error) {
	if err := requireID("id", in.ID); err != nil {
		return nil, err
	}

	result := &CascadeResult{}
	if err := s.tx.WithinSerializable(ctx, func(txCtx context.Context) error {
		*result = CascadeResult{}
		if _, err := s.scoped(txCtx, in.OrganizationID, in.ID); err != nil {
			return err
		}

		divisions, err := s.repos.Divisions.ListByParent(txCtx, in.ID)
		if err != nil {
			return err
		}

		for _, division := range divisions {
			employees, err := s.repos.Employees.ListByParent(txCtx, division.ID)
			if err != nil {
				return err
			}
			for _, employee := range employees {
				if err := s.repos.Employees.Delete(txCtx, employee.ID); err != nil {
					return err
				}
				result.Employees++
			}
		}

		for _, division := range deepestFirst(divisions) {
			if err := s.repos.Divisions.Delete(txCtx, division.ID); err != nil {
				return err
			}
			result.Divisions++
		}

		jobs, err := s.repos.Jobs.ListByParent(txCtx, in.ID)
		if err != nil {
			return err
		}
		for _, job := range jobs {
			if err := s.repos.Jobs.Delete(txCtx, job.ID); err != nil {
				return err
			}
			result.Jobs++
		}

		return s.repos.Payrolls.Delete(txCtx, in.ID)
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// scoped は組織配下の給与台帳を取得します。別組織の台帳は NotFound として扱います。
func (s *Service) scoped(ctx context.Context, organizationID, id string) (*domain.Payroll, error) {
	payroll, err := s.repos.Payrolls.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if organizationID != "" && payroll.OrganizationID != organizationID {
		return nil, domain.NotFound(domain.EntityPayroll, id)
	}
	return payroll, nil
}

// deepestFirst は部門を深さの降順に並べます。深さの計算は部門数で打ち切ります。
func deepestFirst(divisions []*domain.Division) []*domain.Division {
	parents := make(map[string]*string, len(divisions))
	for _, d := range divisions {
		parents[d.ID] = d.ParentDivisionID
	}

	depth := make(map[string]int, len(divisions))
	for _, d := range divisions {
		n := 0
		current := d.ParentDivisionID
		for current != nil && n < len(divisions) {
			n++
			current = parents[*current]
		}
		depth[d.ID] = n
	}

	sorted := slices.Clone(divisions)
	slices.SortStableFunc(sorted, func(a, b *domain.Division) int {
		return cmp.Compare(depth[b.ID], depth[a.ID])
	})
	return sorted
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
