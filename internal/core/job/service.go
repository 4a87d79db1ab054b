package job

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ogurasousui/nomina/internal/core/domain"
	"github.com/ogurasousui/nomina/internal/core/hierarchy"
)

// Service は職務に関するユースケースをまとめます。
type Service struct {
	repos     domain.Repositories
	validator *hierarchy.Validator
	clock     domain.Clock
	tx        domain.TransactionManager
	newID     func() string
}

// UseCase は職務ユースケースの公開インターフェースです。
type UseCase interface {
	CreateJob(ctx context.Context, in CreateJobInput) (*domain.Job, error)
	GetJob(ctx context.Context, in GetJobInput) (*domain.Job, error)
	ListJobs(ctx context.Context, in ListJobsInput) ([]*domain.Job, error)
	UpdateJob(ctx context.Context, in UpdateJobInput) (*domain.Job, error)
	DeleteJob(ctx context.Context, in DeleteJobInput) error
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

// CreateJobInput は職務作成時の入力です。
type CreateJobInput struct {
	PayrollID string
	Title     string
	Salary    decimal.Decimal
}

// GetJobInput は職務取得時の入力です。
type GetJobInput struct {
	PayrollID string
	ID        string
}

// ListJobsInput は一覧取得時の入力です。
type ListJobsInput struct {
	PayrollID string
}

// UpdateJobInput は職務更新時の入力です。
type UpdateJobInput struct {
	PayrollID string
	ID        string
	Title     *string
	Salary    *decimal.Decimal
}

// DeleteJobInput は職務削除時の入力です。
type DeleteJobInput struct {
	PayrollID string
	ID        string
}

// CreateJob は給与台帳配下に職務を作成します。
func (s *Service) CreateJob(ctx context.Context, in CreateJobInput) (*domain.Job, error) {
	if err := requireID("payroll id", in.PayrollID); err != nil {
		return nil, err
	}
	title, err := normalizeTitle(in.Title)
	if err != nil {
		return nil, err
	}
	if err := validateSalary(in.Salary); err != nil {
		return nil, err
	}

	var created *domain.Job
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.validator.ValidateJobParent(txCtx, in.PayrollID); err != nil {
			return err
		}

		now := s.clock.Now()
		result, err := s.repos.Jobs.Create(txCtx, &domain.Job{
			ID:        s.newID(),
			PayrollID: in.PayrollID,
			Title:     title,
			Salary:    in.Salary,
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

// GetJob は給与台帳配下の職務を取得します。
func (s *Service) GetJob(ctx context.Context, in GetJobInput) (*domain.Job, error) {
	if err := requireID("id", in.ID); err != nil {
		return nil, err
	}

	var job *domain.Job
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.scoped(txCtx, in.PayrollID, in.ID)
		if err != nil {
			return err
		}
		job = result
		return nil
	}); err != nil {
		return nil, err
	}

	return job, nil
}

// ListJobs は給与台帳配下の職務を職名順で返します。
func (s *Service) ListJobs(ctx context.Context, in ListJobsInput) ([]*domain.Job, error) {
	if err := requireID("payroll id", in.PayrollID); err != nil {
		return nil, err
	}

	var jobs []*domain.Job
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		if err := s.validator.ValidateJobParent(txCtx, in.PayrollID); err != nil {
			return err
		}
		result, err := s.repos.Jobs.ListByParent(txCtx, in.PayrollID)
		if err != nil {
			return err
		}
		jobs = result
		return nil
	}); err != nil {
		return nil, err
	}

	slices.SortFunc(jobs, func(a, b *domain.Job) int {
		return cmp.Or(cmp.Compare(a.Title, b.Title), cmp.Compare(a.ID, b.ID))
	})
	return jobs, nil
}

// UpdateJob は職務を更新します。変更項目がない場合は保存済みの値をそのまま返します。
func (s *Service) UpdateJob(ctx context.Context, in UpdateJobInput) (*domain.Job, error) {
	if err := requireID("id", in.ID); err != nil {
		return nil, err
	}
	if in.Title == nil && in.Salary == nil {
		return s.GetJob(ctx, GetJobInput{PayrollID: in.PayrollID, ID: in.ID})
	}

	var title *string
	if in.Title != nil {
		normalized, err := normalizeTitle(*in.Title)
		if err != nil {
			return nil, err
		}
		title = &normalized
	}
	if in.Salary != nil {
		if err := validateSalary(*in.Salary); err != nil {
			return nil, err
		}
	}

	var updated *domain.Job
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.scoped(txCtx, in.PayrollID, in.ID)
		if err != nil {
			return err
		}

		if title != nil {
			existing.Title = *title
		}
		if in.Salary != nil {
			existing.Salary = *in.Salary
		}
		existing.UpdatedAt = s.clock.Now()

		result, err := s.repos.Jobs.Update(txCtx, existing)
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

// DeleteJob は職務を削除します。従業員が参照している場合は HasDependents を返します。
func (s *Service) DeleteJob(ctx context.Context, in DeleteJobInput) error {
	if err := requireID("id", in.ID); err != nil {
		return err
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if _, err := s.scoped(txCtx, in.PayrollID, in.ID); err != nil {
			return err
		}
		if err := s.validator.ValidateDeletable(txCtx, domain.EntityJob, in.ID); err != nil {
			return err
		}
		return s.repos.Jobs.Delete(txCtx, in.ID)
	})
}

func (s *Service) scoped(ctx context.Context, payrollID, id string) (*domain.Job, error) {
	job, err := s.repos.Jobs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if payrollID != "" && job.PayrollID != payrollID {
		return nil, domain.NotFound(domain.EntityJob, id)
	}
	return job, nil
}

func requireID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.Invalid(field, "is required")
	}
	return nil
}

func normalizeTitle(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", domain.Invalid("title", "cannot be empty")
	}
	return trimmed, nil
}

func validateSalary(salary decimal.Decimal) error {
	if salary.IsNegative() {
		return domain.Invalid("salary", "cannot be negative")
	}
	return nil
}
