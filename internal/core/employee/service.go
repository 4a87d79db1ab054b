package employee

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ogurasousui/nomina/internal/core/domain"
	"github.com/ogurasousui/nomina/internal/core/hierarchy"
)

// Status は従業員の在籍状態を表します。
type Status = string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

const maxWeeklyHours = 168

// Service は従業員に関するユースケースをまとめます。
type Service struct {
	repos     domain.Repositories
	validator *hierarchy.Validator
	clock     domain.Clock
	tx        domain.TransactionManager
	newID     func() string
}

// UseCase は従業員ユースケースの公開インターフェースです。
type UseCase interface {
	CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*domain.Employee, error)
	GetEmployee(ctx context.Context, in GetEmployeeInput) (*domain.Employee, error)
	ListEmployees(ctx context.Context, in ListEmployeesInput) ([]*domain.Employee, error)
	UpdateEmployee(ctx context.Context, in UpdateEmployeeInput) (*domain.Employee, error)
	DeleteEmployee(ctx context.Context, in DeleteEmployeeInput) error
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

// CreateEmployeeInput は従業員作成時の入力です。
type CreateEmployeeInput struct {
	DivisionID      string
	JobID           string
	BankID          string
	IDNumber        string
	FirstName       string
	LastName        string
	BankAccount     string
	Status          *Status
	Hours           int
	HireDate        time.Time
	TerminationDate *time.Time
}

// UpdateEmployeeInput は従業員更新時の入力です。
// TerminationDateSet が true の場合のみ退職日を変更します。nil なら退職日を消去します。
type UpdateEmployeeInput struct {
	DivisionID         string
	ID                 string
	JobID              *string
	BankID             *string
	IDNumber           *string
	FirstName          *string
	LastName           *string
	BankAccount        *string
	Status             *Status
	Hours              *int
	HireDate           *time.Time
	TerminationDate    *time.Time
	TerminationDateSet bool
}

func (in UpdateEmployeeInput) empty() bool {
	return in.JobID == nil && in.BankID == nil && in.IDNumber == nil && in.FirstName == nil &&
		in.LastName == nil && in.BankAccount == nil && in.Status == nil && in.Hours == nil &&
		in.HireDate == nil && !in.TerminationDateSet
}

// GetEmployeeInput は従業員取得時の入力です。
type GetEmployeeInput struct {
	DivisionID string
	ID         string
}

// ListEmployeesInput は一覧取得時の入力です。
type ListEmployeesInput struct {
	DivisionID string
}

// DeleteEmployeeInput は従業員削除時の入力です。
type DeleteEmployeeInput struct {
	DivisionID string
	ID         string
}

// CreateEmployee は部門配下に従業員を作成します。
// 職務は部門と同じ給与台帳、銀行は同じ組織に属している必要があります。
func (s *Service) CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*domain.Employee, error) {
	if err := requireID("division id", in.DivisionID); err != nil {
		return nil, err
	}
	if err := requireID("job id", in.JobID); err != nil {
		return nil, err
	}
	if err := requireID("bank id", in.BankID); err != nil {
		return nil, err
	}

	idNumber, err := normalizeField("id number", in.IDNumber)
	if err != nil {
		return nil, err
	}
	firstName, err := normalizeField("first name", in.FirstName)
	if err != nil {
		return nil, err
	}
	lastName, err := normalizeField("last name", in.LastName)
	if err != nil {
		return nil, err
	}
	bankAccount, err := normalizeField("bank account", in.BankAccount)
	if err != nil {
		return nil, err
	}

	status := StatusActive
	if in.Status != nil {
		if !isValidStatus(*in.Status) {
			return nil, domain.Invalid("status", "must be active or inactive")
		}
		status = *in.Status
	}
	if err := validateHours(in.Hours); err != nil {
		return nil, err
	}
	if in.HireDate.IsZero() {
		return nil, domain.Invalid("hire date", "is required")
	}
	hireDate := *normalizeDate(&in.HireDate)
	terminationDate := normalizeDate(in.TerminationDate)
	if err := validateEmploymentPeriod(hireDate, terminationDate); err != nil {
		return nil, err
	}

	var created *domain.Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		division, err := s.validator.ValidateEmployeeReferences(txCtx, in.DivisionID, in.JobID, in.BankID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		result, err := s.repos.Employees.Create(txCtx, &domain.Employee{
			ID:              s.newID(),
			PayrollID:       division.PayrollID,
			DivisionID:      division.ID,
			JobID:           in.JobID,
			BankID:          in.BankID,
			IDNumber:        idNumber,
			FirstName:       firstName,
			LastName:        lastName,
			BankAccount:     bankAccount,
			Status:          status,
			Hours:           in.Hours,
			HireDate:        hireDate,
			TerminationDate: terminationDate,
			CreatedAt:       now,
			UpdatedAt:       now,
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

// GetEmployee は部門配下の従業員を取得します。
func (s *Service) GetEmployee(ctx context.Context, in GetEmployeeInput) (*domain.Employee, error) {
	if err := requireID("id", in.ID); err != nil {
		return nil, err
	}

	var result *domain.Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.scoped(txCtx, in.DivisionID, in.ID)
		if err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// ListEmployees は部門配下の従業員を姓、名の順で返します。
func (s *Service) ListEmployees(ctx context.Context, in ListEmployeesInput) ([]*domain.Employee, error) {
	if err := requireID("division id", in.DivisionID); err != nil {
		return nil, err
	}

	var employees []*domain.Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		if _, err := s.repos.Divisions.Get(txCtx, in.DivisionID); err != nil {
			return domain.AsParentNotFound(err, domain.EntityDivision, in.DivisionID)
		}
		found, err := s.repos.Employees.ListByParent(txCtx, in.DivisionID)
		if err != nil {
			return err
		}
		employees = found
		return nil
	}); err != nil {
		return nil, err
	}

	slices.SortFunc(employees, func(a, b *domain.Employee) int {
		return cmp.Or(
			cmp.Compare(a.LastName, b.LastName),
			cmp.Compare(a.FirstName, b.FirstName),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return employees, nil
}

// UpdateEmployee は従業員情報を更新します。職務か銀行を変更した場合のみ参照の検証を再実行します。
func (s *Service) UpdateEmployee(ctx context.Context, in UpdateEmployeeInput) (*domain.Employee, error) {
	if err := requireID("id", in.ID); err != nil {
		return nil, err
	}
	if in.empty() {
		return s.GetEmployee(ctx, GetEmployeeInput{DivisionID: in.DivisionID, ID: in.ID})
	}

	var updated *domain.Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.scoped(txCtx, in.DivisionID, in.ID)
		if err != nil {
			return err
		}

		if in.JobID != nil || in.BankID != nil {
			jobID, bankID := existing.JobID, existing.BankID
			if in.JobID != nil {
				jobID = strings.TrimSpace(*in.JobID)
			}
			if in.BankID != nil {
				bankID = strings.TrimSpace(*in.BankID)
			}
			if _, err := s.validator.ValidateEmployeeReferences(txCtx, existing.DivisionID, jobID, bankID); err != nil {
				return err
			}
			existing.JobID = jobID
			existing.BankID = bankID
		}

		patches := []struct {
			field  string
			value  *string
			target *string
		}{
			{"id number", in.IDNumber, &existing.IDNumber},
			{"first name", in.FirstName, &existing.FirstName},
			{"last name", in.LastName, &existing.LastName},
			{"bank account", in.BankAccount, &existing.BankAccount},
		}
		for _, patch := range patches {
			if patch.value == nil {
				continue
			}
			value, err := normalizeField(patch.field, *patch.value)
			if err != nil {
				return err
			}
			*patch.target = value
		}

		if in.Status != nil {
			if !isValidStatus(*in.Status) {
				return domain.Invalid("status", "must be active or inactive")
			}
			existing.Status = *in.Status
		}

		if in.Hours != nil {
			if err := validateHours(*in.Hours); err != nil {
				return err
			}
			existing.Hours = *in.Hours
		}

		if in.HireDate != nil {
			existing.HireDate = *normalizeDate(in.HireDate)
		}
		if in.TerminationDateSet {
			existing.TerminationDate = normalizeDate(in.TerminationDate)
		}
		if err := validateEmploymentPeriod(existing.HireDate, existing.TerminationDate); err != nil {
			return err
		}

		existing.UpdatedAt = s.clock.Now()

		result, err := s.repos.Employees.Update(txCtx, existing)
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

// DeleteEmployee は従業員を削除します。
func (s *Service) DeleteEmployee(ctx context.Context, in DeleteEmployeeInput) error {
	if err := requireID("id", in.ID); err != nil {
		return err
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if _, err := s.scoped(txCtx, in.DivisionID, in.ID); err != nil {
			return err
		}
		return s.repos.Employees.Delete(txCtx, in.ID)
	})
}

func (s *Service) scoped(ctx context.Context, divisionID, id string) (*domain.Employee, error) {
	employee, err := s.repos.Employees.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if divisionID != "" && employee.DivisionID != divisionID {
		return nil, domain.NotFound(domain.EntityEmployee, id)
	}
	return employee, nil
}

func requireID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.Invalid(field, "is required")
	}
	return nil
}

func normalizeField(field, raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", domain.Invalid(field, "cannot be empty")
	}
	return trimmed, nil
}

func validateHours(hours int) error {
	if hours < 0 || hours > maxWeeklyHours {
		return domain.Invalid("hours", "must be between 0 and 168")
	}
	return nil
}

func normalizeDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}

	normalized := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &normalized
}

func validateEmploymentPeriod(hireDate time.Time, terminationDate *time.Time) error {
	if terminationDate == nil {
		return nil
	}
	if terminationDate.Before(hireDate) {
		return domain.Invalid("termination date", "cannot be before hire date")
	}
	return nil
}

func isValidStatus(status Status) bool {
	switch status {
	case StatusActive, StatusInactive:
		return true
	default:
		return false
	}
}
