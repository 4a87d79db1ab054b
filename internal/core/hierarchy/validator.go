package hierarchy

import (
	"context"

	"github.com/ogurasousui/nomina/internal/core/domain"
)

// Validator は書き込み前に包含関係と部門ツリーの不変条件を検証します。
// リポジトリは読み取りにのみ使用し、状態を変更しません。
// グラフの形は呼び出しごとに読み直し、キャッシュしません。
type Validator struct {
	repos domain.Repositories
}

// NewValidator は Validator を生成します。
func NewValidator(repos domain.Repositories) *Validator {
	return &Validator{repos: repos}
}

// ValidatePayrollParent は給与台帳の親組織が存在することを確認します。
func (v *Validator) ValidatePayrollParent(ctx context.Context, organizationID string) error {
	return v.requireOrganization(ctx, organizationID)
}

// ValidatePayrollRelocation は給与台帳を別組織へ付け替えられるかを検証します。
// 台帳内の従業員が参照する銀行は移動先の組織に属している必要があります。
func (v *Validator) ValidatePayrollRelocation(ctx context.Context, payrollID, organizationID string) error {
	if err := v.requireOrganization(ctx, organizationID); err != nil {
		return err
	}
	if _, err := v.requirePayroll(ctx, payrollID); err != nil {
		return err
	}

	divisions, err := v.repos.Divisions.ListByParent(ctx, payrollID)
	if err != nil {
		return err
	}
	for _, division := range divisions {
		employees, err := v.repos.Employees.ListByParent(ctx, division.ID)
		if err != nil {
			return err
		}
		for _, employee := range employees {
			bank, err := v.repos.Banks.Get(ctx, employee.BankID)
			if err != nil {
				return domain.AsParentNotFound(err, domain.EntityBank, employee.BankID)
			}
			if bank.OrganizationID != organizationID {
				return &domain.Error{
					Kind:    domain.KindCrossScopeReference,
					Entity:  domain.EntityBank,
					ID:      bank.ID,
					Message: "employees reference a bank outside the target organization",
				}
			}
		}
	}
	return nil
}

// ValidateBankParent は銀行の親組織が存在することを確認します。
func (v *Validator) ValidateBankParent(ctx context.Context, organizationID string) error {
	return v.requireOrganization(ctx, organizationID)
}

// ValidateJobParent は職務の親給与台帳が存在することを確認します。
func (v *Validator) ValidateJobParent(ctx context.Context, payrollID string) error {
	_, err := v.requirePayroll(ctx, payrollID)
	return err
}

// ValidateDivisionParent は部門作成時の親子関係を検証します。
func (v *Validator) ValidateDivisionParent(ctx context.Context, payrollID string, parentDivisionID *string) error {
	if _, err := v.requirePayroll(ctx, payrollID); err != nil {
		return err
	}
	if parentDivisionID == nil {
		return nil
	}
	_, err := v.requireDivisionInPayroll(ctx, *parentDivisionID, payrollID)
	return err
}

// ValidateDivisionMove は部門の付け替えが森の不変条件を保つかを検証します。
func (v *Validator) ValidateDivisionMove(ctx context.Context, divisionID string, newParentDivisionID *string) error {
	division, err := v.repos.Divisions.Get(ctx, divisionID)
	if err != nil {
		return domain.AsParentNotFound(err, domain.EntityDivision, divisionID)
	}

	if err := v.ValidateDivisionParent(ctx, division.PayrollID, newParentDivisionID); err != nil {
		return err
	}
	if newParentDivisionID == nil {
		return nil
	}
	if *newParentDivisionID == divisionID {
		return domain.ErrSelfParent
	}

	return v.ensureNotAncestor(ctx, divisionID, *newParentDivisionID, division.PayrollID)
}

// ensureNotAncestor は startID から親をたどり、divisionID に到達した場合に CycleDetected を返します。
// 走査回数は台帳内の部門数で打ち切るため、壊れたグラフでも必ず停止します。
func (v *Validator) ensureNotAncestor(ctx context.Context, divisionID, startID, payrollID string) error {
	divisions, err := v.repos.Divisions.ListByParent(ctx, payrollID)
	if err != nil {
		return err
	}
	bound := len(divisions)

	currentID := startID
	for steps := 0; ; steps++ {
		if currentID == divisionID {
			return domain.ErrCycleDetected
		}
		if steps > bound {
			return domain.ErrCycleDetected
		}

		current, err := v.repos.Divisions.Get(ctx, currentID)
		if err != nil {
			if domain.KindOf(err) == domain.KindNotFound {
				// 親が消えている場合はそこをルートとみなす
				return nil
			}
			return err
		}
		if current.ParentDivisionID == nil {
			return nil
		}
		currentID = *current.ParentDivisionID
	}
}

// ValidateEmployeeReferences は従業員が参照する部門・職務・銀行の整合性を検証します。
// 職務は部門と同じ給与台帳、銀行は給与台帳と同じ組織に属している必要があります。
func (v *Validator) ValidateEmployeeReferences(ctx context.Context, divisionID, jobID, bankID string) (*domain.Division, error) {
	division, err := v.repos.Divisions.Get(ctx, divisionID)
	if err != nil {
		return nil, domain.AsParentNotFound(err, domain.EntityDivision, divisionID)
	}

	payroll, err := v.requirePayroll(ctx, division.PayrollID)
	if err != nil {
		return nil, err
	}

	job, err := v.repos.Jobs.Get(ctx, jobID)
	if err != nil {
		return nil, domain.AsParentNotFound(err, domain.EntityJob, jobID)
	}
	if job.PayrollID != division.PayrollID {
		return nil, &domain.Error{
			Kind:    domain.KindCrossScopeReference,
			Entity:  domain.EntityJob,
			ID:      jobID,
			Message: "job must belong to the division's payroll",
		}
	}

	bank, err := v.repos.Banks.Get(ctx, bankID)
	if err != nil {
		return nil, domain.AsParentNotFound(err, domain.EntityBank, bankID)
	}
	if bank.OrganizationID != payroll.OrganizationID {
		return nil, &domain.Error{
			Kind:    domain.KindCrossScopeReference,
			Entity:  domain.EntityBank,
			ID:      bankID,
			Message: "bank must belong to the payroll's organization",
		}
	}

	return division, nil
}

// ValidateDeletable は依存リソースが残っていないことを確認します。
// 連鎖削除は行わず、依存がある場合は HasDependents を返します。
func (v *Validator) ValidateDeletable(ctx context.Context, kind domain.EntityKind, id string) error {
	switch kind {
	case domain.EntityOrganization:
		if err := v.requireOrganization(ctx, id); err != nil {
			return err
		}
		payrolls, err := v.repos.Payrolls.ListByParent(ctx, id)
		if err != nil {
			return err
		}
		if len(payrolls) > 0 {
			return domain.HasDependents(kind, id, domain.EntityPayroll)
		}
		banks, err := v.repos.Banks.ListByParent(ctx, id)
		if err != nil {
			return err
		}
		if len(banks) > 0 {
			return domain.HasDependents(kind, id, domain.EntityBank)
		}
		return nil

	case domain.EntityPayroll:
		if _, err := v.requirePayroll(ctx, id); err != nil {
			return err
		}
		divisions, err := v.repos.Divisions.ListByParent(ctx, id)
		if err != nil {
			return err
		}
		if len(divisions) > 0 {
			return domain.HasDependents(kind, id, domain.EntityDivision)
		}
		jobs, err := v.repos.Jobs.ListByParent(ctx, id)
		if err != nil {
			return err
		}
		if len(jobs) > 0 {
			return domain.HasDependents(kind, id, domain.EntityJob)
		}
		return nil

	case domain.EntityDivision:
		if _, err := v.repos.Divisions.Get(ctx, id); err != nil {
			return domain.AsParentNotFound(err, kind, id)
		}
		children, err := v.repos.Divisions.ListChildren(ctx, id)
		if err != nil {
			return err
		}
		if len(children) > 0 {
			return domain.HasDependents(kind, id, domain.EntityDivision)
		}
		employees, err := v.repos.Employees.ListByParent(ctx, id)
		if err != nil {
			return err
		}
		if len(employees) > 0 {
			return domain.HasDependents(kind, id, domain.EntityEmployee)
		}
		return nil

	case domain.EntityJob:
		if _, err := v.repos.Jobs.Get(ctx, id); err != nil {
			return domain.AsParentNotFound(err, kind, id)
		}
		employees, err := v.repos.Employees.ListByJob(ctx, id)
		if err != nil {
			return err
		}
		if len(employees) > 0 {
			return domain.HasDependents(kind, id, domain.EntityEmployee)
		}
		return nil

	case domain.EntityBank:
		if _, err := v.repos.Banks.Get(ctx, id); err != nil {
			return domain.AsParentNotFound(err, kind, id)
		}
		employees, err := v.repos.Employees.ListByBank(ctx, id)
		if err != nil {
			return err
		}
		if len(employees) > 0 {
			return domain.HasDependents(kind, id, domain.EntityEmployee)
		}
		return nil

	case domain.EntityEmployee:
		_, err := v.repos.Employees.Get(ctx, id)
		return err

	default:
		return domain.Invalid("entity kind", "is not supported")
	}
}

func (v *Validator) requireOrganization(ctx context.Context, organizationID string) error {
	if _, err := v.repos.Organizations.Get(ctx, organizationID); err != nil {
		return domain.AsParentNotFound(err, domain.EntityOrganization, organizationID)
	}
	return nil
}

func (v *Validator) requirePayroll(ctx context.Context, payrollID string) (*domain.Payroll, error) {
	payroll, err := v.repos.Payrolls.Get(ctx, payrollID)
	if err != nil {
		return nil, domain.AsParentNotFound(err, domain.EntityPayroll, payrollID)
	}
	return payroll, nil
}

func (v *Validator) requireDivisionInPayroll(ctx context.Context, divisionID, payrollID string) (*domain.Division, error) {
	division, err := v.repos.Divisions.Get(ctx, divisionID)
	if err != nil {
		return nil, domain.AsParentNotFound(err, domain.EntityDivision, divisionID)
	}
	if division.PayrollID != payrollID {
		return nil, domain.ErrCrossPayrollParent
	}
	return division, nil
}
