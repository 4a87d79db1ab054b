package domain

import "context"

// Store はすべてのエンティティに共通する永続化操作です。
//
// Create は ID 重複時に Conflict、Get/Update/Delete は存在しない場合に NotFound を返します。
// Update は ID と親への参照を変更しません。Delete は連鎖削除を行いません。
type Store[T any] interface {
	Create(ctx context.Context, record *T) (*T, error)
	Get(ctx context.Context, id string) (*T, error)
	Update(ctx context.Context, record *T) (*T, error)
	Delete(ctx context.Context, id string) error
}

// OrganizationRepository は組織の永続化を行います。
type OrganizationRepository interface {
	Store[Organization]
	List(ctx context.Context) ([]*Organization, error)
}

// PayrollRepository は給与台帳の永続化を行います。
type PayrollRepository interface {
	Store[Payroll]
	ListByParent(ctx context.Context, organizationID string) ([]*Payroll, error)
	// Relocate は給与台帳を別の組織へ付け替えます。
	Relocate(ctx context.Context, id, organizationID string) (*Payroll, error)
}

// DivisionRepository は部門の永続化を行います。
type DivisionRepository interface {
	Store[Division]
	ListByParent(ctx context.Context, payrollID string) ([]*Division, error)
	ListChildren(ctx context.Context, divisionID string) ([]*Division, error)
	// Reparent は親部門を差し替えます。nil の場合はルートになります。
	Reparent(ctx context.Context, id string, parentDivisionID *string) (*Division, error)
}

// JobRepository は職務の永続化を行います。
type JobRepository interface {
	Store[Job]
	ListByParent(ctx context.Context, payrollID string) ([]*Job, error)
}

// BankRepository は銀行の永続化を行います。
type BankRepository interface {
	Store[Bank]
	ListByParent(ctx context.Context, organizationID string) ([]*Bank, error)
}

// EmployeeRepository は従業員の永続化を行います。
type EmployeeRepository interface {
	Store[Employee]
	ListByParent(ctx context.Context, divisionID string) ([]*Employee, error)
	ListByJob(ctx context.Context, jobID string) ([]*Employee, error)
	ListByBank(ctx context.Context, bankID string) ([]*Employee, error)
}

// Repositories は全エンティティのリポジトリを束ねます。
type Repositories struct {
	Organizations OrganizationRepository
	Payrolls      PayrollRepository
	Divisions     DivisionRepository
	Jobs          JobRepository
	Banks         BankRepository
	Employees     EmployeeRepository
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
	// WithinSerializable は部門の付け替えのようにツリーの形を変える書き込みに使います。
	// 実装は直列化失敗時に fn を再実行することがあるため、fn は冪等でなければなりません。
	WithinSerializable(ctx context.Context, fn func(context.Context) error) error
}

// NoopTransactionManager はトランザクションを持たないストア向けの実装です。
type NoopTransactionManager struct{}

func (NoopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (NoopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (NoopTransactionManager) WithinSerializable(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}
