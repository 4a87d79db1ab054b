package postgres

import (
	"github.com/ogurasousui/nomina/internal/core/domain"
	pgdb "github.com/ogurasousui/nomina/internal/platform/db/postgres"
)

// NewRepositories は pool を共有する全エンティティのリポジトリを生成します。
// トランザクションはコンテキスト経由で各リポジトリに伝播します。
func NewRepositories(pool pgdb.Queryer) domain.Repositories {
	return domain.Repositories{
		Organizations: NewOrganizationRepository(pool),
		Payrolls:      NewPayrollRepository(pool),
		Divisions:     NewDivisionRepository(pool),
		Jobs:          NewJobRepository(pool),
		Banks:         NewBankRepository(pool),
		Employees:     NewEmployeeRepository(pool),
	}
}
