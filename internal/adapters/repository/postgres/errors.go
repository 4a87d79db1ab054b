package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/nomina/internal/core/domain"
)

const (
	opCreate = "create"
	opGet    = "get"
	opList   = "list"
	opUpdate = "update"
	opDelete = "delete"
)

// parentByConstraint は外部キー制約名から参照先のエンティティを引きます。
var parentByConstraint = map[string]domain.EntityKind{
	"payrolls_organization_id_fkey":     domain.EntityOrganization,
	"banks_organization_id_fkey":        domain.EntityOrganization,
	"divisions_payroll_id_fkey":         domain.EntityPayroll,
	"divisions_parent_division_id_fkey": domain.EntityDivision,
	"jobs_payroll_id_fkey":              domain.EntityPayroll,
	"employees_payroll_id_fkey":         domain.EntityPayroll,
	"employees_division_id_fkey":        domain.EntityDivision,
	"employees_job_id_fkey":             domain.EntityJob,
	"employees_bank_id_fkey":            domain.EntityBank,
}

var entityByTable = map[string]domain.EntityKind{
	"organizations": domain.EntityOrganization,
	"payrolls":      domain.EntityPayroll,
	"divisions":     domain.EntityDivision,
	"jobs":          domain.EntityJob,
	"banks":         domain.EntityBank,
	"employees":     domain.EntityEmployee,
}

// translatePgError は pgx と PostgreSQL のエラーをドメインエラーに変換します。
//
// 外部キー違反は書き込み時なら親の NotFound、削除時なら HasDependents になります。
// 分類できないものは Store として元のエラーを包みます。
func translatePgError(op string, entity domain.EntityKind, id string, err error) error {
	if err == nil {
		return nil
	}

	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return domain.NotFound(entity, id)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return domain.Conflict(entity, id)
		case pgerrcode.ForeignKeyViolation:
			if op == opDelete {
				return domain.HasDependents(entity, id, dependentOf(pgErr))
			}
			if parent, ok := parentByConstraint[pgErr.ConstraintName]; ok {
				return domain.ParentNotFound(parent, "")
			}
		case pgerrcode.CheckViolation:
			return domain.Invalid(string(entity), "violates "+pgErr.ConstraintName)
		}
	}

	return domain.StoreFailure(fmt.Sprintf("%s %s", op, entity), err)
}

func dependentOf(pgErr *pgconn.PgError) domain.EntityKind {
	if kind, ok := entityByTable[pgErr.TableName]; ok {
		return kind
	}
	table, _, _ := strings.Cut(pgErr.ConstraintName, "_")
	if kind, ok := entityByTable[table]; ok {
		return kind
	}
	return "record"
}

// collect は rows をすべて読み出して scan で変換します。
func collect[T any](rows pgx.Rows, scan func(pgx.Row) (*T, error)) ([]*T, error) {
	defer rows.Close()

	items := make([]*T, 0)
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func nullableString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}
