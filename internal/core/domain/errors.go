package domain

import (
	"errors"
	"fmt"
)

// Kind は失敗の種類を表します。トランスポート層はこの値だけを見てレスポンスを決定します。
type Kind string

const (
	KindNotFound             Kind = "not_found"
	KindOrganizationNotFound Kind = "organization_not_found"
	KindPayrollNotFound      Kind = "payroll_not_found"
	KindDivisionNotFound     Kind = "division_not_found"
	KindJobNotFound          Kind = "job_not_found"
	KindBankNotFound         Kind = "bank_not_found"
	KindCrossPayrollParent   Kind = "cross_payroll_parent"
	KindCrossScopeReference  Kind = "cross_scope_reference"
	KindSelfParent           Kind = "self_parent"
	KindCycleDetected        Kind = "cycle_detected"
	KindHasDependents        Kind = "has_dependents"
	KindConflict             Kind = "conflict"
	KindInvalid              Kind = "invalid"
	KindStore                Kind = "store"
)

// IsNotFound は NotFound 系の種類かどうかを返します。
func (k Kind) IsNotFound() bool {
	switch k {
	case KindNotFound,
		KindOrganizationNotFound,
		KindPayrollNotFound,
		KindDivisionNotFound,
		KindJobNotFound,
		KindBankNotFound:
		return true
	default:
		return false
	}
}

// Error はコア層が返却する型付きエラーです。
type Error struct {
	Kind    Kind
	Entity  EntityKind
	ID      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Entity != "" && e.ID != "" {
		msg = fmt.Sprintf("%s: %s `%s`", msg, e.Entity, e.ID)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is は種類が一致する場合に true を返します。
// 型付きの NotFound は汎用の ErrNotFound にも一致します。
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind == e.Kind {
		return true
	}
	return t.Kind == KindNotFound && e.Kind.IsNotFound()
}

var (
	ErrNotFound             = &Error{Kind: KindNotFound, Message: "not found"}
	ErrOrganizationNotFound = &Error{Kind: KindOrganizationNotFound, Message: "organization not found"}
	ErrPayrollNotFound      = &Error{Kind: KindPayrollNotFound, Message: "payroll not found"}
	ErrDivisionNotFound     = &Error{Kind: KindDivisionNotFound, Message: "division not found"}
	ErrJobNotFound          = &Error{Kind: KindJobNotFound, Message: "job not found"}
	ErrBankNotFound         = &Error{Kind: KindBankNotFound, Message: "bank not found"}
	ErrCrossPayrollParent   = &Error{Kind: KindCrossPayrollParent, Message: "parent division must belong to the same payroll"}
	ErrCrossScopeReference  = &Error{Kind: KindCrossScopeReference, Message: "referenced resource belongs to a different scope"}
	ErrSelfParent           = &Error{Kind: KindSelfParent, Message: "division cannot be its own parent"}
	ErrCycleDetected        = &Error{Kind: KindCycleDetected, Message: "division hierarchy would contain a cycle"}
	ErrHasDependents        = &Error{Kind: KindHasDependents, Message: "resource has dependents"}
	ErrConflict             = &Error{Kind: KindConflict, Message: "resource already exists"}
	ErrInvalid              = &Error{Kind: KindInvalid, Message: "invalid argument"}
	ErrStore                = &Error{Kind: KindStore, Message: "store failure"}
)

// NotFound は汎用の NotFound エラーを生成します。
func NotFound(entity EntityKind, id string) error {
	return &Error{Kind: KindNotFound, Entity: entity, ID: id, Message: "not found"}
}

// ParentNotFound は親検証用の型付き NotFound エラーを生成します。
func ParentNotFound(entity EntityKind, id string) error {
	kind := KindNotFound
	switch entity {
	case EntityOrganization:
		kind = KindOrganizationNotFound
	case EntityPayroll:
		kind = KindPayrollNotFound
	case EntityDivision:
		kind = KindDivisionNotFound
	case EntityJob:
		kind = KindJobNotFound
	case EntityBank:
		kind = KindBankNotFound
	}
	return &Error{Kind: kind, Entity: entity, ID: id, Message: string(entity) + " not found"}
}

// Conflict は ID 重複エラーを生成します。
func Conflict(entity EntityKind, id string) error {
	return &Error{Kind: KindConflict, Entity: entity, ID: id, Message: "already exists"}
}

// HasDependents は依存リソースが残っている場合のエラーを生成します。
func HasDependents(entity EntityKind, id string, dependent EntityKind) error {
	return &Error{
		Kind:    KindHasDependents,
		Entity:  entity,
		ID:      id,
		Message: fmt.Sprintf("%s still owns %s records", entity, dependent),
	}
}

// Invalid は入力値が不正な場合のエラーを生成します。
func Invalid(field, reason string) error {
	return &Error{Kind: KindInvalid, Message: fmt.Sprintf("%s %s", field, reason)}
}

// StoreFailure は分類できない永続化層の失敗を包みます。
func StoreFailure(op string, err error) error {
	return &Error{Kind: KindStore, Message: op, Err: err}
}

// KindOf はエラーの種類を返します。コア層のエラーでない場合は KindStore です。
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindStore
}

// AsParentNotFound は汎用の NotFound を型付きの親 NotFound に変換します。
// それ以外のエラーはそのまま返します。
func AsParentNotFound(err error, entity EntityKind, id string) error {
	if err == nil {
		return nil
	}
	if KindOf(err) == KindNotFound {
		return ParentNotFound(entity, id)
	}
	return err
}
