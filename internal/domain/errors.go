package domain

import (
	"errors"
	"fmt"
)

// Kind 业务错误分类，transport 层按 Kind 映射响应码
type Kind string

const (
	KindValidation      Kind = "validation"
	KindConflict        Kind = "conflict"
	KindNotFound        Kind = "not_found"
	KindRole            Kind = "role"
	KindOwnership       Kind = "ownership"
	KindInactiveAccount Kind = "inactive_account"
	KindAuth            Kind = "auth"
	KindSuspended       Kind = "suspended"
)

// Error is the single error type returned by the services for business rule
// violations. Field names the offending input or column when there is one.
type Error struct {
	Kind  Kind
	Field string
	Msg   string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	return e.Msg
}

// Is matches on Kind only, so errors.Is(err, ErrConflict) holds for any conflict.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// 哨兵：仅用于 errors.Is 比较
var (
	ErrValidation      = &Error{Kind: KindValidation, Msg: "validation failed"}
	ErrConflict        = &Error{Kind: KindConflict, Msg: "conflict"}
	ErrNotFound        = &Error{Kind: KindNotFound, Msg: "not found"}
	ErrRole            = &Error{Kind: KindRole, Msg: "role not allowed"}
	ErrOwnership       = &Error{Kind: KindOwnership, Msg: "not the owner"}
	ErrInactiveAccount = &Error{Kind: KindInactiveAccount, Msg: "account is not active"}
	ErrAuth            = &Error{Kind: KindAuth, Msg: "invalid credentials"}
	ErrSuspended       = &Error{Kind: KindSuspended, Msg: "account suspended"}
)

func Validation(field, msg string) error { return &Error{Kind: KindValidation, Field: field, Msg: msg} }
func Conflict(field, msg string) error   { return &Error{Kind: KindConflict, Field: field, Msg: msg} }
func NotFound(msg string) error          { return &Error{Kind: KindNotFound, Msg: msg} }
func RoleDenied(msg string) error        { return &Error{Kind: KindRole, Msg: msg} }
func NotOwner(msg string) error          { return &Error{Kind: KindOwnership, Msg: msg} }
func Inactive(msg string) error          { return &Error{Kind: KindInactiveAccount, Msg: msg} }
func AuthFailed(msg string) error        { return &Error{Kind: KindAuth, Msg: msg} }
func Suspended(msg string) error         { return &Error{Kind: KindSuspended, Msg: msg} }

// KindOf returns the Kind of a domain error, or "" for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
