package domain

import (
	"errors"
	"fmt"
)

// 领域哨兵错误；transport 层统一映射成 HTTP 状态码
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthenticated = errors.New("unauthenticated")
)

// ValidationError 入参校验失败，带字段名方便前端定位
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// InvalidTransitionError 状态机拒绝的流转。
// Event 非空表示具名动作在当前状态下不可用；否则为非法的 from → to。
type InvalidTransitionError struct {
	From  TaskStatus
	To    TaskStatus
	Event string
}

func (e *InvalidTransitionError) Error() string {
	if e.Event != "" {
		return fmt.Sprintf("cannot %s: task status is %q", e.Event, e.From)
	}
	return fmt.Sprintf("illegal status change %q -> %q", e.From, e.To)
}
