package sqlgen

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMutualExclusion trade-in tier 与 pricing tier 不能同时填写
var ErrMutualExclusion = errors.New("trade-in tiers and pricing tiers are mutually exclusive; clear one of them")

// ValidationError 单个字段不满足生成条件
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// errorScript 失败时的唯一产物：一行 SQL 注释，不包含任何可执行语句
func errorScript(err error) string {
	msg := strings.Join(strings.Fields(err.Error()), " ")
	return "-- ERROR: SQL generation aborted: " + msg
}
