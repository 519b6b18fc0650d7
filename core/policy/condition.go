package policy

import (
	"reflect"
	"strings"

	coreerrors "github.com/dnslin/printdash/core/errors"
)

// Operator 条件运算符，序列化时加 $ 前缀。
type Operator string

const (
	OpEq       Operator = "eq"
	OpNe       Operator = "ne"
	OpGt       Operator = "gt"
	OpGte      Operator = "gte"
	OpLt       Operator = "lt"
	OpLte      Operator = "lte"
	OpIn       Operator = "in"
	OpContains Operator = "contains"
)

var operators = map[Operator]struct{}{
	OpEq: {}, OpNe: {}, OpGt: {}, OpGte: {}, OpLt: {}, OpLte: {}, OpIn: {}, OpContains: {},
}

var (
	// ErrEmptyField 条件字段为空。
	ErrEmptyField = coreerrors.New(coreerrors.ErrCodeInvalidArgument, "policy: 条件字段不能为空")
	// ErrUnknownOperator 不支持的运算符。
	ErrUnknownOperator = coreerrors.New(coreerrors.ErrCodeInvalidArgument, "policy: 不支持的运算符")
	// ErrInvalidValue 值与运算符不匹配，例如 in 传入非数组。
	ErrInvalidValue = coreerrors.New(coreerrors.ErrCodeInvalidArgument, "policy: 条件值不合法")
	// ErrMalformedFilter 过滤对象结构无法识别。
	ErrMalformedFilter = coreerrors.New(coreerrors.ErrCodeInvalidState, "policy: 过滤对象格式错误")
)

// ParseOperator 接受 eq 或 $eq 两种写法。
func ParseOperator(s string) (Operator, error) {
	op := Operator(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "$"))
	if _, ok := operators[op]; !ok {
		return "", coreerrors.Wrap(coreerrors.ErrCodeInvalidArgument, ErrUnknownOperator.Message+": "+s, ErrUnknownOperator)
	}
	return op, nil
}

// Key 返回序列化用的键，例如 $gte。
func (o Operator) Key() string {
	return "$" + string(o)
}

// Condition 描述一条字段条件。
type Condition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// Empty 表单未填写的值：nil、空白字符串或空数组。
func (c Condition) Empty() bool {
	return isEmpty(c.Value)
}

// Validate 检查字段、运算符与值的组合。
func (c Condition) Validate() error {
	if strings.TrimSpace(c.Field) == "" {
		return ErrEmptyField
	}
	if _, ok := operators[c.Operator]; !ok {
		return coreerrors.Wrap(coreerrors.ErrCodeInvalidArgument, ErrUnknownOperator.Message+": "+string(c.Operator), ErrUnknownOperator)
	}
	switch c.Operator {
	case OpIn:
		if !isList(c.Value) {
			return coreerrors.Wrap(coreerrors.ErrCodeInvalidArgument, "policy: in 需要数组值", ErrInvalidValue)
		}
	case OpContains:
		if _, ok := c.Value.(string); !ok {
			return coreerrors.Wrap(coreerrors.ErrCodeInvalidArgument, "policy: contains 需要字符串值", ErrInvalidValue)
		}
	}
	return nil
}

func (c Condition) object() map[string]any {
	v := c.Value
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	return map[string]any{strings.TrimSpace(c.Field): map[string]any{c.Operator.Key(): v}}
}

func isList(v any) bool {
	if v == nil {
		return false
	}
	k := reflect.TypeOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	}
	if isList(v) {
		return reflect.ValueOf(v).Len() == 0
	}
	return false
}
