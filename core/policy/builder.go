package policy

import (
	"encoding/json"
	"errors"
	"sort"
)

// Logic 条件组合方式。
type Logic string

const (
	And Logic = "$and"
	Or  Logic = "$or"
)

// Filter 是提交给后端的过滤对象。encoding/json 按键排序输出，结果稳定。
type Filter map[string]any

// Builder 将表单中的条件组装为过滤对象。
type Builder struct {
	logic  Logic
	conds  []Condition
	groups []*Builder
}

// NewBuilder 创建指定组合方式的构造器，非法值按 And 处理。
func NewBuilder(logic Logic) *Builder {
	if logic != Or {
		logic = And
	}
	return &Builder{logic: logic}
}

// Where 追加一条条件。
func (b *Builder) Where(field string, op Operator, value any) *Builder {
	return b.Add(Condition{Field: field, Operator: op, Value: value})
}

// Add 追加条件。
func (b *Builder) Add(conds ...Condition) *Builder {
	b.conds = append(b.conds, conds...)
	return b
}

// Group 嵌套一个子组，例如 a AND (b OR c)。
func (b *Builder) Group(g *Builder) *Builder {
	if g != nil {
		b.groups = append(b.groups, g)
	}
	return b
}

// Conditions 返回已添加的条件副本，不含子组。
func (b *Builder) Conditions() []Condition {
	return append([]Condition(nil), b.conds...)
}

// Build 生成过滤对象。空值条件被跳过；
// 只有一项时直接返回该项，多项时包在 $and / $or 下。
func (b *Builder) Build() (Filter, error) {
	var errs []error
	var parts []any
	for _, c := range b.conds {
		if c.Empty() {
			continue
		}
		if err := c.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		parts = append(parts, c.object())
	}
	for _, g := range b.groups {
		sub, err := g.Build()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if len(sub) > 0 {
			parts = append(parts, map[string]any(sub))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	switch len(parts) {
	case 0:
		return Filter{}, nil
	case 1:
		return Filter(parts[0].(map[string]any)), nil
	default:
		return Filter{string(b.logic): parts}, nil
	}
}

// MarshalJSON 输出 Build 的结果。
func (b *Builder) MarshalJSON() ([]byte, error) {
	f, err := b.Build()
	if err != nil {
		return nil, err
	}
	return json.Marshal(f)
}

// Parse 将过滤对象还原为条件列表，用于编辑已有策略。只支持一层组合。
func Parse(raw []byte) (*Builder, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, errors.Join(ErrMalformedFilter, err)
	}
	b := NewBuilder(And)
	if len(top) == 1 {
		for key, val := range top {
			if Logic(key) != And && Logic(key) != Or {
				break
			}
			b.logic = Logic(key)
			var items []json.RawMessage
			if err := json.Unmarshal(val, &items); err != nil {
				return nil, errors.Join(ErrMalformedFilter, err)
			}
			for _, item := range items {
				conds, err := parseObject(item)
				if err != nil {
					return nil, err
				}
				b.Add(conds...)
			}
			return b, nil
		}
	}
	conds, err := parseObject(raw)
	if err != nil {
		return nil, err
	}
	return b.Add(conds...), nil
}

func parseObject(raw []byte) ([]Condition, error) {
	var fields map[string]map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, errors.Join(ErrMalformedFilter, err)
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	var out []Condition
	for _, name := range names {
		ops := fields[name]
		keys := make([]string, 0, len(ops))
		for k := range ops {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			op, err := ParseOperator(k)
			if err != nil {
				return nil, err
			}
			out = append(out, Condition{Field: name, Operator: op, Value: ops[k]})
		}
	}
	return out, nil
}
