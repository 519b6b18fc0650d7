package console

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/dnslin/printdash/core/model"
)

const (
	// DefaultPage 默认页码。
	DefaultPage = 1
	// DefaultLimit 默认每页条数。
	DefaultLimit = 10
)

// ListParams 列表查询参数。
type ListParams struct {
	Page      int
	Limit     int
	Search    string
	SortBy    string
	SortOrder string
	Filters   map[string]string
}

// ListOption 配置列表参数。
type ListOption func(*ListParams)

// NewListParams 应用选项并补齐默认值。
func NewListParams(opts ...ListOption) ListParams {
	p := ListParams{Page: DefaultPage, Limit: DefaultLimit}
	for _, opt := range opts {
		if opt != nil {
			opt(&p)
		}
	}
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	return p
}

// WithPage 设置页码。
func WithPage(page int) ListOption {
	return func(p *ListParams) {
		p.Page = page
	}
}

// WithLimit 设置每页条数。
func WithLimit(limit int) ListOption {
	return func(p *ListParams) {
		p.Limit = limit
	}
}

// WithSearch 设置关键字，空白会被忽略。
func WithSearch(q string) ListOption {
	return func(p *ListParams) {
		p.Search = strings.TrimSpace(q)
	}
}

// WithSort 设置排序字段与顺序。
func WithSort(field string, descending bool) ListOption {
	return func(p *ListParams) {
		if field == "" {
			return
		}
		p.SortBy = field
		p.SortOrder = "asc"
		if descending {
			p.SortOrder = "desc"
		}
	}
}

// WithFilter 追加筛选条件，空值不提交。
func WithFilter(key, value string) ListOption {
	return func(p *ListParams) {
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			return
		}
		if p.Filters == nil {
			p.Filters = make(map[string]string)
		}
		p.Filters[key] = value
	}
}

// WithPreferences 套用保存过的筛选偏好，resource 对应偏好中的列表名。
func WithPreferences(prefs model.FilterPreferences, resource string) ListOption {
	return func(p *ListParams) {
		if prefs.Limit > 0 {
			p.Limit = prefs.Limit
		}
		if field := prefs.Sort[resource]; field != "" {
			desc := strings.HasPrefix(field, "-")
			WithSort(strings.TrimPrefix(field, "-"), desc)(p)
		}
		for k, v := range prefs.Filters[resource] {
			WithFilter(k, v)(p)
		}
	}
}

// Query 转换为查询串。
func (p ListParams) Query() url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(p.Page))
	q.Set("limit", strconv.Itoa(p.Limit))
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.SortBy != "" {
		q.Set("sortBy", p.SortBy)
		q.Set("sortOrder", p.SortOrder)
	}
	for k, v := range p.Filters {
		q.Set(k, v)
	}
	return q
}
