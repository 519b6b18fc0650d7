package model

// Pagination 列表接口返回的分页信息。
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// HasNext 是否还有下一页。
func (p Pagination) HasNext() bool {
	return p.TotalPages > 0 && p.Page < p.TotalPages
}

// FilterPreferences 列表页的筛选偏好，落盘后下次打开沿用。
type FilterPreferences struct {
	Limit   int                          `yaml:"limit,omitempty" json:"limit,omitempty"`
	Sort    map[string]string            `yaml:"sort,omitempty" json:"sort,omitempty"`
	Filters map[string]map[string]string `yaml:"filters,omitempty" json:"filters,omitempty"`
}
