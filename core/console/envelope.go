package console

import (
	"encoding/json"
	"net/http"

	"github.com/dnslin/printdash/core/model"
	"github.com/tidwall/gjson"
)

// Page 归一化后的列表结果。
type Page[T any] struct {
	Items      []T              `json:"items"`
	Pagination model.Pagination `json:"pagination"`
}

// 列表响应可能是 {data, pagination}、{success, data}、{data: {items, pagination}} 或裸数组。
func decodePage[T any](raw []byte, params ListParams) (*Page[T], error) {
	if !gjson.ValidBytes(raw) {
		return nil, &Error{Kind: KindUnknown, Message: "响应格式错误", Status: http.StatusOK}
	}
	root := gjson.ParseBytes(raw)
	if err := businessError(root); err != nil {
		return nil, err
	}
	var items, pg gjson.Result
	switch {
	case root.IsArray():
		items = root
	case root.Get("data").IsArray():
		items = root.Get("data")
		pg = firstExisting(root, "pagination", "meta")
	case root.Get("data.items").IsArray():
		items = root.Get("data.items")
		pg = firstExisting(root, "data.pagination", "data.meta", "pagination")
	case root.Get("items").IsArray():
		items = root.Get("items")
		pg = firstExisting(root, "pagination", "meta")
	default:
		return nil, &Error{Kind: KindUnknown, Message: "无法识别的列表响应", Status: http.StatusOK}
	}

	page := &Page[T]{Items: []T{}}
	if err := json.Unmarshal([]byte(items.Raw), &page.Items); err != nil {
		return nil, &Error{Kind: KindUnknown, Message: "列表解码失败", Status: http.StatusOK, Raw: err}
	}
	if pg.Exists() {
		p := &page.Pagination
		p.Page = int(pg.Get("page").Int())
		p.Limit = int(firstExisting(pg, "limit", "pageSize").Int())
		p.Total = int(firstExisting(pg, "total", "totalItems").Int())
		p.TotalPages = int(pg.Get("totalPages").Int())
	}
	fillPagination(&page.Pagination, params, len(page.Items), pg.Exists())
	return page, nil
}

// decodeItem 解开 {data: {...}} 或 {success, data}，实体自身带 id 时原样解码。
func decodeItem[T any](raw []byte) (*T, error) {
	var out T
	if len(raw) == 0 {
		return &out, nil
	}
	root := gjson.ParseBytes(raw)
	if err := businessError(root); err != nil {
		return nil, err
	}
	body := raw
	if data := root.Get("data"); data.Exists() && !root.Get("id").Exists() {
		body = []byte(data.Raw)
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &Error{Kind: KindUnknown, Message: "响应解码失败", Status: http.StatusOK, Raw: err}
	}
	return &out, nil
}

func businessError(root gjson.Result) error {
	success := root.Get("success")
	if !success.Exists() || success.Type == gjson.True {
		return nil
	}
	msg := root.Get("message")
	text := msg.String()
	if msg.IsArray() && len(msg.Array()) > 0 {
		text = msg.Array()[0].String()
	}
	if text == "" {
		text = root.Get("error").String()
	}
	if text == "" {
		text = "操作失败"
	}
	return &Error{Kind: KindUnknown, Message: text, Status: http.StatusOK}
}

func firstExisting(root gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if r := root.Get(p); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}

// fillPagination 补齐缺失字段。没有分页信息或总数时视为最后一页。
func fillPagination(p *model.Pagination, params ListParams, count int, known bool) {
	if p.Page < 1 {
		p.Page = params.Page
	}
	if p.Limit < 1 {
		p.Limit = params.Limit
	}
	if !known || (p.Total == 0 && count > 0) {
		p.Total = (p.Page-1)*p.Limit + count
		p.TotalPages = p.Page
		return
	}
	if p.TotalPages < 1 && p.Total > 0 {
		p.TotalPages = (p.Total + p.Limit - 1) / p.Limit
	}
}
