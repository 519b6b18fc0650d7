package pricing

import (
	"strconv"
	"strings"

	coreerrors "github.com/dnslin/printdash/core/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrA4Insufficient 三项中至少需要两项。
	ErrA4Insufficient = coreerrors.New(coreerrors.ErrCodeInvalidArgument, "pricing: 总页数、黑白页数、彩色页数至少填写两项")
	// ErrA4Negative 页数为负或推算结果为负。
	ErrA4Negative = coreerrors.New(coreerrors.ErrCodeInvalidArgument, "pricing: 页数不能为负")
	// ErrA4Inconsistent 总页数不等于黑白与彩色之和。
	ErrA4Inconsistent = coreerrors.New(coreerrors.ErrCodeInvalidArgument, "pricing: 总页数与黑白、彩色页数之和不一致")
)

// PaperSize 纸张规格。
type PaperSize string

const (
	A4 PaperSize = "A4"
	A3 PaperSize = "A3"
)

// A4Equivalent 按 A4 折算页数，A3 计为两页。
func A4Equivalent(size PaperSize, pages int64) int64 {
	if strings.EqualFold(string(size), string(A3)) {
		return pages * 2
	}
	return pages
}

// A4Counts A4 折算页数，nil 表示未填写。
type A4Counts struct {
	Total *int64 `json:"total,omitempty"`
	BW    *int64 `json:"bw,omitempty"`
	Color *int64 `json:"color,omitempty"`
}

// ParseA4Counts 从表单文本构造，空串视为未填写。
func ParseA4Counts(total, bw, color string) (A4Counts, error) {
	var out A4Counts
	for _, f := range []struct {
		raw string
		dst **int64
	}{{total, &out.Total}, {bw, &out.BW}, {color, &out.Color}} {
		s := strings.ReplaceAll(strings.TrimSpace(f.raw), ",", "")
		if s == "" {
			continue
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return A4Counts{}, coreerrors.Wrap(coreerrors.ErrCodeInvalidArgument, "pricing: 页数必须为整数", err)
		}
		*f.dst = &n
	}
	return out, nil
}

// Complete 由任意两项推算第三项；三项齐全时校验一致性。
func (a A4Counts) Complete() (A4Counts, error) {
	present := 0
	for _, v := range []*int64{a.Total, a.BW, a.Color} {
		if v == nil {
			continue
		}
		if *v < 0 {
			return a, ErrA4Negative
		}
		present++
	}
	if present < 2 {
		return a, ErrA4Insufficient
	}
	var derived int64
	switch {
	case a.Total == nil:
		derived = *a.BW + *a.Color
		a.Total = &derived
	case a.BW == nil:
		derived = *a.Total - *a.Color
		a.BW = &derived
	case a.Color == nil:
		derived = *a.Total - *a.BW
		a.Color = &derived
	default:
		if *a.Total != *a.BW+*a.Color {
			return a, ErrA4Inconsistent
		}
		return a, nil
	}
	if derived < 0 {
		return a, ErrA4Negative
	}
	return a, nil
}

// Cost 按计价计算越南盾金额，调用前应先 Complete。
func (a A4Counts) Cost(r Rates) decimal.Decimal {
	var total decimal.Decimal
	if a.BW != nil {
		total = total.Add(r.PricePerBWPageVND.Mul(decimal.NewFromInt(*a.BW)))
	}
	if a.Color != nil {
		total = total.Add(r.PricePerColorPageVND.Mul(decimal.NewFromInt(*a.Color)))
	}
	return total.Round(VNDPlaces)
}
