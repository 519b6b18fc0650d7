package pricing

import (
	"strings"

	coreerrors "github.com/dnslin/printdash/core/errors"
	"github.com/shopspring/decimal"
)

const (
	// USDPlaces 美元单价保留位数。
	USDPlaces int32 = 5
	// VNDPlaces 越南盾没有辅币，取整。
	VNDPlaces int32 = 0
)

var (
	// ErrInvalidRate 汇率为空、非正数或无法解析。
	ErrInvalidRate = coreerrors.New(coreerrors.ErrCodeInvalidArgument, "pricing: 汇率无效")
	// ErrInvalidAmount 金额无法解析。
	ErrInvalidAmount = coreerrors.New(coreerrors.ErrCodeInvalidArgument, "pricing: 金额无效")
	// ErrNegativeAmount 金额为负数。
	ErrNegativeAmount = coreerrors.New(coreerrors.ErrCodeInvalidArgument, "pricing: 金额不能为负")
)

// Rates 设备的单页计价，金额以十进制传输。
type Rates struct {
	PricePerBWPageVND    decimal.Decimal `json:"pricePerBWPageVND"`
	PricePerColorPageVND decimal.Decimal `json:"pricePerColorPageVND"`
	PricePerBWPageUSD    decimal.Decimal `json:"pricePerBWPageUSD"`
	PricePerColorPageUSD decimal.Decimal `json:"pricePerColorPageUSD"`
	ExchangeRate         decimal.Decimal `json:"exchangeRate"`
}

// Validate 检查汇率为正且单价非负。
func (r Rates) Validate() error {
	if !r.ExchangeRate.IsPositive() {
		return ErrInvalidRate
	}
	for _, d := range []decimal.Decimal{r.PricePerBWPageVND, r.PricePerColorPageVND, r.PricePerBWPageUSD, r.PricePerColorPageUSD} {
		if d.IsNegative() {
			return ErrNegativeAmount
		}
	}
	return nil
}

// WithDerivedUSD 以越南盾单价为准重新计算美元单价。
func (r Rates) WithDerivedUSD() (Rates, error) {
	bw, err := ToUSD(r.PricePerBWPageVND, r.ExchangeRate)
	if err != nil {
		return r, err
	}
	color, err := ToUSD(r.PricePerColorPageVND, r.ExchangeRate)
	if err != nil {
		return r, err
	}
	r.PricePerBWPageUSD, r.PricePerColorPageUSD = bw, color
	return r, nil
}

// ToUSD vnd / rate，保留 5 位小数。
func ToUSD(vnd, rate decimal.Decimal) (decimal.Decimal, error) {
	if !rate.IsPositive() {
		return decimal.Zero, ErrInvalidRate
	}
	return vnd.Div(rate).Round(USDPlaces), nil
}

// ToVND usd × rate，取整。
func ToVND(usd, rate decimal.Decimal) (decimal.Decimal, error) {
	if !rate.IsPositive() {
		return decimal.Zero, ErrInvalidRate
	}
	return usd.Mul(rate).Round(VNDPlaces), nil
}

// ParseAmount 解析表单输入，忽略空白与千分位逗号。空串返回 ok=false。
func ParseAmount(s string) (decimal.Decimal, bool, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero, false, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false, coreerrors.Wrap(coreerrors.ErrCodeInvalidArgument, ErrInvalidAmount.Message, err)
	}
	if d.IsNegative() {
		return decimal.Zero, false, ErrNegativeAmount
	}
	return d, true, nil
}
