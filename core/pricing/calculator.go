package pricing

import (
	"sync"

	coreerrors "github.com/dnslin/printdash/core/errors"
	"github.com/shopspring/decimal"
)

// ErrUnknownPageKind 页类型不是 BW 或 Color。
var ErrUnknownPageKind = coreerrors.New(coreerrors.ErrCodeInvalidArgument, "pricing: 未知的页类型")

// PageKind 区分黑白页与彩色页。
type PageKind int

const (
	BW PageKind = iota
	Color
)

// Valid 判断是否为已知页类型。
func (k PageKind) Valid() bool {
	return k == BW || k == Color
}

// Currency 标记最后一次录入的币种，汇率变化时以它为准换算另一侧。
type Currency int

const (
	VND Currency = iota
	USD
)

type pair struct {
	vnd    string
	usd    string
	source Currency
}

// Calculator 维护计价表单中越南盾与美元两侧的联动。
// 录入一侧后另一侧重新计算，输入或汇率无效时另一侧留空。
type Calculator struct {
	mu     sync.Mutex
	rate   string
	prices [2]pair
}

// NewCalculator 以汇率创建计算器。
func NewCalculator(rate string) *Calculator {
	return &Calculator{rate: rate}
}

// FromRates 用已有计价回填表单。
func FromRates(r Rates) *Calculator {
	c := NewCalculator(r.ExchangeRate.String())
	c.prices[BW] = pair{vnd: r.PricePerBWPageVND.String(), usd: r.PricePerBWPageUSD.String(), source: VND}
	c.prices[Color] = pair{vnd: r.PricePerColorPageVND.String(), usd: r.PricePerColorPageUSD.String(), source: VND}
	return c
}

// SetVND 录入越南盾单价并换算美元。
func (c *Calculator) SetVND(kind PageKind, value string) error {
	if !kind.Valid() {
		return ErrUnknownPageKind
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	p := &c.prices[kind]
	p.vnd, p.source = value, VND
	c.recompute(p)
	return nil
}

// SetUSD 录入美元单价并换算越南盾。
func (c *Calculator) SetUSD(kind PageKind, value string) error {
	if !kind.Valid() {
		return ErrUnknownPageKind
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	p := &c.prices[kind]
	p.usd, p.source = value, USD
	c.recompute(p)
	return nil
}

// SetExchangeRate 更新汇率，两类单价按各自的录入侧重新换算。
func (c *Calculator) SetExchangeRate(rate string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rate = rate
	for i := range c.prices {
		c.recompute(&c.prices[i])
	}
}

// Get 返回某类单价的两侧文本，未知页类型返回空串。
func (c *Calculator) Get(kind PageKind) (vnd, usd string) {
	if !kind.Valid() {
		return "", ""
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.prices[kind]
	return p.vnd, p.usd
}

// ExchangeRate 返回当前汇率文本。
func (c *Calculator) ExchangeRate() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rate
}

// Rates 校验并导出计价，用于提交。
func (c *Calculator) Rates() (Rates, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rate, ok, err := ParseAmount(c.rate)
	if err != nil || !ok || !rate.IsPositive() {
		return Rates{}, ErrInvalidRate
	}
	out := Rates{ExchangeRate: rate}
	fields := [2][2]*decimal.Decimal{
		{&out.PricePerBWPageVND, &out.PricePerBWPageUSD},
		{&out.PricePerColorPageVND, &out.PricePerColorPageUSD},
	}
	for i, p := range c.prices {
		vnd, _, err := ParseAmount(p.vnd)
		if err != nil {
			return Rates{}, err
		}
		usd, _, err := ParseAmount(p.usd)
		if err != nil {
			return Rates{}, err
		}
		*fields[i][0], *fields[i][1] = vnd, usd
	}
	return out, out.Validate()
}

func (c *Calculator) recompute(p *pair) {
	rate, ok, err := ParseAmount(c.rate)
	rateOK := err == nil && ok && rate.IsPositive()
	switch p.source {
	case VND:
		p.usd = ""
		if !rateOK {
			return
		}
		if vnd, ok, err := ParseAmount(p.vnd); err == nil && ok {
			usd, _ := ToUSD(vnd, rate)
			p.usd = usd.String()
		}
	case USD:
		p.vnd = ""
		if !rateOK {
			return
		}
		if usd, ok, err := ParseAmount(p.usd); err == nil && ok {
			vnd, _ := ToVND(usd, rate)
			p.vnd = vnd.String()
		}
	}
}
