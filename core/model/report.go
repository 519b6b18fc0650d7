package model

import "time"

// BillingLine 账单中单台设备的计费明细。金额为十进制字符串，避免浮点误差。
type BillingLine struct {
	DeviceID   string `json:"deviceId"`
	BWPages    int64  `json:"bwPages"`
	ColorPages int64  `json:"colorPages"`
	AmountVND  string `json:"amountVND"`
	AmountUSD  string `json:"amountUSD,omitempty"`
}

// BillingReport 客户在账期内的账单汇总。
type BillingReport struct {
	CustomerID  string        `json:"customerId"`
	PeriodStart time.Time     `json:"periodStart"`
	PeriodEnd   time.Time     `json:"periodEnd"`
	Lines       []BillingLine `json:"lines"`
	TotalVND    string        `json:"totalVND"`
	TotalUSD    string        `json:"totalUSD,omitempty"`
}

// UsagePoint 按日统计的用量。
type UsagePoint struct {
	Date       string `json:"date"`
	BWPages    int64  `json:"bwPages"`
	ColorPages int64  `json:"colorPages"`
}

// UsageReport 设备或客户的用量走势。
type UsageReport struct {
	DeviceID   string       `json:"deviceId,omitempty"`
	CustomerID string       `json:"customerId,omitempty"`
	Points     []UsagePoint `json:"points"`
	TotalPages int64        `json:"totalPages"`
}

// ReportRange 报表查询区间。
type ReportRange struct {
	CustomerID string
	DeviceID   string
	From       time.Time
	To         time.Time
}
