package console

import (
	"context"
	"net/url"

	"github.com/dnslin/printdash/core/model"
)

const (
	reportsResource = "reports"
	reportDate      = "2006-01-02"
)

func (r rangeQuery) values() url.Values {
	q := url.Values{}
	q.Set("customerId", r.CustomerID)
	q.Set("deviceId", r.DeviceID)
	if !r.From.IsZero() {
		q.Set("from", r.From.Format(reportDate))
	}
	if !r.To.IsZero() {
		q.Set("to", r.To.Format(reportDate))
	}
	return q
}

type rangeQuery model.ReportRange

// BillingReport 获取账期账单，区间按日期传递。
func (c *Client) BillingReport(ctx context.Context, r model.ReportRange) (*model.BillingReport, error) {
	return get[model.BillingReport](ctx, c, resourcePath(reportsResource, "billing"), rangeQuery(r).values())
}

// UsageReport 获取用量走势。
func (c *Client) UsageReport(ctx context.Context, r model.ReportRange) (*model.UsageReport, error) {
	return get[model.UsageReport](ctx, c, resourcePath(reportsResource, "usage"), rangeQuery(r).values())
}
