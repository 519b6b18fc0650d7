package console

import (
	"context"
	"net/http"

	"github.com/dnslin/printdash/core/pricing"
)

// GetPricing 获取设备计价。
func (c *Client) GetPricing(ctx context.Context, deviceID string) (*pricing.Rates, error) {
	if err := requireID(deviceID); err != nil {
		return nil, err
	}
	return get[pricing.Rates](ctx, c, resourcePath(devicesResource, deviceID, "pricing"), nil)
}

// UpdatePricing 校验后提交设备计价。
func (c *Client) UpdatePricing(ctx context.Context, deviceID string, rates pricing.Rates) (*pricing.Rates, error) {
	if err := requireID(deviceID); err != nil {
		return nil, err
	}
	if err := rates.Validate(); err != nil {
		return nil, err
	}
	return write[pricing.Rates](ctx, c, http.MethodPut, resourcePath(devicesResource, deviceID, "pricing"), rates)
}
