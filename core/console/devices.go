package console

import (
	"context"
	"net/http"

	"github.com/dnslin/printdash/core/model"
)

const devicesResource = "devices"

// ListDevices 分页查询设备。
func (c *Client) ListDevices(ctx context.Context, opts ...ListOption) (*Page[model.Device], error) {
	return list[model.Device](ctx, c, resourcePath(devicesResource), opts)
}

// ListDevicesByCustomer 查询某个客户名下的设备。
func (c *Client) ListDevicesByCustomer(ctx context.Context, customerID string, opts ...ListOption) (*Page[model.Device], error) {
	if err := requireID(customerID); err != nil {
		return nil, err
	}
	opts = append(opts, WithFilter("customerId", customerID))
	return c.ListDevices(ctx, opts...)
}

// GetDevice 获取设备详情。
func (c *Client) GetDevice(ctx context.Context, id string) (*model.Device, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return get[model.Device](ctx, c, resourcePath(devicesResource, id), nil)
}

// CreateDevice 新增设备。
func (c *Client) CreateDevice(ctx context.Context, in model.DeviceInput) (*model.Device, error) {
	return write[model.Device](ctx, c, http.MethodPost, resourcePath(devicesResource), in)
}

// UpdateDevice 更新设备，零值字段不修改。
func (c *Client) UpdateDevice(ctx context.Context, id string, in model.DeviceInput) (*model.Device, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return write[model.Device](ctx, c, http.MethodPatch, resourcePath(devicesResource, id), in)
}

// DeleteDevice 删除设备。
func (c *Client) DeleteDevice(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	return remove(ctx, c, resourcePath(devicesResource, id))
}
