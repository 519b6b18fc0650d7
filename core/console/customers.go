package console

import (
	"context"
	"net/http"

	"github.com/dnslin/printdash/core/model"
)

const customersResource = "customers"

// ListCustomers 分页查询客户。
func (c *Client) ListCustomers(ctx context.Context, opts ...ListOption) (*Page[model.Customer], error) {
	return list[model.Customer](ctx, c, resourcePath(customersResource), opts)
}

// GetCustomer 获取客户详情。
func (c *Client) GetCustomer(ctx context.Context, id string) (*model.Customer, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return get[model.Customer](ctx, c, resourcePath(customersResource, id), nil)
}

// CreateCustomer 新增客户。
func (c *Client) CreateCustomer(ctx context.Context, in model.CustomerInput) (*model.Customer, error) {
	return write[model.Customer](ctx, c, http.MethodPost, resourcePath(customersResource), in)
}

// UpdateCustomer 更新客户。
func (c *Client) UpdateCustomer(ctx context.Context, id string, in model.CustomerInput) (*model.Customer, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return write[model.Customer](ctx, c, http.MethodPatch, resourcePath(customersResource, id), in)
}

// DeleteCustomer 删除客户。
func (c *Client) DeleteCustomer(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	return remove(ctx, c, resourcePath(customersResource, id))
}
