package console

import (
	"context"
	"net/http"
	"time"

	"github.com/dnslin/printdash/core/model"
)

const contractsResource = "contracts"

// ListContracts 分页查询合同。
func (c *Client) ListContracts(ctx context.Context, opts ...ListOption) (*Page[model.Contract], error) {
	return list[model.Contract](ctx, c, resourcePath(contractsResource), opts)
}

// GetContract 获取合同详情。
func (c *Client) GetContract(ctx context.Context, id string) (*model.Contract, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return get[model.Contract](ctx, c, resourcePath(contractsResource, id), nil)
}

// CreateContract 新增合同。
func (c *Client) CreateContract(ctx context.Context, in model.ContractInput) (*model.Contract, error) {
	return write[model.Contract](ctx, c, http.MethodPost, resourcePath(contractsResource), in)
}

// UpdateContract 更新合同。
func (c *Client) UpdateContract(ctx context.Context, id string, in model.ContractInput) (*model.Contract, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return write[model.Contract](ctx, c, http.MethodPatch, resourcePath(contractsResource, id), in)
}

// DeleteContract 删除合同。
func (c *Client) DeleteContract(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	return remove(ctx, c, resourcePath(contractsResource, id))
}

// RenewContract 将合同续期至 endDate。
func (c *Client) RenewContract(ctx context.Context, id string, endDate time.Time) (*model.Contract, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	body := map[string]string{"endDate": endDate.UTC().Format(time.RFC3339)}
	return write[model.Contract](ctx, c, http.MethodPost, resourcePath(contractsResource, id, "renew"), body)
}
