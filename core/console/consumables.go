package console

import (
	"context"
	"net/http"

	"github.com/dnslin/printdash/core/model"
)

const consumablesResource = "consumables"

// ListConsumables 分页查询耗材。
func (c *Client) ListConsumables(ctx context.Context, opts ...ListOption) (*Page[model.Consumable], error) {
	return list[model.Consumable](ctx, c, resourcePath(consumablesResource), opts)
}

// GetConsumable 获取耗材详情。
func (c *Client) GetConsumable(ctx context.Context, id string) (*model.Consumable, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return get[model.Consumable](ctx, c, resourcePath(consumablesResource, id), nil)
}

// CreateConsumable 新增耗材。
func (c *Client) CreateConsumable(ctx context.Context, in model.ConsumableInput) (*model.Consumable, error) {
	return write[model.Consumable](ctx, c, http.MethodPost, resourcePath(consumablesResource), in)
}

// UpdateConsumable 更新耗材。
func (c *Client) UpdateConsumable(ctx context.Context, id string, in model.ConsumableInput) (*model.Consumable, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return write[model.Consumable](ctx, c, http.MethodPatch, resourcePath(consumablesResource, id), in)
}

// DeleteConsumable 删除耗材。
func (c *Client) DeleteConsumable(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	return remove(ctx, c, resourcePath(consumablesResource, id))
}

// AssignConsumable 将耗材安装到设备。
func (c *Client) AssignConsumable(ctx context.Context, id, deviceID string) (*model.Consumable, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if err := requireID(deviceID); err != nil {
		return nil, err
	}
	body := map[string]string{"deviceId": deviceID}
	return write[model.Consumable](ctx, c, http.MethodPost, resourcePath(consumablesResource, id, "assign"), body)
}
