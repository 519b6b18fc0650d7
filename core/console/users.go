package console

import (
	"context"
	"net/http"

	coreerrors "github.com/dnslin/printdash/core/errors"
	"github.com/dnslin/printdash/core/model"
)

const usersResource = "users"

// ErrEmptyPassword 重置密码时未提供新密码。
var ErrEmptyPassword = coreerrors.New(coreerrors.ErrCodeInvalidArgument, "console: 新密码不能为空")

// ListUsers 分页查询用户。
func (c *Client) ListUsers(ctx context.Context, opts ...ListOption) (*Page[model.User], error) {
	return list[model.User](ctx, c, resourcePath(usersResource), opts)
}

// GetUser 获取用户详情。
func (c *Client) GetUser(ctx context.Context, id string) (*model.User, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return get[model.User](ctx, c, resourcePath(usersResource, id), nil)
}

// Me 获取当前登录用户。
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	return get[model.User](ctx, c, resourcePath(usersResource, "me"), nil)
}

// CreateUser 新增用户。
func (c *Client) CreateUser(ctx context.Context, in model.UserInput) (*model.User, error) {
	return write[model.User](ctx, c, http.MethodPost, resourcePath(usersResource), in)
}

// UpdateUser 更新用户。
func (c *Client) UpdateUser(ctx context.Context, id string, in model.UserInput) (*model.User, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return write[model.User](ctx, c, http.MethodPatch, resourcePath(usersResource, id), in)
}

// DeleteUser 删除用户。
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	return remove(ctx, c, resourcePath(usersResource, id))
}

// ResetPassword 管理员重置用户密码。
func (c *Client) ResetPassword(ctx context.Context, id, password string) error {
	if err := requireID(id); err != nil {
		return err
	}
	if password == "" {
		return ErrEmptyPassword
	}
	body := map[string]string{"newPassword": password}
	return c.send(ctx, http.MethodPost, resourcePath(usersResource, id, "reset-password"), nil, body, nil)
}
