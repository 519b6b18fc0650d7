package console

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dnslin/printdash/core/model"
	"github.com/dnslin/printdash/core/policy"
)

const policiesResource = "policies"

// ListPolicies 分页查询策略。
func (c *Client) ListPolicies(ctx context.Context, opts ...ListOption) (*Page[model.Policy], error) {
	return list[model.Policy](ctx, c, resourcePath(policiesResource), opts)
}

// GetPolicy 获取策略详情。
func (c *Client) GetPolicy(ctx context.Context, id string) (*model.Policy, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return get[model.Policy](ctx, c, resourcePath(policiesResource, id), nil)
}

// CreatePolicy 新增策略。
func (c *Client) CreatePolicy(ctx context.Context, in model.PolicyInput) (*model.Policy, error) {
	return write[model.Policy](ctx, c, http.MethodPost, resourcePath(policiesResource), in)
}

// UpdatePolicy 更新策略。
func (c *Client) UpdatePolicy(ctx context.Context, id string, in model.PolicyInput) (*model.Policy, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return write[model.Policy](ctx, c, http.MethodPatch, resourcePath(policiesResource, id), in)
}

// DeletePolicy 删除策略。
func (c *Client) DeletePolicy(ctx context.Context, id string) error {
	if err := requireID(id); err != nil {
		return err
	}
	return remove(ctx, c, resourcePath(policiesResource, id))
}

// EvaluatePolicy 以样例作业试算策略是否命中。
func (c *Client) EvaluatePolicy(ctx context.Context, id string, job any) (*model.PolicyEvaluation, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	return write[model.PolicyEvaluation](ctx, c, http.MethodPost, resourcePath(policiesResource, id, "evaluate"), job)
}

// PolicyInputFrom 由条件构造器生成请求体中的 conditions。
func PolicyInputFrom(in model.PolicyInput, b *policy.Builder) (model.PolicyInput, error) {
	if b == nil {
		return in, nil
	}
	data, err := json.Marshal(b)
	if err != nil {
		return in, err
	}
	in.Conditions = data
	return in, nil
}
