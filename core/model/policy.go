package model

import (
	"encoding/json"
	"time"
)

// PolicyType 策略类别。
type PolicyType string

const (
	PolicyPrint    PolicyType = "print"
	PolicyQuota    PolicyType = "quota"
	PolicySecurity PolicyType = "security"
	PolicyCost     PolicyType = "cost"
)

// Policy 描述一条打印策略，Conditions 为后端过滤对象。
type Policy struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Type        PolicyType      `json:"type"`
	Priority    int             `json:"priority"`
	Enabled     bool            `json:"isActive"`
	Conditions  json.RawMessage `json:"conditions,omitempty"`
	Actions     json.RawMessage `json:"actions,omitempty"`
	CustomerID  string          `json:"customerId,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// PolicyInput 创建或更新策略的请求体。
type PolicyInput struct {
	Name        string          `json:"name,omitempty"`
	Description string          `json:"description,omitempty"`
	Type        PolicyType      `json:"type,omitempty"`
	Priority    *int            `json:"priority,omitempty"`
	Enabled     *bool           `json:"isActive,omitempty"`
	Conditions  json.RawMessage `json:"conditions,omitempty"`
	Actions     json.RawMessage `json:"actions,omitempty"`
	CustomerID  string          `json:"customerId,omitempty"`
}

// PolicyEvaluation 策略试算结果。
type PolicyEvaluation struct {
	PolicyID string   `json:"policyId"`
	Matched  bool     `json:"matched"`
	Reasons  []string `json:"reasons,omitempty"`
}
