package model

import "time"

// ContractStatus 合同状态。
type ContractStatus string

const (
	ContractDraft     ContractStatus = "draft"
	ContractActive    ContractStatus = "active"
	ContractExpired   ContractStatus = "expired"
	ContractCancelled ContractStatus = "cancelled"
)

// Contract 表示客户租赁或服务合同。
type Contract struct {
	ID          string         `json:"id"`
	Number      string         `json:"contractNumber"`
	CustomerID  string         `json:"customerId"`
	Type        string         `json:"type,omitempty"`
	Status      ContractStatus `json:"status"`
	StartDate   time.Time      `json:"startDate"`
	EndDate     time.Time      `json:"endDate"`
	MonthlyFee  string         `json:"monthlyFee,omitempty"`
	Currency    string         `json:"currency,omitempty"`
	Description string         `json:"description,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// ContractInput 创建或更新合同的请求体。
type ContractInput struct {
	Number      string         `json:"contractNumber,omitempty"`
	CustomerID  string         `json:"customerId,omitempty"`
	Type        string         `json:"type,omitempty"`
	Status      ContractStatus `json:"status,omitempty"`
	StartDate   *time.Time     `json:"startDate,omitempty"`
	EndDate     *time.Time     `json:"endDate,omitempty"`
	MonthlyFee  string         `json:"monthlyFee,omitempty"`
	Currency    string         `json:"currency,omitempty"`
	Description string         `json:"description,omitempty"`
}
