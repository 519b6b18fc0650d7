package model

import "time"

// Customer 表示租户客户。
type Customer struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code,omitempty"`
	Email       string    `json:"contactEmail,omitempty"`
	Phone       string    `json:"contactPhone,omitempty"`
	Address     string    `json:"address,omitempty"`
	TaxCode     string    `json:"taxCode,omitempty"`
	DeviceCount int       `json:"deviceCount,omitempty"`
	Active      bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CustomerInput 创建或更新客户的请求体。
type CustomerInput struct {
	Name    string `json:"name,omitempty"`
	Code    string `json:"code,omitempty"`
	Email   string `json:"contactEmail,omitempty"`
	Phone   string `json:"contactPhone,omitempty"`
	Address string `json:"address,omitempty"`
	TaxCode string `json:"taxCode,omitempty"`
	Active  *bool  `json:"isActive,omitempty"`
}
