package model

import "time"

// Role 用户角色。
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleOperator Role = "operator"
	RoleViewer   Role = "viewer"
)

// User 描述控制台用户。
type User struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	Role       Role       `json:"role"`
	CustomerID string     `json:"customerId,omitempty"`
	Active     bool       `json:"isActive"`
	LastLogin  *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// UserInput 创建或更新用户的请求体，零值字段不提交。
type UserInput struct {
	Email      string `json:"email,omitempty"`
	Name       string `json:"name,omitempty"`
	Password   string `json:"password,omitempty"`
	Role       Role   `json:"role,omitempty"`
	CustomerID string `json:"customerId,omitempty"`
	Active     *bool  `json:"isActive,omitempty"`
}
