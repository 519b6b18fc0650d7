package model

import "time"

// Consumable 表示耗材库存，例如硒鼓和墨盒。
type Consumable struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	PartNumber   string    `json:"partNumber,omitempty"`
	Type         string    `json:"type"`
	Color        string    `json:"color,omitempty"`
	Stock        int       `json:"stockQuantity"`
	MinStock     int       `json:"minStockLevel"`
	CompatibleTo []string  `json:"compatibleModels,omitempty"`
	DeviceID     string    `json:"deviceId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// LowStock 库存低于警戒线。
func (c *Consumable) LowStock() bool {
	return c != nil && c.Stock <= c.MinStock
}

// ConsumableInput 创建或更新耗材的请求体。
type ConsumableInput struct {
	Name         string   `json:"name,omitempty"`
	PartNumber   string   `json:"partNumber,omitempty"`
	Type         string   `json:"type,omitempty"`
	Color        string   `json:"color,omitempty"`
	Stock        *int     `json:"stockQuantity,omitempty"`
	MinStock     *int     `json:"minStockLevel,omitempty"`
	CompatibleTo []string `json:"compatibleModels,omitempty"`
}
