package model

import "time"

// DeviceStatus 设备在线状态。
type DeviceStatus string

const (
	DeviceOnline      DeviceStatus = "online"
	DeviceOffline     DeviceStatus = "offline"
	DeviceError       DeviceStatus = "error"
	DeviceMaintenance DeviceStatus = "maintenance"
)

// Device 表示一台打印设备。
type Device struct {
	ID           string       `json:"id"`
	SerialNumber string       `json:"serialNumber"`
	Model        string       `json:"model"`
	Location     string       `json:"location,omitempty"`
	IPAddress    string       `json:"ipAddress,omitempty"`
	Status       DeviceStatus `json:"status"`
	CustomerID   string       `json:"customerId,omitempty"`
	ContractID   string       `json:"contractId,omitempty"`
	TotalPages   int64        `json:"totalPageCount"`
	BWPages      int64        `json:"bwPageCount"`
	ColorPages   int64        `json:"colorPageCount"`
	LastSeenAt   *time.Time   `json:"lastSeenAt,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// DeviceInput 创建或更新设备的请求体。
type DeviceInput struct {
	SerialNumber string       `json:"serialNumber,omitempty"`
	Model        string       `json:"model,omitempty"`
	Location     string       `json:"location,omitempty"`
	IPAddress    string       `json:"ipAddress,omitempty"`
	Status       DeviceStatus `json:"status,omitempty"`
	CustomerID   string       `json:"customerId,omitempty"`
	ContractID   string       `json:"contractId,omitempty"`
}
