package models

import (
	"time"

	"gorm.io/datatypes"
)

type NotificationLogStatus string

const (
	NotificationLogStatusReceived     NotificationLogStatus = "received"
	NotificationLogStatusHandled      NotificationLogStatus = "handled"
	NotificationLogStatusHandleFailed NotificationLogStatus = "handle_failed"
)

// NotificationLog records every webhook delivery and verification call as it
// was received and how handling ended, for audit and replay diagnosis.
type NotificationLog struct {
	ID                    string                `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Platform              string                `gorm:"column:platform;type:varchar(16);not null" json:"platform"`
	TraceID               string                `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	OriginalTransactionID string                `gorm:"column:original_transaction_id;type:varchar(255)" json:"original_transaction_id"`
	NotificationTime      time.Time             `gorm:"column:notification_time" json:"notification_time"`
	Data                  datatypes.JSON        `gorm:"column:data;type:jsonb" json:"data"`
	Result                *datatypes.JSON       `gorm:"column:result;type:jsonb" json:"result"`
	Status                NotificationLogStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	CreatedAt             time.Time             `json:"created_at"`
	UpdatedAt             time.Time             `json:"updated_at"`
}

func (NotificationLog) TableName() string { return "notification_log" }
