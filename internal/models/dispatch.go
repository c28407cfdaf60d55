package models

import "time"

// Delivery channels.
const (
	ChannelSMS   = "SMS"
	ChannelEmail = "EMAIL"
	ChannelPush  = "PUSH"
)

// Delivery statuses.
const (
	DispatchStatusPending   = "PENDING"
	DispatchStatusSent      = "SENT"
	DispatchStatusFailed    = "FAILED"
	DispatchStatusSimulated = "SIMULATED"
)

// DispatchRecord is one delivery attempt to one contact over one channel.
// Created once per (contact, channel) pair during dispatch.
type DispatchRecord struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	AlertID     string     `json:"alertId" gorm:"size:36;index"`
	ContactID   uint       `json:"contactId" gorm:"index"`
	Channel     string     `json:"channel" gorm:"size:10"`
	Status      string     `json:"status" gorm:"size:10;default:PENDING"`
	MessageBody string     `json:"messageBody"`
	SentAt      *time.Time `json:"sentAt"`
	ErrorDetail string     `json:"errorDetail,omitempty"`
	CreatedAt   time.Time  `json:"createdAt" gorm:"autoCreateTime"`
}
