package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/dropship-backend/pkg/enums"
)

// NotificationTemplate is a message body with {{placeholders}} bound to a trigger.
type NotificationTemplate struct {
	ID           uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name         string                    `gorm:"column:name;not null;uniqueIndex:notification_templates_name_key" json:"name"`
	Channel      enums.NotificationChannel `gorm:"column:channel;not null" json:"channel"`
	TriggerEvent string                    `gorm:"column:trigger_event;not null;index" json:"trigger_event"`
	Subject      *string                   `gorm:"column:subject" json:"subject"`
	Body         string                    `gorm:"column:body;not null" json:"body"`
	IsActive     bool                      `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt    time.Time                 `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time                 `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (t *NotificationTemplate) BeforeCreate(*gorm.DB) error {
	ensureID(&t.ID)
	return nil
}

// CommunicationLog records every outbound message and internal note.
type CommunicationLog struct {
	ID                uuid.UUID                  `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderID           *uuid.UUID                 `gorm:"column:order_id;type:uuid;index" json:"order_id"`
	CustomerID        *uuid.UUID                 `gorm:"column:customer_id;type:uuid" json:"customer_id"`
	TemplateID        *uuid.UUID                 `gorm:"column:template_id;type:uuid" json:"template_id"`
	Channel           enums.CommunicationChannel `gorm:"column:channel;not null" json:"channel"`
	Status            enums.CommunicationStatus  `gorm:"column:status;not null" json:"status"`
	Recipient         string                     `gorm:"column:recipient;not null" json:"recipient"`
	Subject           *string                    `gorm:"column:subject" json:"subject"`
	Content           string                     `gorm:"column:content;not null" json:"content"`
	ProviderMessageID *string                    `gorm:"column:provider_message_id" json:"provider_message_id"`
	ErrorMessage      *string                    `gorm:"column:error_message" json:"error_message"`
	SentAt            *time.Time                 `gorm:"column:sent_at" json:"sent_at"`
	CreatedAt         time.Time                  `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (l *CommunicationLog) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}
