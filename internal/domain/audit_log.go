package domain

import (
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditProductRemoved  AuditAction = "product.remove"
	AuditProductRestored AuditAction = "product.restore"
	AuditAppealRejected  AuditAction = "appeal.reject"
	AuditAppealSubmitted AuditAction = "appeal.submit"
)

type AuditLog struct {
	ID         uuid.UUID   `json:"id" db:"id"`
	UserID     uuid.UUID   `json:"user_id" db:"user_id"`
	UserName   *string     `json:"user_name,omitempty" db:"user_name"`
	Action     AuditAction `json:"action" db:"action"`
	EntityType string      `json:"entity_type" db:"entity_type"`
	EntityID   uuid.UUID   `json:"entity_id" db:"entity_id"`
	OldValue   NullJSON    `json:"old_value" db:"old_value"`
	NewValue   NullJSON    `json:"new_value" db:"new_value"`
	IPAddress  *string     `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent  *string     `json:"user_agent,omitempty" db:"user_agent"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
}

type CreateAuditLogInput struct {
	UserID     uuid.UUID
	Action     AuditAction
	EntityType string
	EntityID   uuid.UUID
	OldValue   any
	NewValue   any
	Meta       RequestMeta
}

const (
	EntityProduct      = "product"
	EntityNotification = "notification"
)
