package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type NotificationAction string

const (
	ActionProductRemoved  NotificationAction = "product_removed"
	ActionProductRestored NotificationAction = "product_restored"
	ActionAppealRejected  NotificationAction = "appeal_rejected"
	ActionBookmark        NotificationAction = "bookmark"
	ActionRecommendation  NotificationAction = "recommendation"
	ActionComment         NotificationAction = "comment"
	ActionReply           NotificationAction = "reply"
)

func (a NotificationAction) IsValid() bool {
	switch a {
	case ActionProductRemoved, ActionProductRestored, ActionAppealRejected,
		ActionBookmark, ActionRecommendation, ActionComment, ActionReply:
		return true
	}
	return false
}

// Notification is never deleted. Only Read and, for product_removed rows,
// Metadata change after insert.
type Notification struct {
	ID        uuid.UUID          `json:"id" db:"id"`
	UserID    uuid.UUID          `json:"user_id" db:"user_id"`
	Action    NotificationAction `json:"action" db:"action"`
	Target    uuid.UUID          `json:"target" db:"target"`
	ActorID   *uuid.UUID         `json:"actor_id,omitempty" db:"actor_id"`
	Read      bool               `json:"read" db:"read"`
	Metadata  NullJSON           `json:"metadata" db:"metadata"`
	CreatedAt time.Time          `json:"created_at" db:"created_at"`

	Actor   *SafeUser `json:"actor,omitempty" db:"-"`
	Product *Product  `json:"product,omitempty" db:"-"`
}

// RemovalMetadata is carried by product_removed notifications. The appeal
// and rejection fields are filled in place as the workflow progresses.
type RemovalMetadata struct {
	ProductName     string     `json:"productName"`
	Reason          string     `json:"reason"`
	CanAppeal       bool       `json:"canAppeal"`
	Appealed        bool       `json:"appealed,omitempty"`
	AppealMessage   *string    `json:"appealMessage,omitempty"`
	AppealDate      *time.Time `json:"appealDate,omitempty"`
	AppealRejected  bool       `json:"appealRejected,omitempty"`
	RejectionReason *string    `json:"rejectionReason,omitempty"`
	RejectedBy      *uuid.UUID `json:"rejectedBy,omitempty"`
	RejectedAt      *time.Time `json:"rejectedAt,omitempty"`
}

// DecisionMetadata is carried by product_restored and appeal_rejected.
type DecisionMetadata struct {
	ProductName string `json:"productName"`
	Message     string `json:"message"`
}

// ActivityMetadata is carried by comment and reply notifications.
type ActivityMetadata struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// EncodeMetadata checks that v is the metadata shape of action and encodes
// it. Bookmark and recommendation notifications carry no metadata.
func EncodeMetadata(action NotificationAction, v any) (json.RawMessage, error) {
	switch action {
	case ActionProductRemoved:
		m, ok := v.(RemovalMetadata)
		if !ok {
			return nil, fmt.Errorf("%s requires RemovalMetadata, got %T", action, v)
		}
		if m.ProductName == "" || m.Reason == "" {
			return nil, fmt.Errorf("%s metadata requires productName and reason", action)
		}
	case ActionProductRestored, ActionAppealRejected:
		m, ok := v.(DecisionMetadata)
		if !ok {
			return nil, fmt.Errorf("%s requires DecisionMetadata, got %T", action, v)
		}
		if m.Message == "" {
			return nil, fmt.Errorf("%s metadata requires message", action)
		}
	case ActionComment, ActionReply:
		if _, ok := v.(ActivityMetadata); !ok {
			return nil, fmt.Errorf("%s requires ActivityMetadata, got %T", action, v)
		}
	case ActionBookmark, ActionRecommendation:
		if v != nil {
			return nil, fmt.Errorf("%s carries no metadata", action)
		}
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown notification action %q", action)
	}
	return json.Marshal(v)
}

// NewNotification builds an unread notification with validated metadata.
func NewNotification(recipient uuid.UUID, action NotificationAction, target uuid.UUID, actor *uuid.UUID, metadata any) (*Notification, error) {
	raw, err := EncodeMetadata(action, metadata)
	if err != nil {
		return nil, err
	}
	return &Notification{
		ID:       uuid.New(),
		UserID:   recipient,
		Action:   action,
		Target:   target,
		ActorID:  actor,
		Metadata: NewNullJSON(raw),
	}, nil
}

// RemovalMetadata decodes the metadata of a product_removed notification.
// A malformed payload is an error, never an empty value.
func (n *Notification) RemovalMetadata() (*RemovalMetadata, error) {
	if n.Action != ActionProductRemoved {
		return nil, fmt.Errorf("notification %s is %s, not %s", n.ID, n.Action, ActionProductRemoved)
	}
	if !n.Metadata.Valid {
		return &RemovalMetadata{}, nil
	}
	var m RemovalMetadata
	if err := json.Unmarshal(n.Metadata.Bytes(), &m); err != nil {
		return nil, fmt.Errorf("decode metadata of notification %s: %w", n.ID, err)
	}
	return &m, nil
}

type AppealInput struct {
	AppealMessage string `json:"appeal_message" validate:"required,min=10,max=2000"`
}

type RejectAppealInput struct {
	RejectionReason *string `json:"rejection_reason,omitempty" validate:"omitempty,max=1000"`
}

// AppealedRemoval is one entry of the admin appeal queue.
type AppealedRemoval struct {
	Notification Notification    `json:"notification"`
	Metadata     RemovalMetadata `json:"metadata"`
	User         *SafeUser       `json:"user,omitempty"`
	Product      *Product        `json:"product,omitempty"`
	HasAppeal    bool            `json:"has_appeal"`
}
