package interfaces

import (
	"context"
	"time"

	"github.com/YelzhanWeb/cafe/internal/domain"
)

type NotificationType string

const (
	NotificationOrderCompleted NotificationType = "order_completed"
	NotificationItemRepurposed NotificationType = "item_repurposed"
)

// NotificationMessage is a push event addressed to one customer.
type NotificationMessage struct {
	Type         NotificationType `json:"type"`
	CustomerID   int64            `json:"customer_id"`
	CustomerName string           `json:"customer_name"`
	Kind         string           `json:"kind,omitempty"`
	FromCustomer string           `json:"from_customer,omitempty"`
	Message      string           `json:"message"`
	Timestamp    time.Time        `json:"timestamp"`
}

// Listener is the pair of push hooks a session registers for its customer.
type Listener struct {
	OnCompleted  func(o *domain.Order)
	OnRepurposed func(r domain.Repurposal)
}

// ActivityRecorder receives every state change and push event the engine produces.
// Implementations must not block the caller.
type ActivityRecorder interface {
	RecordSnapshot(s domain.Snapshot)
	RecordNotification(msg NotificationMessage)
}

type EventPublisher interface {
	PublishNotification(ctx context.Context, msg NotificationMessage) error
	PublishActivity(ctx context.Context, rec *domain.ActivityRecord) error
}

type MessageConsumer interface {
	ConsumeNotifications(ctx context.Context, handler NotificationHandler) error
}

type NotificationHandler func(ctx context.Context, body []byte) error
