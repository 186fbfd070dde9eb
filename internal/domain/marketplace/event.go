package marketplace

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	EventOrderPlaced          = "order.placed"
	EventOrderPaid            = "order.paid"
	EventOrderCancelled       = "order.cancelled"
	EventOrderShipped         = "order.shipped"
	EventOrderDelivered       = "order.delivered"
	EventOrderCompleted       = "order.completed"
	EventOrderReturnRequested = "order.return_requested"
	EventOrderReturnRefunded  = "order.return_refunded"
	EventOrderReturnRejected  = "order.return_rejected"
)

const (
	EventStatusPending   = "pending"
	EventStatusPublished = "published"
	EventStatusFailed    = "failed"
)

// OrderEvent is an outbox row appended in the same transaction that commits
// the order change it describes. A relay publishes pending rows afterwards.
type OrderEvent struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID uuid.UUID `gorm:"type:uuid;column:order_id;not null;index" json:"order_id"`

	Kind    string         `gorm:"column:kind;not null;index" json:"kind"`
	Payload datatypes.JSON `gorm:"column:payload" json:"payload"`

	// pending|published|failed
	Status      string     `gorm:"column:status;not null;index:idx_order_event_status_created,priority:1" json:"status"`
	Attempts    int        `gorm:"column:attempts;not null;default:0" json:"attempts"`
	LastError   string     `gorm:"column:last_error;type:text" json:"last_error,omitempty"`
	PublishedAt *time.Time `gorm:"column:published_at" json:"published_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;index:idx_order_event_status_created,priority:2" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (OrderEvent) TableName() string { return "order_event" }

// OrderEventPayload is the published body of every order event.
type OrderEventPayload struct {
	EventID    uuid.UUID    `json:"event_id"`
	Kind       string       `json:"kind"`
	OrderID    uuid.UUID    `json:"order_id"`
	ClientID   uuid.UUID    `json:"client_id"`
	Status     OrderStatus  `json:"status"`
	Total      Money        `json:"total_amount"`
	SellerID   *uuid.UUID   `json:"seller_id,omitempty"`
	Return     ReturnStatus `json:"return_status,omitempty"`
	Refunded   *Money       `json:"refunded,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// NewOrderEvent snapshots o into a pending outbox row.
func NewOrderEvent(kind string, o *Order, sellerID *uuid.UUID, refunded *Money) (*OrderEvent, error) {
	id := uuid.New()
	now := Clock()
	body := OrderEventPayload{
		EventID:    id,
		Kind:       kind,
		OrderID:    o.ID,
		ClientID:   o.ClientID,
		Status:     o.Status,
		Total:      o.TotalAmount,
		SellerID:   sellerID,
		Refunded:   refunded,
		OccurredAt: now,
	}
	if sellerID != nil {
		body.Return = o.ReturnStatusFor(*sellerID)
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return &OrderEvent{
		ID:        id,
		OrderID:   o.ID,
		Kind:      kind,
		Payload:   datatypes.JSON(raw),
		Status:    EventStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
