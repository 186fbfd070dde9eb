package marketplace

import "time"

type ListingStatus string

const (
	ListingListed   ListingStatus = "listed"
	ListingUnlisted ListingStatus = "unlisted"
)

type SelectionStatus string

const (
	SelectionUnselected SelectionStatus = "unselected"
	SelectionSelected   SelectionStatus = "selected"
)

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

// orderTransitions is the whole order state machine; anything absent is illegal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderPaid},
	OrderPaid:      {OrderShipped, OrderCancelled},
	OrderShipped:   {OrderDelivered},
	OrderDelivered: {OrderCompleted},
}

func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	for _, next := range orderTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderPaid, OrderShipped, OrderDelivered, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// ReturnStatus is tracked per (order, seller). A missing row reads as ReturnNone.
type ReturnStatus string

const (
	ReturnNone      ReturnStatus = "none"
	ReturnRequested ReturnStatus = "requested"
	ReturnApproved  ReturnStatus = "approved"
	ReturnRejected  ReturnStatus = "rejected"
	ReturnRefunded  ReturnStatus = "refunded"
)

var returnTransitions = map[ReturnStatus][]ReturnStatus{
	ReturnNone:      {ReturnRequested},
	ReturnRequested: {ReturnApproved, ReturnRejected},
	ReturnApproved:  {ReturnRefunded},
}

func (s ReturnStatus) CanTransitionTo(to ReturnStatus) bool {
	for _, next := range returnTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Clock is swapped in tests that need fixed order/delivery dates.
var Clock = func() time.Time { return time.Now().UTC() }
