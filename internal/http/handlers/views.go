package handlers

import (
	"time"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/marketplace-backend/internal/domain/aggregates"
)

const moneyScale = 2

type accountView struct {
	Kind     string    `json:"kind"`
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Balance  string    `json:"balance"`
}

func toAccountView(r domainagg.AccountResult) accountView {
	return accountView{
		Kind:     string(r.Kind),
		ID:       r.ID,
		Username: r.Username,
		Balance:  r.Balance.StringFixed(moneyScale),
	}
}

type productView struct {
	ID            uuid.UUID `json:"id"`
	SellerID      uuid.UUID `json:"seller_id"`
	Price         string    `json:"price"`
	Stock         int       `json:"stock"`
	ListingStatus string    `json:"listing_status"`
}

func toProductView(r domainagg.ProductResult) productView {
	return productView{
		ID:            r.ProductID,
		SellerID:      r.SellerID,
		Price:         r.Price.StringFixed(moneyScale),
		Stock:         r.Stock,
		ListingStatus: r.ListingStatus,
	}
}

type cartView struct {
	ID       uuid.UUID `json:"id"`
	ClientID uuid.UUID `json:"client_id"`
	Lines    int       `json:"lines"`
	Total    string    `json:"total"`
}

func toCartView(r domainagg.CartResult) cartView {
	return cartView{
		ID:       r.CartID,
		ClientID: r.ClientID,
		Lines:    r.Lines,
		Total:    r.Total.StringFixed(moneyScale),
	}
}

type orderView struct {
	ID           uuid.UUID  `json:"id"`
	ClientID     uuid.UUID  `json:"client_id"`
	Status       string     `json:"status"`
	TotalAmount  string     `json:"total_amount"`
	OrderDate    time.Time  `json:"order_date"`
	DeliveryDate *time.Time `json:"delivery_date,omitempty"`
}

func toOrderView(r domainagg.OrderResult) orderView {
	return orderView{
		ID:           r.OrderID,
		ClientID:     r.ClientID,
		Status:       r.Status,
		TotalAmount:  r.TotalAmount.StringFixed(moneyScale),
		OrderDate:    r.OrderDate,
		DeliveryDate: r.DeliveryDate,
	}
}

type returnView struct {
	OrderID  uuid.UUID `json:"order_id"`
	SellerID uuid.UUID `json:"seller_id"`
	Status   string    `json:"status"`
	Refunded string    `json:"refunded"`
}

func toReturnView(r domainagg.ReturnResult) returnView {
	return returnView{
		OrderID:  r.OrderID,
		SellerID: r.SellerID,
		Status:   r.Status,
		Refunded: r.Refunded.StringFixed(moneyScale),
	}
}
