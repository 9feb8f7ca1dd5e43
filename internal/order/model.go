package order

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalid = errors.New("invalid order data")

// NewOrder is the header written first when a sale is submitted.
// SubmissionToken makes the write idempotent across retries.
type NewOrder struct {
	SubmissionToken string  `json:"submissionToken,omitempty"`
	CustomerID      string  `json:"customerId"`
	PetID           string  `json:"petId,omitempty"`
	AmendsOrderID   string  `json:"amendsOrderId,omitempty"`
	Subtotal        float64 `json:"subtotal"`
	Tax             float64 `json:"tax"`
	Total           float64 `json:"total"`
	PaidAmount      float64 `json:"paidAmount"`
}

func (o NewOrder) Validate() error {
	switch {
	case o.CustomerID == "":
		return fmt.Errorf("%w: customerId is required", ErrInvalid)
	case o.Subtotal < 0 || o.Tax < 0 || o.Total < 0 || o.PaidAmount < 0:
		return fmt.Errorf("%w: amounts must not be negative", ErrInvalid)
	}
	return nil
}

type Order struct {
	ID              string    `json:"orderId"`
	SubmissionToken string    `json:"submissionToken,omitempty"`
	CustomerID      string    `json:"customerId"`
	PetID           string    `json:"petId,omitempty"`
	AmendsOrderID   string    `json:"amendsOrderId,omitempty"`
	Status          Status    `json:"status"`
	Subtotal        float64   `json:"subtotal"`
	Tax             float64   `json:"tax"`
	Total           float64   `json:"total"`
	PaidAmount      float64   `json:"paidAmount"`
	CreatedAt       time.Time `json:"createdAt"`
	Items           []Item    `json:"items,omitempty"`
	Payments        []Payment `json:"payments,omitempty"`
}

// NewItem is one cart line written against an existing order. LineNo is the
// line's position in the cart and keys the idempotent insert.
type NewItem struct {
	OrderID   string  `json:"orderId"`
	LineNo    int     `json:"lineNo"`
	ItemID    string  `json:"itemId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
}

func (it NewItem) Subtotal() float64 { return it.UnitPrice * float64(it.Quantity) }

func (it NewItem) Validate() error {
	switch {
	case it.OrderID == "":
		return fmt.Errorf("%w: orderId is required", ErrInvalid)
	case it.ItemID == "":
		return fmt.Errorf("%w: itemId is required", ErrInvalid)
	case it.Quantity < 1:
		return fmt.Errorf("%w: quantity must be at least 1", ErrInvalid)
	case it.UnitPrice < 0:
		return fmt.Errorf("%w: unitPrice must not be negative", ErrInvalid)
	}
	return nil
}

type Item struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"orderId"`
	LineNo    int       `json:"lineNo"`
	ItemID    string    `json:"itemId"`
	Name      string    `json:"name"`
	UnitPrice float64   `json:"unitPrice"`
	Quantity  int       `json:"quantity"`
	Subtotal  float64   `json:"subtotal"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewPayment carries the id the session assigned, so repeating it is safe.
type NewPayment struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"orderId"`
	CustomerID string    `json:"customerId"`
	MethodID   string    `json:"paymentMethodId"`
	Amount     float64   `json:"amount"`
	PaidAt     time.Time `json:"paidAt"`
	Note       string    `json:"note,omitempty"`
}

func (p NewPayment) Validate() error {
	switch {
	case p.ID == "":
		return fmt.Errorf("%w: id is required", ErrInvalid)
	case p.OrderID == "":
		return fmt.Errorf("%w: orderId is required", ErrInvalid)
	case p.MethodID == "":
		return fmt.Errorf("%w: paymentMethodId is required", ErrInvalid)
	case p.Amount < 0:
		return fmt.Errorf("%w: amount must not be negative", ErrInvalid)
	}
	return nil
}

type Payment struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"orderId"`
	CustomerID string    `json:"customerId"`
	MethodID   string    `json:"paymentMethodId"`
	Amount     float64   `json:"amount"`
	PaidAt     time.Time `json:"paidAt"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
