package pos

import "time"

// DefaultTaxRate is the clinic's sales tax (18%).
const DefaultTaxRate = 0.18

// Item is what the catalog hands to a session when a product or service is picked.
type Item struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
}

type CartLine struct {
	ItemID    string  `json:"itemId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
}

func (l CartLine) Subtotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

type Payment struct {
	ID       string    `json:"id"`
	MethodID string    `json:"methodId"`
	Amount   float64   `json:"amount"`
	Date     time.Time `json:"date"`
	Note     string    `json:"note,omitempty"`
}

type Customer struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type Pet struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type ContextKind string

const (
	ContextCreate ContextKind = "create"
	ContextEdit   ContextKind = "edit"
)

// Context tells whether the session builds a new sale or edits an existing order.
type Context struct {
	Kind    ContextKind `json:"kind"`
	OrderID string      `json:"orderId,omitempty"`
}

// Totals holds every value derived from a session.
type Totals struct {
	Subtotal        float64 `json:"subtotal"`
	Tax             float64 `json:"tax"`
	Total           float64 `json:"total"`
	TotalPaid       float64 `json:"totalPaid"`
	Remaining       float64 `json:"remaining"`
	Change          float64 `json:"change"`
	PaymentComplete bool    `json:"paymentComplete"`
	CanProcessOrder bool    `json:"canProcessOrder"`
}
