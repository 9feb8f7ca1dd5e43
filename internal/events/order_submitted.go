package events

import (
	"time"

	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/pos"
)

const (
	orderSubmittedEventName    = "OrderSubmitted"
	orderSubmittedEventVersion = 1
	orderSubmittedSchema       = "contracts/events/pos/OrderSubmitted.v1.payload.schema.json"

	orderAbandonedEventName    = "OrderAbandoned"
	orderAbandonedEventVersion = 1
	orderAbandonedSchema       = "contracts/events/pos/OrderAbandoned.v1.payload.schema.json"
)

type SubmittedLine struct {
	ItemID    string  `json:"itemId"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unitPrice"`
	Quantity  int     `json:"quantity"`
}

type SubmittedPayment struct {
	ID       string    `json:"id"`
	MethodID string    `json:"methodId"`
	Amount   float64   `json:"amount"`
	Date     time.Time `json:"date"`
}

type OrderSubmittedPayload struct {
	OrderID       string             `json:"orderId"`
	CustomerID    string             `json:"customerId"`
	PetID         string             `json:"petId,omitempty"`
	AmendsOrderID string             `json:"amendsOrderId,omitempty"`
	Lines         []SubmittedLine    `json:"lines"`
	Payments      []SubmittedPayment `json:"payments"`
	Subtotal      float64            `json:"subtotal"`
	Tax           float64            `json:"tax"`
	Total         float64            `json:"total"`
	TotalPaid     float64            `json:"totalPaid"`
	Change        float64            `json:"change"`
	Resumed       bool               `json:"resumed"`
	SubmittedAt   time.Time          `json:"submittedAt"`
}

type OrderSubmittedEnvelope = EventEnvelope[OrderSubmittedPayload]

// BuildOrderSubmittedEnvelope describes a finished submission. Events are
// partitioned by customer so consumers see a customer's sales in order.
func BuildOrderSubmittedEnvelope(r pos.Result, seq *int64, meta EnvelopeMetadata) OrderSubmittedEnvelope {
	snap := r.Session
	p := OrderSubmittedPayload{
		OrderID:     r.Order.ID,
		Lines:       make([]SubmittedLine, 0, len(snap.Lines)),
		Payments:    make([]SubmittedPayment, 0, len(snap.Payments)),
		Subtotal:    snap.Totals.Subtotal,
		Tax:         snap.Totals.Tax,
		Total:       snap.Totals.Total,
		TotalPaid:   snap.Totals.TotalPaid,
		Change:      snap.Totals.Change,
		Resumed:     r.Resumed,
		SubmittedAt: time.Now().UTC(),
	}
	if snap.Customer != nil {
		p.CustomerID = snap.Customer.ID
	}
	if snap.Pet != nil {
		p.PetID = snap.Pet.ID
	}
	if snap.Context.Kind == pos.ContextEdit {
		p.AmendsOrderID = snap.Context.OrderID
	}
	for _, l := range snap.Lines {
		p.Lines = append(p.Lines, SubmittedLine{ItemID: l.ItemID, Name: l.Name, UnitPrice: l.UnitPrice, Quantity: l.Quantity})
	}
	for _, pm := range snap.Payments {
		p.Payments = append(p.Payments, SubmittedPayment{ID: pm.ID, MethodID: pm.MethodID, Amount: pm.Amount, Date: pm.Date})
	}

	return newEnvelope(orderSubmittedEventName, orderSubmittedEventVersion, orderSubmittedSchema,
		customerPartition(p.CustomerID), seq, meta, p)
}

// OrderAbandonedPayload reports a submission dropped when its session was
// cleared before it finished. OrderID is empty when the order step never
// answered; the order, if any, is then only known by its submission token.
type OrderAbandonedPayload struct {
	OrderID         string    `json:"orderId"`
	SubmissionToken string    `json:"submissionToken"`
	TerminalID      string    `json:"terminalId"`
	ItemsDone       int       `json:"itemsDone"`
	PaymentsDone    int       `json:"paymentsDone"`
	AbandonedAt     time.Time `json:"abandonedAt"`
}

type OrderAbandonedEnvelope = EventEnvelope[OrderAbandonedPayload]

func BuildOrderAbandonedEnvelope(terminalID string, sub pos.Submission, meta EnvelopeMetadata) OrderAbandonedEnvelope {
	key := sub.OrderID
	if key == "" {
		key = "submission:" + sub.Token
	}
	return newEnvelope(orderAbandonedEventName, orderAbandonedEventVersion, orderAbandonedSchema,
		key, nil, meta, OrderAbandonedPayload{
			OrderID:         sub.OrderID,
			SubmissionToken: sub.Token,
			TerminalID:      terminalID,
			ItemsDone:       sub.ItemsDone,
			PaymentsDone:    sub.PaymentsDone,
			AbandonedAt:     time.Now().UTC(),
		})
}

func customerPartition(customerID string) string {
	return "customer:" + customerID
}
