package pos

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Submission tracks how far a checkout got against the data service, so a
// retry resumes instead of creating a second order.
type Submission struct {
	Token        string `json:"token"`
	OrderID      string `json:"orderId,omitempty"`
	ItemsDone    int    `json:"itemsDone"`
	PaymentsDone int    `json:"paymentsDone"`
}

// Session is the state of one in-progress sale. It is not safe for
// concurrent use; share it through a Store.
type Session struct {
	lines    []CartLine
	customer *Customer
	pet      *Pet
	payments []Payment
	context  Context
	taxRate  float64
	pending  *Submission
	now      func() time.Time
}

func NewSession(taxRate float64) *Session {
	return &Session{
		context: Context{Kind: ContextCreate},
		taxRate: taxRate,
		now:     time.Now,
	}
}

func (s *Session) Lines() []CartLine {
	out := make([]CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *Session) Payments() []Payment {
	out := make([]Payment, len(s.payments))
	copy(out, s.payments)
	return out
}

func (s *Session) Customer() *Customer { return s.customer }

func (s *Session) Pet() *Pet { return s.pet }

func (s *Session) Context() Context { return s.context }

func (s *Session) TaxRate() float64 { return s.taxRate }

func (s *Session) Pending() *Submission { return s.pending }

// locked reports whether a submission has been attempted. Even without an
// order id the order may exist remotely under the submission token, so the
// cart must not change until that submission finishes or is cleared.
func (s *Session) locked() error {
	if s.pending != nil {
		return ErrSubmissionPending
	}
	return nil
}

func (s *Session) AddLine(item Item, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if err := s.locked(); err != nil {
		return err
	}
	if i := s.lineIndex(item.ID); i >= 0 {
		s.lines[i].Quantity += quantity
		return nil
	}
	s.lines = append(s.lines, CartLine{
		ItemID:    item.ID,
		Name:      item.Name,
		UnitPrice: item.UnitPrice,
		Quantity:  quantity,
	})
	return nil
}

// SetLineQuantity clamps to 1; it never removes the line.
func (s *Session) SetLineQuantity(itemID string, quantity int) error {
	if err := s.locked(); err != nil {
		return err
	}
	i := s.lineIndex(itemID)
	if i < 0 {
		return ErrLineNotFound
	}
	s.lines[i].Quantity = max(quantity, 1)
	return nil
}

func (s *Session) IncrementLine(itemID string) error {
	if err := s.locked(); err != nil {
		return err
	}
	i := s.lineIndex(itemID)
	if i < 0 {
		return ErrLineNotFound
	}
	s.lines[i].Quantity++
	return nil
}

// DecrementLine removes the line when its quantity would drop below 1.
func (s *Session) DecrementLine(itemID string) error {
	if err := s.locked(); err != nil {
		return err
	}
	i := s.lineIndex(itemID)
	if i < 0 {
		return ErrLineNotFound
	}
	if s.lines[i].Quantity <= 1 {
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
		return nil
	}
	s.lines[i].Quantity--
	return nil
}

func (s *Session) RemoveLine(itemID string) error {
	if err := s.locked(); err != nil {
		return err
	}
	if i := s.lineIndex(itemID); i >= 0 {
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
	}
	return nil
}

// SetCustomer replaces the customer. Pets belong to a customer, so the pet
// selection is always dropped.
func (s *Session) SetCustomer(c Customer) error {
	if err := s.locked(); err != nil {
		return err
	}
	s.customer = &c
	s.pet = nil
	return nil
}

func (s *Session) SetPet(p Pet) error {
	if err := s.locked(); err != nil {
		return err
	}
	if s.customer == nil {
		return ErrNoCustomer
	}
	s.pet = &p
	return nil
}

func (s *Session) ClearPet() error {
	if err := s.locked(); err != nil {
		return err
	}
	s.pet = nil
	return nil
}

// AddPayment appends p and returns it with its id and date filled in.
// Overpayment is allowed and surfaces as change.
func (s *Session) AddPayment(p Payment) (Payment, error) {
	if p.Amount < 0 {
		return Payment{}, ErrInvalidAmount
	}
	if err := s.locked(); err != nil {
		return Payment{}, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Date.IsZero() {
		p.Date = s.now().UTC()
	}
	s.payments = append(s.payments, p)
	return p, nil
}

func (s *Session) RemovePayment(id string) error {
	if err := s.locked(); err != nil {
		return err
	}
	for i := range s.payments {
		if s.payments[i].ID == id {
			s.payments = append(s.payments[:i], s.payments[i+1:]...)
			return nil
		}
	}
	return ErrPaymentNotFound
}

// Clear resets the sale. The context and tax rate are kept.
func (s *Session) Clear() {
	s.lines = nil
	s.payments = nil
	s.customer = nil
	s.pet = nil
	s.pending = nil
}

func (s *Session) StartNewOrder() {
	s.Clear()
	s.context = Context{Kind: ContextCreate}
}

func (s *Session) EditOrder(orderID string) {
	s.Clear()
	s.context = Context{Kind: ContextEdit, OrderID: orderID}
}

// Validate reports every unmet precondition of a submission together.
func (s *Session) Validate() error {
	var problems []string
	if len(s.lines) == 0 {
		problems = append(problems, ProblemEmptyCart)
	}
	if s.customer == nil {
		problems = append(problems, ProblemNoCustomer)
	}
	if len(s.payments) == 0 {
		problems = append(problems, ProblemNoPayments)
	}
	if t := s.Totals(); !t.PaymentComplete {
		problems = append(problems, fmt.Sprintf("%s: %.2f remaining", ProblemPaymentIncomplete, t.Remaining))
	}
	for i, p := range s.payments {
		if p.MethodID == "" {
			problems = append(problems, fmt.Sprintf("%s for payment %d", ProblemNoPaymentMethod, i+1))
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func (s *Session) lineIndex(itemID string) int {
	for i := range s.lines {
		if s.lines[i].ItemID == itemID {
			return i
		}
	}
	return -1
}
