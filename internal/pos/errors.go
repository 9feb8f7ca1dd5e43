package pos

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrInvalidAmount     = errors.New("payment amount must not be negative")
	ErrLineNotFound      = errors.New("line not found")
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrNoCustomer        = errors.New("no customer selected")
	ErrSubmitInProgress  = errors.New("a submission is already in progress")
	ErrSubmissionPending = errors.New("a submission was already attempted, retry it or clear the session")
)

// Problem messages reported by Validate.
const (
	ProblemEmptyCart         = "cart is empty"
	ProblemNoCustomer        = "no customer selected"
	ProblemNoPayments        = "no payment recorded"
	ProblemPaymentIncomplete = "payment incomplete"
	ProblemNoPaymentMethod   = "payment method not chosen"
)

// ValidationError lists every unmet precondition of a submission at once.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "cannot process order: " + strings.Join(e.Problems, "; ")
}

// Step identifies which remote call of a submission failed.
type Step string

const (
	StepOrder    Step = "order"
	StepItems    Step = "items"
	StepPayments Step = "payments"
)

// StepError reports a remote failure during submission. OrderID is set when
// the order record was created before the failure.
type StepError struct {
	Step    Step
	OrderID string
	Index   int
	Err     error
}

func (e *StepError) Error() string {
	if e.OrderID == "" {
		return fmt.Sprintf("submit %s: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("submit %s[%d] for order %s: %v", e.Step, e.Index, e.OrderID, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }
