package features

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/pos"
)

type recordingData struct {
	calls       []string
	failPayment bool
}

func (d *recordingData) CreateOrder(_ context.Context, in order.NewOrder) (order.Order, error) {
	d.calls = append(d.calls, "order")
	return order.Order{ID: "order-1", CustomerID: in.CustomerID}, nil
}

func (d *recordingData) CreateOrderItem(_ context.Context, in order.NewItem) (order.Item, error) {
	d.calls = append(d.calls, "item")
	return order.Item{OrderID: in.OrderID, LineNo: in.LineNo}, nil
}

func (d *recordingData) CreatePayment(_ context.Context, in order.NewPayment) (order.Payment, error) {
	d.calls = append(d.calls, "payment")
	if d.failPayment {
		d.failPayment = false
		return order.Payment{}, errors.New("payment service unavailable")
	}
	return order.Payment{ID: in.ID, OrderID: in.OrderID}, nil
}

type sessionTestContext struct {
	store     *pos.Store
	data      *recordingData
	checkout  *pos.Checkout
	submitErr error
}

func (c *sessionTestContext) reset() {
	c.data = &recordingData{}
	c.checkout = pos.NewCheckout(c.data, zap.NewNop())
	c.store = nil
	c.submitErr = nil
}

func approx(want, got float64, what string) error {
	if math.Abs(want-got) > 1e-6 {
		return fmt.Errorf("expected %s %.2f, got %.6f", what, want, got)
	}
	return nil
}

// Given steps

func (c *sessionTestContext) anEmptySessionWithTaxRate(rate float64) error {
	c.store = pos.NewStore(pos.NewSession(rate))
	return nil
}

// When steps

func (c *sessionTestContext) iAddItemPricedWithQuantity(id string, price float64, qty int) error {
	_, err := c.store.Update(func(s *pos.Session) error {
		return s.AddLine(pos.Item{ID: id, Name: "Item " + id, UnitPrice: price}, qty)
	})
	return err
}

func (c *sessionTestContext) iSelectCustomer(id string) error {
	_, err := c.store.Update(func(s *pos.Session) error { return s.SetCustomer(pos.Customer{ID: id}) })
	return err
}

func (c *sessionTestContext) iSelectPet(id string) error {
	_, err := c.store.Update(func(s *pos.Session) error { return s.SetPet(pos.Pet{ID: id}) })
	return err
}

func (c *sessionTestContext) iAddAPaymentOf(method string, amount float64) error {
	_, err := c.store.Update(func(s *pos.Session) error {
		_, err := s.AddPayment(pos.Payment{MethodID: method, Amount: amount})
		return err
	})
	return err
}

func (c *sessionTestContext) iClearTheSession() error {
	_, err := c.store.Clear()
	return err
}

func (c *sessionTestContext) theDataServiceFailsTheNextPayment() error {
	c.data.failPayment = true
	return nil
}

func (c *sessionTestContext) iSubmitTheSale() error {
	_, c.submitErr = c.checkout.Submit(context.Background(), c.store)
	return nil
}

// Then steps

func (c *sessionTestContext) theSubtotalIs(v float64) error {
	return approx(v, c.store.Totals().Subtotal, "subtotal")
}

func (c *sessionTestContext) theTaxIs(v float64) error {
	return approx(v, c.store.Totals().Tax, "tax")
}

func (c *sessionTestContext) theTotalIs(v float64) error {
	return approx(v, c.store.Totals().Total, "total")
}

func (c *sessionTestContext) theTotalPaidIs(v float64) error {
	return approx(v, c.store.Totals().TotalPaid, "total paid")
}

func (c *sessionTestContext) theChangeIs(v float64) error {
	return approx(v, c.store.Totals().Change, "change")
}

func (c *sessionTestContext) theRemainingIs(v float64) error {
	return approx(v, c.store.Totals().Remaining, "remaining")
}

func (c *sessionTestContext) theCartHasLines(n int) error {
	if got := len(c.store.Snapshot().Lines); got != n {
		return fmt.Errorf("expected %d lines, got %d", n, got)
	}
	return nil
}

func (c *sessionTestContext) lineHasQuantity(id string, qty int) error {
	for _, l := range c.store.Snapshot().Lines {
		if l.ItemID == id {
			if l.Quantity != qty {
				return fmt.Errorf("expected quantity %d for %q, got %d", qty, id, l.Quantity)
			}
			return nil
		}
	}
	return fmt.Errorf("no line for %q", id)
}

func (c *sessionTestContext) thePaymentIsComplete() error {
	if !c.store.Totals().PaymentComplete {
		return errors.New("expected payment to be complete")
	}
	return nil
}

func (c *sessionTestContext) theOrderCanBeProcessed() error {
	if !c.store.Totals().CanProcessOrder {
		return errors.New("expected the order to be processable")
	}
	return nil
}

func (c *sessionTestContext) theOrderCannotBeProcessed() error {
	if c.store.Totals().CanProcessOrder {
		return errors.New("expected the order not to be processable")
	}
	return nil
}

func (c *sessionTestContext) thereAreNoPayments() error {
	if n := len(c.store.Snapshot().Payments); n != 0 {
		return fmt.Errorf("expected no payments, got %d", n)
	}
	return nil
}

func (c *sessionTestContext) noCustomerIsSelected() error {
	if c.store.Snapshot().Customer != nil {
		return errors.New("expected no customer")
	}
	return nil
}

func (c *sessionTestContext) noPetIsSelected() error {
	if c.store.Snapshot().Pet != nil {
		return errors.New("expected no pet")
	}
	return nil
}

func (c *sessionTestContext) theDataServiceReceived(calls string) error {
	if got := strings.Join(c.data.calls, ", "); got != calls {
		return fmt.Errorf("expected calls %q, got %q", calls, got)
	}
	return nil
}

func (c *sessionTestContext) theSubmissionIsRejectedWith(problem string) error {
	var verr *pos.ValidationError
	if !errors.As(c.submitErr, &verr) {
		return fmt.Errorf("expected a validation error, got %v", c.submitErr)
	}
	for _, p := range verr.Problems {
		if p == problem {
			return nil
		}
	}
	return fmt.Errorf("problem %q not in %v", problem, verr.Problems)
}

func (c *sessionTestContext) theSubmissionFailedAtStep(step string) error {
	var serr *pos.StepError
	if !errors.As(c.submitErr, &serr) {
		return fmt.Errorf("expected a step error, got %v", c.submitErr)
	}
	if string(serr.Step) != step {
		return fmt.Errorf("expected step %q, got %q", step, serr.Step)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &sessionTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^an empty session with tax rate (\d+\.\d+)$`, tc.anEmptySessionWithTaxRate)

	// When steps
	ctx.Step(`^I add item "([^"]*)" priced (\d+\.\d+) with quantity (\d+)$`, tc.iAddItemPricedWithQuantity)
	ctx.Step(`^I select customer "([^"]*)"$`, tc.iSelectCustomer)
	ctx.Step(`^I select pet "([^"]*)"$`, tc.iSelectPet)
	ctx.Step(`^I add a "([^"]*)" payment of (\d+\.\d+)$`, tc.iAddAPaymentOf)
	ctx.Step(`^I clear the session$`, tc.iClearTheSession)
	ctx.Step(`^the data service fails the next payment$`, tc.theDataServiceFailsTheNextPayment)
	ctx.Step(`^I submit the sale$`, tc.iSubmitTheSale)

	// Then steps
	ctx.Step(`^the subtotal is (\d+\.\d+)$`, tc.theSubtotalIs)
	ctx.Step(`^the tax is (\d+\.\d+)$`, tc.theTaxIs)
	ctx.Step(`^the total is (\d+\.\d+)$`, tc.theTotalIs)
	ctx.Step(`^the total paid is (\d+\.\d+)$`, tc.theTotalPaidIs)
	ctx.Step(`^the change is (\d+\.\d+)$`, tc.theChangeIs)
	ctx.Step(`^the remaining is (\d+\.\d+)$`, tc.theRemainingIs)
	ctx.Step(`^the cart has (\d+) lines?$`, tc.theCartHasLines)
	ctx.Step(`^line "([^"]*)" has quantity (\d+)$`, tc.lineHasQuantity)
	ctx.Step(`^the payment is complete$`, tc.thePaymentIsComplete)
	ctx.Step(`^the order can be processed$`, tc.theOrderCanBeProcessed)
	ctx.Step(`^the order cannot be processed$`, tc.theOrderCannotBeProcessed)
	ctx.Step(`^there are no payments$`, tc.thereAreNoPayments)
	ctx.Step(`^no customer is selected$`, tc.noCustomerIsSelected)
	ctx.Step(`^no pet is selected$`, tc.noPetIsSelected)
	ctx.Step(`^the data service received "([^"]*)"$`, tc.theDataServiceReceived)
	ctx.Step(`^the submission is rejected with "([^"]*)"$`, tc.theSubmissionIsRejectedWith)
	ctx.Step(`^the submission failed at step "([^"]*)"$`, tc.theSubmissionFailedAtStep)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"session.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
