package pos

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/order"
)

// DataService is the remote data source a submission writes to.
type DataService interface {
	CreateOrder(ctx context.Context, in order.NewOrder) (order.Order, error)
	CreateOrderItem(ctx context.Context, in order.NewItem) (order.Item, error)
	CreatePayment(ctx context.Context, in order.NewPayment) (order.Payment, error)
}

// Notifier is told about every successful submission.
type Notifier interface {
	OrderSubmitted(ctx context.Context, r Result) error
}

// Result describes a finished submission. When the order was created by an
// earlier attempt, Order only carries its ID and Resumed is set; Items and
// Payments hold what this attempt wrote.
type Result struct {
	Order    order.Order     `json:"order"`
	Items    []order.Item    `json:"items"`
	Payments []order.Payment `json:"payments"`
	Resumed  bool            `json:"resumed"`
	Session  Snapshot        `json:"-"`
}

type Checkout struct {
	data     DataService
	notifier Notifier
	logger   *zap.Logger
	timeout  time.Duration
}

type CheckoutOption func(*Checkout)

func WithNotifier(n Notifier) CheckoutOption {
	return func(c *Checkout) { c.notifier = n }
}

// WithNotifyTimeout bounds how long a successful submission waits on the
// notifier.
func WithNotifyTimeout(d time.Duration) CheckoutOption {
	return func(c *Checkout) { c.timeout = d }
}

func NewCheckout(data DataService, logger *zap.Logger, opts ...CheckoutOption) *Checkout {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Checkout{data: data, logger: logger, timeout: 5 * time.Second}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit writes the store's session to the data service: the order, then
// one item per line, then one payment per payment, each call awaited before
// the next. On failure the session is kept along with the progress made, and
// the next Submit continues where this one stopped. On success the store is
// reset for a new sale.
func (c *Checkout) Submit(ctx context.Context, st *Store) (*Result, error) {
	snap, err := st.BeginSubmit()
	if err != nil {
		return nil, err
	}

	finished := false
	defer func() {
		if !finished {
			st.FinishSubmit(false)
		}
	}()

	sub := *snap.Pending
	log := c.logger.With(zap.String("submission_token", sub.Token))
	res := &Result{Session: snap, Resumed: sub.OrderID != ""}

	if sub.OrderID == "" {
		o, err := c.data.CreateOrder(ctx, newOrder(snap, sub.Token))
		if err != nil {
			return nil, c.fail(log, &StepError{Step: StepOrder, Err: err})
		}
		sub.OrderID = o.ID
		st.RecordProgress(sub)
		res.Order = o
	} else {
		res.Order = order.Order{ID: sub.OrderID}
		log.Info("resuming submission",
			zap.String("order_id", sub.OrderID),
			zap.Int("items_done", sub.ItemsDone),
			zap.Int("payments_done", sub.PaymentsDone))
	}

	for i := sub.ItemsDone; i < len(snap.Lines); i++ {
		it, err := c.data.CreateOrderItem(ctx, newItem(sub.OrderID, i, snap.Lines[i]))
		if err != nil {
			return nil, c.fail(log, &StepError{Step: StepItems, OrderID: sub.OrderID, Index: i, Err: err})
		}
		sub.ItemsDone = i + 1
		st.RecordProgress(sub)
		res.Items = append(res.Items, it)
	}

	for i := sub.PaymentsDone; i < len(snap.Payments); i++ {
		p, err := c.data.CreatePayment(ctx, newPayment(sub.OrderID, snap, snap.Payments[i]))
		if err != nil {
			return nil, c.fail(log, &StepError{Step: StepPayments, OrderID: sub.OrderID, Index: i, Err: err})
		}
		sub.PaymentsDone = i + 1
		st.RecordProgress(sub)
		res.Payments = append(res.Payments, p)
	}

	st.FinishSubmit(true)
	finished = true
	log.Info("order submitted",
		zap.String("order_id", sub.OrderID),
		zap.Int("items", len(snap.Lines)),
		zap.Int("payments", len(snap.Payments)),
		zap.Float64("total", snap.Totals.Total))

	if c.notifier != nil {
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		if err := c.notifier.OrderSubmitted(nctx, *res); err != nil {
			log.Warn("order submitted notification failed", zap.String("order_id", sub.OrderID), zap.Error(err))
		}
	}
	return res, nil
}

func (c *Checkout) fail(log *zap.Logger, err *StepError) error {
	log.Warn("submission failed",
		zap.String("step", string(err.Step)),
		zap.String("order_id", err.OrderID),
		zap.Int("index", err.Index),
		zap.Error(err.Err))
	return err
}

func newOrder(snap Snapshot, token string) order.NewOrder {
	in := order.NewOrder{
		SubmissionToken: token,
		Subtotal:        snap.Totals.Subtotal,
		Tax:             snap.Totals.Tax,
		Total:           snap.Totals.Total,
		PaidAmount:      snap.Totals.TotalPaid,
	}
	if snap.Customer != nil {
		in.CustomerID = snap.Customer.ID
	}
	if snap.Pet != nil {
		in.PetID = snap.Pet.ID
	}
	if snap.Context.Kind == ContextEdit {
		in.AmendsOrderID = snap.Context.OrderID
	}
	return in
}

func newItem(orderID string, lineNo int, l CartLine) order.NewItem {
	return order.NewItem{
		OrderID:   orderID,
		LineNo:    lineNo,
		ItemID:    l.ItemID,
		Name:      l.Name,
		UnitPrice: l.UnitPrice,
		Quantity:  l.Quantity,
	}
}

func newPayment(orderID string, snap Snapshot, p Payment) order.NewPayment {
	in := order.NewPayment{
		ID:       p.ID,
		OrderID:  orderID,
		MethodID: p.MethodID,
		Amount:   p.Amount,
		PaidAt:   p.Date,
		Note:     p.Note,
	}
	if snap.Customer != nil {
		in.CustomerID = snap.Customer.ID
	}
	return in
}
