package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/pos"
)

type published struct {
	routingKey string
	body       []byte
}

type fakePublisher struct {
	msgs []published
	err  error
}

func (f *fakePublisher) PublishJSON(_ context.Context, routingKey string, v any) error {
	if f.err != nil {
		return f.err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	f.msgs = append(f.msgs, published{routingKey: routingKey, body: b})
	return nil
}

type fakeSequencer struct {
	next map[string]int64
}

func (f *fakeSequencer) NextSequence(_ context.Context, key string) (int64, error) {
	f.next[key]++
	return f.next[key], nil
}

func submittedResult() pos.Result {
	return pos.Result{
		Order: order.Order{ID: "order-1"},
		Session: pos.Snapshot{
			Lines:    []pos.CartLine{{ItemID: "vac", Name: "Rabies vaccine", UnitPrice: 25, Quantity: 1}},
			Customer: &pos.Customer{ID: "cust-1"},
			Pet:      &pos.Pet{ID: "pet-1"},
			Payments: []pos.Payment{{ID: "pay-1", MethodID: "cash", Amount: 30, Date: time.Now().UTC()}},
			Context:  pos.Context{Kind: pos.ContextEdit, OrderID: "order-0"},
			Totals:   pos.Totals{Subtotal: 25, Tax: 4.5, Total: 29.5, TotalPaid: 30, Change: 0.5},
		},
	}
}

func TestNotifier_OrderSubmitted(t *testing.T) {
	pub := &fakePublisher{}
	seq := &fakeSequencer{next: map[string]int64{"customer:cust-1": 6}}
	n := NewNotifier(pub, seq, zap.NewNop())

	ctx := middleware.WithCorrelationID(context.Background(), "cid-1")
	require.NoError(t, n.OrderSubmitted(ctx, submittedResult()))

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, OrderSubmittedRoutingKey, pub.msgs[0].routingKey)

	var env OrderSubmittedEnvelope
	require.NoError(t, json.Unmarshal(pub.msgs[0].body, &env))
	require.NoError(t, env.Validate(orderSubmittedEventName, orderSubmittedEventVersion))
	assert.Equal(t, "cid-1", env.CorrelationID)
	assert.Equal(t, "order-1", env.CausationID)
	assert.Equal(t, "customer:cust-1", env.PartitionKey)
	require.NotNil(t, env.Sequence)
	assert.Equal(t, int64(7), *env.Sequence)
	assert.Equal(t, producerName, env.Producer)

	p := env.Payload
	assert.Equal(t, "order-1", p.OrderID)
	assert.Equal(t, "pet-1", p.PetID)
	assert.Equal(t, "order-0", p.AmendsOrderID)
	require.Len(t, p.Lines, 1)
	assert.Equal(t, "vac", p.Lines[0].ItemID)
	require.Len(t, p.Payments, 1)
	assert.InDelta(t, 0.5, p.Change, 1e-9)
}

func TestNotifier_WithoutSequencer(t *testing.T) {
	pub := &fakePublisher{}
	n := NewNotifier(pub, nil, nil)

	require.NoError(t, n.OrderSubmitted(context.Background(), submittedResult()))

	var env OrderSubmittedEnvelope
	require.NoError(t, json.Unmarshal(pub.msgs[0].body, &env))
	assert.Nil(t, env.Sequence)
	assert.NotEmpty(t, env.CorrelationID, "a correlation id is generated when none is in the context")
}

func TestNotifier_PublishError(t *testing.T) {
	n := NewNotifier(&fakePublisher{err: errors.New("channel closed")}, nil, nil)

	err := n.OrderSubmitted(context.Background(), submittedResult())
	require.ErrorContains(t, err, "publish order submitted")
}

func TestNotifier_OrderAbandoned(t *testing.T) {
	pub := &fakePublisher{}
	n := NewNotifier(pub, nil, nil)

	sub := pos.Submission{Token: "tok", OrderID: "order-9", ItemsDone: 2}
	require.NoError(t, n.OrderAbandoned(context.Background(), "front-desk", sub))

	require.Len(t, pub.msgs, 1)
	assert.Equal(t, OrderAbandonedRoutingKey, pub.msgs[0].routingKey)

	var env OrderAbandonedEnvelope
	require.NoError(t, json.Unmarshal(pub.msgs[0].body, &env))
	require.NoError(t, env.Validate(orderAbandonedEventName, orderAbandonedEventVersion))
	assert.Equal(t, "order-9", env.PartitionKey)
	assert.Equal(t, "front-desk", env.Payload.TerminalID)
	assert.Equal(t, 2, env.Payload.ItemsDone)
}

func TestNotifier_OrderAbandonedWithoutOrderID(t *testing.T) {
	pub := &fakePublisher{}
	n := NewNotifier(pub, nil, nil)

	require.NoError(t, n.OrderAbandoned(context.Background(), "front-desk", pos.Submission{Token: "tok-2"}))

	var env OrderAbandonedEnvelope
	require.NoError(t, json.Unmarshal(pub.msgs[0].body, &env))
	require.NoError(t, env.Validate(orderAbandonedEventName, orderAbandonedEventVersion))
	assert.Equal(t, "submission:tok-2", env.PartitionKey)
	assert.Empty(t, env.Payload.OrderID)
	assert.Equal(t, "tok-2", env.Payload.SubmissionToken)
}

func TestEnvelopeValidate(t *testing.T) {
	env := newEnvelope("X", 1, "schema", "p", nil, EnvelopeMetadata{}, struct{}{})
	require.NoError(t, env.Validate("X", 1))
	require.Error(t, env.Validate("Y", 1))
	require.Error(t, env.Validate("X", 2))

	env.PartitionKey = ""
	require.ErrorContains(t, env.Validate("X", 1), "partitionKey")
}
