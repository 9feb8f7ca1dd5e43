package events

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/pos"
)

type JSONPublisher interface {
	PublishJSON(ctx context.Context, routingKey string, v any) error
}

type Sequencer interface {
	NextSequence(ctx context.Context, partitionKey string) (int64, error)
}

// Notifier turns submission outcomes into events. A nil Sequencer publishes
// events without a sequence number.
type Notifier struct {
	pub    JSONPublisher
	seq    Sequencer
	logger *zap.Logger
}

func NewNotifier(pub JSONPublisher, seq Sequencer, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{pub: pub, seq: seq, logger: logger}
}

// OrderSubmitted implements pos.Notifier.
func (n *Notifier) OrderSubmitted(ctx context.Context, r pos.Result) error {
	meta := EnvelopeMetadata{
		CorrelationID: middleware.GetCorrelationID(ctx),
		CausationID:   r.Order.ID,
	}

	var seq *int64
	if n.seq != nil && r.Session.Customer != nil {
		s, err := n.seq.NextSequence(ctx, customerPartition(r.Session.Customer.ID))
		if err != nil {
			return fmt.Errorf("order submitted sequence: %w", err)
		}
		seq = &s
	}

	env := BuildOrderSubmittedEnvelope(r, seq, meta)
	if err := n.pub.PublishJSON(ctx, OrderSubmittedRoutingKey, env); err != nil {
		return fmt.Errorf("publish order submitted: %w", err)
	}
	n.logger.Debug("published order submitted",
		zap.String("event_id", env.EventID),
		zap.String("order_id", r.Order.ID))
	return nil
}

func (n *Notifier) OrderAbandoned(ctx context.Context, terminalID string, sub pos.Submission) error {
	env := BuildOrderAbandonedEnvelope(terminalID, sub, EnvelopeMetadata{
		CorrelationID: middleware.GetCorrelationID(ctx),
	})
	if err := n.pub.PublishJSON(ctx, OrderAbandonedRoutingKey, env); err != nil {
		return fmt.Errorf("publish order abandoned: %w", err)
	}
	return nil
}
