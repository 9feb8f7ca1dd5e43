package clients

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/order"
)

// OrderClient talks to a remote data API that owns orders, order items and
// payments. It satisfies pos.DataService.
type OrderClient struct{ c *Client }

func NewOrderClient(c *Client) *OrderClient { return &OrderClient{c: c} }

func (oc *OrderClient) CreateOrder(ctx context.Context, in order.NewOrder) (order.Order, error) {
	var out order.Order
	err := oc.c.DoJSON(ctx, http.MethodPost, "/api/orders", in.SubmissionToken, in, &out)
	return out, mapStatus(err)
}

func (oc *OrderClient) CreateOrderItem(ctx context.Context, in order.NewItem) (order.Item, error) {
	var out order.Item
	key := fmt.Sprintf("%s:item:%d", in.OrderID, in.LineNo)
	err := oc.c.DoJSON(ctx, http.MethodPost, "/api/orders/"+url.PathEscape(in.OrderID)+"/items", key, in, &out)
	return out, mapStatus(err)
}

func (oc *OrderClient) CreatePayment(ctx context.Context, in order.NewPayment) (order.Payment, error) {
	var out order.Payment
	err := oc.c.DoJSON(ctx, http.MethodPost, "/api/orders/"+url.PathEscape(in.OrderID)+"/payments", in.ID, in, &out)
	return out, mapStatus(err)
}

func (oc *OrderClient) GetOrder(ctx context.Context, orderID string) (order.Order, error) {
	var out order.Order
	err := oc.c.DoJSON(ctx, http.MethodGet, "/api/orders/"+url.PathEscape(orderID), "", nil, &out)
	return out, mapStatus(err)
}

func mapStatus(err error) error {
	var se *StatusError
	if !errors.As(err, &se) {
		return err
	}
	switch se.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", order.ErrNotFound, err)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %w", order.ErrInvalid, err)
	case http.StatusConflict:
		return fmt.Errorf("%w: %w", order.ErrConflict, err)
	}
	return err
}
