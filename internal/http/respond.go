package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/customer"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/listquery"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/pos"
	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/sessions"
)

const maxBodyBytes = 1 << 20

var (
	errBadRequest      = errors.New("bad request")
	errCustomerChanged = errors.New("customer changed while selecting the pet")
)

type errorResponse struct {
	Error         string   `json:"error"`
	CorrelationID string   `json:"correlationId,omitempty"`
	Problems      []string `json:"problems,omitempty"`
	Step          string   `json:"step,omitempty"`
	OrderID       string   `json:"orderId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// writeError maps domain errors to status codes. Anything unrecognised is
// logged and reported as a 500 without details.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse{
		Error:         err.Error(),
		CorrelationID: middleware.GetCorrelationID(r.Context()),
	}

	var (
		verr *pos.ValidationError
		serr *pos.StepError
	)
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &verr):
		status = http.StatusUnprocessableEntity
		resp.Error = "cannot process order"
		resp.Problems = verr.Problems
	case errors.As(err, &serr):
		status = http.StatusBadGateway
		resp.Error = "processing failed"
		resp.Step = string(serr.Step)
		resp.OrderID = serr.OrderID
	case errors.Is(err, pos.ErrSubmitInProgress),
		errors.Is(err, pos.ErrSubmissionPending),
		errors.Is(err, pos.ErrNoCustomer),
		errors.Is(err, catalog.ErrInactive),
		errors.Is(err, order.ErrConflict),
		errors.Is(err, errCustomerChanged):
		status = http.StatusConflict
	case errors.Is(err, catalog.ErrNotFound),
		errors.Is(err, customer.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, pos.ErrLineNotFound),
		errors.Is(err, pos.ErrPaymentNotFound):
		status = http.StatusNotFound
	case errors.Is(err, customer.ErrPetNotOwned):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, errBadRequest),
		errors.Is(err, pos.ErrInvalidQuantity),
		errors.Is(err, pos.ErrInvalidAmount),
		errors.Is(err, catalog.ErrInvalid),
		errors.Is(err, order.ErrInvalid),
		errors.Is(err, listquery.ErrInvalid),
		errors.Is(err, sessions.ErrInvalidTerminal):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.Logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("correlation_id", resp.CorrelationID),
			zap.Error(err))
		resp.Error = "internal error"
	}
	writeJSON(w, status, resp)
}
