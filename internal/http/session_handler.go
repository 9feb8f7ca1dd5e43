package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/pos"
)

const abandonNotifyTimeout = 3 * time.Second

type storeCtxKey struct{}

type sessionResponse struct {
	TerminalID string `json:"terminalId"`
	pos.Snapshot
}

type submitResponse struct {
	Result  *pos.Result     `json:"result"`
	Session sessionResponse `json:"session"`
}

// withSession resolves the terminal's store once per request.
func (h *Handler) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st, err := h.Sessions.Get(r.Context(), chi.URLParam(r, "terminalId"))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), storeCtxKey{}, st)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func storeFrom(r *http.Request) *pos.Store {
	return r.Context().Value(storeCtxKey{}).(*pos.Store)
}

func (h *Handler) writeSession(w http.ResponseWriter, r *http.Request, status int, snap pos.Snapshot) {
	writeJSON(w, status, sessionResponse{
		TerminalID: chi.URLParam(r, "terminalId"),
		Snapshot:   snap,
	})
}

// update applies fn to the request's session and answers with the new state.
func (h *Handler) update(w http.ResponseWriter, r *http.Request, fn func(*pos.Session) error) {
	snap, err := storeFrom(r).Update(fn)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeSession(w, r, http.StatusOK, snap)
}

func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	h.writeSession(w, r, http.StatusOK, storeFrom(r).Snapshot())
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	h.writeSession(w, r, http.StatusOK, storeFrom(r).Snapshot())
}

func (h *Handler) ClearSession(w http.ResponseWriter, r *http.Request) {
	st := storeFrom(r)
	abandoned, err := st.Clear()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if abandoned != nil {
		terminalID := chi.URLParam(r, "terminalId")
		h.Logger.Warn("session cleared with a partly written order",
			zap.String("terminal_id", terminalID),
			zap.String("submission_token", abandoned.Token),
			zap.String("order_id", abandoned.OrderID),
			zap.Int("items_done", abandoned.ItemsDone),
			zap.Int("payments_done", abandoned.PaymentsDone))
		if h.Abandoned != nil {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), abandonNotifyTimeout)
			defer cancel()
			if err := h.Abandoned.OrderAbandoned(ctx, terminalID, *abandoned); err != nil {
				h.Logger.Warn("order abandoned notification failed",
					zap.String("order_id", abandoned.OrderID), zap.Error(err))
			}
		}
	}
	h.writeSession(w, r, http.StatusOK, st.Snapshot())
}

type contextRequest struct {
	Kind    pos.ContextKind `json:"kind"`
	OrderID string          `json:"orderId"`
}

func (h *Handler) SetContext(w http.ResponseWriter, r *http.Request) {
	var req contextRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	switch req.Kind {
	case pos.ContextCreate:
		h.update(w, r, func(s *pos.Session) error {
			if err := pendingOrder(s); err != nil {
				return err
			}
			s.StartNewOrder()
			return nil
		})
	case pos.ContextEdit:
		if req.OrderID == "" {
			h.writeError(w, r, fmt.Errorf("%w: orderId is required to edit an order", errBadRequest))
			return
		}
		if _, err := h.OrderLookup(r.Context(), req.OrderID); err != nil {
			h.writeError(w, r, err)
			return
		}
		h.update(w, r, func(s *pos.Session) error {
			if err := pendingOrder(s); err != nil {
				return err
			}
			s.EditOrder(req.OrderID)
			return nil
		})
	default:
		h.writeError(w, r, fmt.Errorf("%w: kind must be create or edit", errBadRequest))
	}
}

// pendingOrder refuses to switch context away from an attempted submission;
// the cashier has to retry or clear first.
func pendingOrder(s *pos.Session) error {
	if s.Pending() != nil {
		return pos.ErrSubmissionPending
	}
	return nil
}

type addLineRequest struct {
	ItemID   string `json:"itemId"`
	Quantity *int   `json:"quantity"`
}

func (h *Handler) AddLine(w http.ResponseWriter, r *http.Request) {
	var req addLineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.ItemID == "" {
		h.writeError(w, r, fmt.Errorf("%w: itemId is required", errBadRequest))
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	it, err := h.Catalog.ForSale(r.Context(), req.ItemID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.update(w, r, func(s *pos.Session) error {
		return s.AddLine(pos.Item{ID: it.ID, Name: it.Name, UnitPrice: it.UnitPrice}, qty)
	})
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) SetLineQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	itemID := chi.URLParam(r, "itemId")
	h.update(w, r, func(s *pos.Session) error { return s.SetLineQuantity(itemID, req.Quantity) })
}

func (h *Handler) IncrementLine(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")
	h.update(w, r, func(s *pos.Session) error { return s.IncrementLine(itemID) })
}

func (h *Handler) DecrementLine(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")
	h.update(w, r, func(s *pos.Session) error { return s.DecrementLine(itemID) })
}

func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")
	h.update(w, r, func(s *pos.Session) error { return s.RemoveLine(itemID) })
}

type customerRequest struct {
	CustomerID string `json:"customerId"`
}

func (h *Handler) SetCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.CustomerID == "" {
		h.writeError(w, r, fmt.Errorf("%w: customerId is required", errBadRequest))
		return
	}

	c, err := h.Customers.GetCustomer(r.Context(), req.CustomerID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.update(w, r, func(s *pos.Session) error {
		return s.SetCustomer(pos.Customer{ID: c.ID, Name: c.Name})
	})
}

type petRequest struct {
	PetID string `json:"petId"`
}

func (h *Handler) SetPet(w http.ResponseWriter, r *http.Request) {
	var req petRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.PetID == "" {
		h.writeError(w, r, fmt.Errorf("%w: petId is required", errBadRequest))
		return
	}

	st := storeFrom(r)
	owner := st.Snapshot().Customer
	if owner == nil {
		h.writeError(w, r, pos.ErrNoCustomer)
		return
	}
	p, err := h.Customers.PetOf(r.Context(), owner.ID, req.PetID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.update(w, r, func(s *pos.Session) error {
		if c := s.Customer(); c != nil && c.ID != owner.ID {
			return errCustomerChanged
		}
		return s.SetPet(pos.Pet{ID: p.ID, Name: p.Name})
	})
}

func (h *Handler) ClearPet(w http.ResponseWriter, r *http.Request) {
	h.update(w, r, func(s *pos.Session) error { return s.ClearPet() })
}

type paymentRequest struct {
	MethodID string    `json:"methodId"`
	Amount   float64   `json:"amount"`
	Date     time.Time `json:"date"`
	Note     string    `json:"note"`
}

// AddPayment accepts a payment without a method; Submit reports it.
func (h *Handler) AddPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.MethodID != "" && !h.Cfg.Clinic.HasPaymentMethod(req.MethodID) {
		h.writeError(w, r, fmt.Errorf("%w: unknown payment method %q", errBadRequest, req.MethodID))
		return
	}

	snap, err := storeFrom(r).Update(func(s *pos.Session) error {
		_, err := s.AddPayment(pos.Payment{
			MethodID: req.MethodID,
			Amount:   req.Amount,
			Date:     req.Date,
			Note:     req.Note,
		})
		return err
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeSession(w, r, http.StatusCreated, snap)
}

func (h *Handler) RemovePayment(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "paymentId")
	h.update(w, r, func(s *pos.Session) error { return s.RemovePayment(paymentID) })
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	st := storeFrom(r)
	res, err := h.Checkout.Submit(r.Context(), st)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, submitResponse{
		Result: res,
		Session: sessionResponse{
			TerminalID: chi.URLParam(r, "terminalId"),
			Snapshot:   st.Snapshot(),
		},
	})
}

func (h *Handler) PaymentMethods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Cfg.Clinic.PaymentMethods)
}
