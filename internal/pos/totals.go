package pos

import "math"

// amounts closer than this are treated as equal so float noise cannot
// leave a fully paid sale "incomplete" or report a phantom change.
const amountEpsilon = 1e-9

func subtotal(lines []CartLine) float64 {
	var sum float64
	for _, l := range lines {
		sum += l.Subtotal()
	}
	return sum
}

func totalPaid(payments []Payment) float64 {
	var sum float64
	for _, p := range payments {
		sum += p.Amount
	}
	return sum
}

func computeTotals(lines []CartLine, payments []Payment, taxRate float64, hasCustomer bool) Totals {
	t := Totals{Subtotal: subtotal(lines)}
	t.Tax = t.Subtotal * taxRate
	t.Total = t.Subtotal + t.Tax
	t.TotalPaid = totalPaid(payments)

	diff := t.Total - t.TotalPaid
	switch {
	case math.Abs(diff) < amountEpsilon:
		// exact payment, both stay zero
	case diff > 0:
		t.Remaining = diff
	default:
		t.Change = -diff
	}

	t.PaymentComplete = t.TotalPaid+amountEpsilon >= t.Total
	t.CanProcessOrder = len(lines) > 0 && hasCustomer && t.PaymentComplete && len(payments) > 0
	return t
}

func (s *Session) Subtotal() float64 { return subtotal(s.lines) }

func (s *Session) Tax() float64 { return s.Subtotal() * s.taxRate }

func (s *Session) Total() float64 { return s.Subtotal() + s.Tax() }

func (s *Session) TotalPaid() float64 { return totalPaid(s.payments) }

func (s *Session) Remaining() float64 { return s.Totals().Remaining }

func (s *Session) Change() float64 { return s.Totals().Change }

func (s *Session) IsPaymentComplete() bool { return s.Totals().PaymentComplete }

func (s *Session) CanProcessOrder() bool { return s.Totals().CanProcessOrder }

func (s *Session) Totals() Totals {
	return computeTotals(s.lines, s.payments, s.taxRate, s.customer != nil)
}
