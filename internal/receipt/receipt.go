// Package receipt renders a submitted order as a fixed-width text receipt
// for the counter printer.
package receipt

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/pos-service-go/internal/order"
)

const Width = 40

type Header struct {
	ClinicName string
	Currency   string
	// MethodNames maps payment method ids to printable labels.
	MethodNames map[string]string
	Location    *time.Location
}

func Format(o order.Order, h Header) string {
	loc := h.Location
	if loc == nil {
		loc = time.UTC
	}

	var b strings.Builder
	rule := strings.Repeat("-", Width) + "\n"

	center(&b, h.ClinicName)
	center(&b, "Order "+o.ID)
	center(&b, o.CreatedAt.In(loc).Format("2006-01-02 15:04"))
	if o.AmendsOrderID != "" {
		center(&b, "Amends order "+o.AmendsOrderID)
	}
	if o.Status == order.StatusAmended {
		center(&b, "** SUPERSEDED **")
	}
	b.WriteString(rule)

	for _, it := range o.Items {
		b.WriteString(truncate(it.Name, Width) + "\n")
		qty := fmt.Sprintf("  %d x %s", it.Quantity, money(it.UnitPrice))
		row(&b, qty, money(it.Subtotal))
	}
	b.WriteString(rule)

	row(&b, "Subtotal", money(o.Subtotal))
	row(&b, "Tax", money(o.Tax))
	row(&b, "TOTAL "+h.Currency, money(o.Total))
	b.WriteString(rule)

	var paid decimal.Decimal
	for _, p := range o.Payments {
		label := p.MethodID
		if name, ok := h.MethodNames[p.MethodID]; ok {
			label = name
		}
		row(&b, label, money(p.Amount))
		paid = paid.Add(decimal.NewFromFloat(p.Amount))
	}
	total := decimal.NewFromFloat(o.Total)
	if change := paid.Sub(total).Round(2); change.IsPositive() {
		row(&b, "Change", change.StringFixed(2))
	} else if due := total.Sub(paid).Round(2); due.IsPositive() {
		row(&b, "Balance due", due.StringFixed(2))
	}

	return b.String()
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func row(b *strings.Builder, label, amount string) {
	space := Width - len(amount) - 1
	label = truncate(label, space)
	fmt.Fprintf(b, "%-*s %s\n", space, label, amount)
}

func center(b *strings.Builder, s string) {
	s = truncate(s, Width)
	pad := (Width - len(s)) / 2
	b.WriteString(strings.Repeat(" ", pad) + s + "\n")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "~"
}
