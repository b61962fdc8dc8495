package cart

import (
	"github.com/fjod/holiday-rush/internal/domain"
	"github.com/shopspring/decimal"
)

// Ledger is a quantity-keyed list of cart lines. Quantities are clamped to
// the product's stock and never go below one; it has no failure modes.
type Ledger struct {
	lines []domain.CartLine
}

func NewLedger(lines []domain.CartLine) *Ledger {
	l := &Ledger{lines: make([]domain.CartLine, len(lines))}
	copy(l.lines, lines)
	return l
}

func (l *Ledger) Lines() []domain.CartLine {
	out := make([]domain.CartLine, len(l.lines))
	copy(out, l.lines)
	return out
}

func (l *Ledger) Quantity(productID string) int {
	if i := l.index(productID); i >= 0 {
		return l.lines[i].Quantity
	}
	return 0
}

// Add merges q units of p into the ledger and returns the resulting quantity.
func (l *Ledger) Add(p domain.Product, q int) int {
	if q <= 0 {
		return l.Quantity(p.ID)
	}
	if i := l.index(p.ID); i >= 0 {
		l.lines[i].Product = p
		l.lines[i].Quantity = min(l.lines[i].Quantity+q, p.Stock)
		return l.lines[i].Quantity
	}
	qty := min(q, p.Stock)
	if qty <= 0 {
		return 0
	}
	l.lines = append(l.lines, domain.CartLine{Product: p, Quantity: qty})
	return qty
}

// Update sets the quantity of p. q <= 0 removes the line.
func (l *Ledger) Update(p domain.Product, q int) int {
	if q <= 0 || p.Stock <= 0 {
		l.Remove(p.ID)
		return 0
	}
	qty := min(q, p.Stock)
	if i := l.index(p.ID); i >= 0 {
		l.lines[i].Product = p
		l.lines[i].Quantity = qty
		return qty
	}
	l.lines = append(l.lines, domain.CartLine{Product: p, Quantity: qty})
	return qty
}

func (l *Ledger) Remove(productID string) {
	if i := l.index(productID); i >= 0 {
		l.lines = append(l.lines[:i], l.lines[i+1:]...)
	}
}

func (l *Ledger) Clear() {
	l.lines = nil
}

func (l *Ledger) ItemCount() int {
	n := 0
	for _, line := range l.lines {
		n += line.Quantity
	}
	return n
}

func (l *Ledger) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, line := range l.lines {
		total = total.Add(line.LineTotal())
	}
	return total
}

func (l *Ledger) index(productID string) int {
	for i, line := range l.lines {
		if line.Product.ID == productID {
			return i
		}
	}
	return -1
}
