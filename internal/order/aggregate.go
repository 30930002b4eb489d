// Package order folds raw order-line records for a batch into deduplicated
// product lines and computes invoice totals.
package order

import (
	"github.com/shopspring/decimal"

	"github.com/helsby/invoicer/internal/domain"
)

// TaxRate is the single flat rate applied to every invoice subtotal.
var TaxRate = decimal.NewFromFloat(0.20)

// ErrEmptyBatch is returned when a batch resolves to zero order lines.
// Callers treat this as "order details not found", a 404-class condition.
var ErrEmptyBatch = domain.Errorf(domain.ENOTFOUND, "order.aggregate", "batch has no orders")

// Aggregate merges the lines of a single batch into one item per distinct
// product name and computes subtotal, tax and total.
//
// Lines with the same product name sum their quantities and total prices; the
// unit price of the first occurrence is kept for display. Item order follows
// the first occurrence of each product name, so the result is deterministic
// for a given input order. The input slice is never mutated.
//
// The subtotal is summed over the raw, ungrouped lines to avoid compounding
// rounding through the merged totals.
func Aggregate(lines []domain.OrderLine) (*domain.BatchSummary, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyBatch
	}

	index := make(map[string]int, len(lines))
	items := make([]domain.MergedLineItem, 0, len(lines))
	subtotal := decimal.Zero

	for _, line := range lines {
		subtotal = subtotal.Add(line.TotalPrice)

		if i, ok := index[line.ProductName]; ok {
			items[i].Quantity += line.Quantity
			items[i].TotalPrice = items[i].TotalPrice.Add(line.TotalPrice)
			continue
		}

		index[line.ProductName] = len(items)
		items = append(items, domain.MergedLineItem{
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			TotalPrice:  line.TotalPrice,
		})
	}

	tax := subtotal.Mul(TaxRate).Round(2)

	return &domain.BatchSummary{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
		Items:    items,
	}, nil
}
