package order

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helsby/invoicer/internal/domain"
)

func line(product string, qty int32, unit, total string) domain.OrderLine {
	return domain.OrderLine{
		ID:          uuid.New(),
		ProductName: product,
		Quantity:    qty,
		UnitPrice:   decimal.RequireFromString(unit),
		TotalPrice:  decimal.RequireFromString(total),
	}
}

func TestAggregateEmptyBatch(t *testing.T) {
	summary, err := Aggregate(nil)
	assert.Nil(t, summary)
	require.Error(t, err)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))

	_, err = Aggregate([]domain.OrderLine{})
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestAggregateMergesRepeatedProducts(t *testing.T) {
	lines := []domain.OrderLine{
		line("Widget", 2, "10.00", "20.00"),
		line("Widget", 1, "10.00", "10.00"),
	}

	summary, err := Aggregate(lines)
	require.NoError(t, err)

	require.Len(t, summary.Items, 1)
	item := summary.Items[0]
	assert.Equal(t, "Widget", item.ProductName)
	assert.EqualValues(t, 3, item.Quantity)
	assert.True(t, item.TotalPrice.Equal(decimal.RequireFromString("30.00")), "total %s", item.TotalPrice)
	assert.True(t, item.UnitPrice.Equal(decimal.RequireFromString("10.00")))

	assert.Equal(t, "30.00", summary.Subtotal.StringFixed(2))
	assert.Equal(t, "6.00", summary.Tax.StringFixed(2))
	assert.Equal(t, "36.00", summary.Total.StringFixed(2))
}

func TestAggregatePreservesFirstOccurrenceOrder(t *testing.T) {
	lines := []domain.OrderLine{
		line("Beans", 1, "4.50", "4.50"),
		line("Filter", 2, "1.25", "2.50"),
		line("Beans", 3, "4.50", "13.50"),
		line("Grinder", 1, "89.99", "89.99"),
	}

	summary, err := Aggregate(lines)
	require.NoError(t, err)

	require.Len(t, summary.Items, 3)
	assert.Equal(t, "Beans", summary.Items[0].ProductName)
	assert.Equal(t, "Filter", summary.Items[1].ProductName)
	assert.Equal(t, "Grinder", summary.Items[2].ProductName)
	assert.EqualValues(t, 4, summary.Items[0].Quantity)
	assert.Equal(t, "18.00", summary.Items[0].TotalPrice.StringFixed(2))
}

func TestAggregateKeepsFirstUnitPriceOnMerge(t *testing.T) {
	// Same product sold at two unit prices; the first one wins for display.
	lines := []domain.OrderLine{
		line("Widget", 1, "10.00", "10.00"),
		line("Widget", 1, "12.00", "12.00"),
	}

	summary, err := Aggregate(lines)
	require.NoError(t, err)

	require.Len(t, summary.Items, 1)
	assert.Equal(t, "10.00", summary.Items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "22.00", summary.Items[0].TotalPrice.StringFixed(2))
}

func TestAggregateTotalsBalanceToTheCent(t *testing.T) {
	// Awkward subtotals whose 20% tax needs rounding.
	lines := []domain.OrderLine{
		line("A", 1, "0.03", "0.03"),
		line("B", 1, "10.01", "10.01"),
		line("C", 3, "3.33", "9.99"),
	}

	summary, err := Aggregate(lines)
	require.NoError(t, err)

	assert.Equal(t, "20.03", summary.Subtotal.StringFixed(2))
	expectedTax := summary.Subtotal.Mul(TaxRate).Round(2)
	assert.True(t, summary.Tax.Equal(expectedTax))
	assert.True(t, summary.Total.Sub(summary.Subtotal).Sub(summary.Tax).IsZero())
}

func TestAggregateDoesNotMutateInput(t *testing.T) {
	lines := []domain.OrderLine{
		line("Widget", 2, "10.00", "20.00"),
		line("Widget", 1, "10.00", "10.00"),
	}
	before := lines[0].Quantity

	_, err := Aggregate(lines)
	require.NoError(t, err)

	assert.Equal(t, before, lines[0].Quantity)
	assert.Equal(t, "20.00", lines[0].TotalPrice.StringFixed(2))
}
