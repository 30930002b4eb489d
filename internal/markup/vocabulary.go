package markup

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/helsby/invoicer/internal/domain"
	"github.com/helsby/invoicer/internal/phone"
)

// dateLayout is the deterministic short date form used for every date
// placeholder. ISO dates sort, diff and test cleanly, so that is the contract.
const dateLayout = "2006-01-02"

// vocabulary is the fixed placeholder set. Optional fields resolve to the
// empty string when absent, never a literal "null". The engine orders these
// longest-token-first before use.
func vocabulary() []binding {
	return []binding{
		// Company identity and banking.
		{"company_name", func(rc *domain.RenderingContext) string { return rc.Company.Name }},
		{"company_email", func(rc *domain.RenderingContext) string { return rc.Company.Email }},
		{"company_phone", func(rc *domain.RenderingContext) string { return phone.Normalize(rc.Company.Phone) }},
		{"company_website", func(rc *domain.RenderingContext) string { return rc.Company.Website }},
		{"company_address_line1", func(rc *domain.RenderingContext) string {
			return addressLine1(rc.Company.AddressLine1, rc.Company.AddressLine2)
		}},
		{"company_address_line2", func(rc *domain.RenderingContext) string { return rc.Company.AddressLine2 }},
		{"company_city", func(rc *domain.RenderingContext) string { return rc.Company.City }},
		{"company_county", func(rc *domain.RenderingContext) string { return rc.Company.County }},
		{"company_postcode", func(rc *domain.RenderingContext) string { return rc.Company.Postcode }},
		{"bank_name", func(rc *domain.RenderingContext) string { return rc.Company.BankName }},
		{"account_name", func(rc *domain.RenderingContext) string { return rc.Company.AccountName }},
		{"account_number", func(rc *domain.RenderingContext) string { return rc.Company.AccountNumber }},
		{"sort_code", func(rc *domain.RenderingContext) string { return rc.Company.SortCode }},
		{"iban_number", func(rc *domain.RenderingContext) string { return rc.Company.IBAN }},

		// Customer identity and address. customer_name is the combined field;
		// the longest-first ordering keeps it ahead of its constituents.
		{"customer_name", func(rc *domain.RenderingContext) string { return rc.Customer.FullName() }},
		{"customer_first_name", func(rc *domain.RenderingContext) string { return rc.Customer.FirstName }},
		{"customer_last_name", func(rc *domain.RenderingContext) string { return rc.Customer.LastName }},
		{"customer_email", func(rc *domain.RenderingContext) string { return rc.Customer.Email }},
		{"customer_phone", func(rc *domain.RenderingContext) string { return phone.Normalize(rc.Customer.Phone) }},
		{"customer_address_line1", func(rc *domain.RenderingContext) string {
			return addressLine1(rc.Customer.AddressLine1, rc.Customer.AddressLine2)
		}},
		{"customer_address_line2", func(rc *domain.RenderingContext) string { return rc.Customer.AddressLine2 }},
		{"customer_address_line3", func(rc *domain.RenderingContext) string { return rc.Customer.AddressLine3 }},
		{"customer_city", func(rc *domain.RenderingContext) string { return rc.Customer.City }},
		{"customer_county", func(rc *domain.RenderingContext) string { return rc.Customer.County }},
		{"customer_postcode", func(rc *domain.RenderingContext) string { return rc.Customer.Postcode }},
		{"customer_country", func(rc *domain.RenderingContext) string { return rc.Customer.Country }},

		// Invoice identity, dates, money, status.
		{"invoice_reference", func(rc *domain.RenderingContext) string { return rc.Invoice.Reference }},
		{"invoice_date", func(rc *domain.RenderingContext) string { return rc.Invoice.CreatedAt.Format(dateLayout) }},
		{"due_date", func(rc *domain.RenderingContext) string { return rc.Invoice.DueDate.Format(dateLayout) }},
		{"invoice_status", func(rc *domain.RenderingContext) string { return strings.ToUpper(string(rc.Invoice.Status)) }},
		{"currency", func(rc *domain.RenderingContext) string { return currencySymbol(rc.Invoice.Currency) }},
		{"subtotal", func(rc *domain.RenderingContext) string { return money(rc.Summary.Subtotal) }},
		{"tax", func(rc *domain.RenderingContext) string { return money(rc.Summary.Tax) }},
		{"total", func(rc *domain.RenderingContext) string { return money(rc.Summary.Total) }},
		{"invoice_items", itemRows},
	}
}

// addressLine1 renders line1 with a trailing comma separator only when line2
// follows it. The comma separates, it does not terminate.
func addressLine1(line1, line2 string) string {
	if line1 == "" {
		return ""
	}
	if line2 == "" {
		return line1
	}
	return line1 + ", "
}

// itemRows generates one table row per merged line item, in aggregator order.
// Amounts carry the context's currency symbol; the template embeds none.
func itemRows(rc *domain.RenderingContext) string {
	symbol := currencySymbol(rc.Invoice.Currency)

	var b strings.Builder
	for _, item := range rc.Summary.Items {
		b.WriteString("<tr>")
		b.WriteString("<td>")
		b.WriteString(escape(item.ProductName))
		b.WriteString("</td>")
		b.WriteString(`<td class="qty">`)
		b.WriteString(decimal.NewFromInt32(item.Quantity).String())
		b.WriteString("</td>")
		b.WriteString("<td>")
		b.WriteString(symbol)
		b.WriteString(money(item.UnitPrice))
		b.WriteString("</td>")
		b.WriteString("<td>")
		b.WriteString(symbol)
		b.WriteString(money(item.TotalPrice))
		b.WriteString("</td>")
		b.WriteString("</tr>\n")
	}
	return b.String()
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// currencySymbol maps an ISO 4217 code to its display symbol. Codes without a
// conventional symbol fall back to the code itself as a prefix.
func currencySymbol(code string) string {
	switch strings.ToUpper(code) {
	case "GBP":
		return "£"
	case "USD":
		return "$"
	case "EUR":
		return "€"
	default:
		return strings.ToUpper(code) + " "
	}
}
