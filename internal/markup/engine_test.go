package markup

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helsby/invoicer/internal/domain"
)

func testContext() *domain.RenderingContext {
	created := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	due := time.Date(2025, 4, 13, 0, 0, 0, 0, time.UTC)
	return &domain.RenderingContext{
		Company: &domain.Company{
			Name:          "Acme Supplies Ltd",
			Email:         "billing@acme.example",
			Phone:         "07911123456",
			AddressLine1:  "1 Factory Road",
			AddressLine2:  "Unit 4",
			City:          "Sheffield",
			Postcode:      "S1 2AB",
			BankName:      "Example Bank",
			AccountName:   "Acme Supplies Ltd",
			AccountNumber: "12345678",
			SortCode:      "01-02-03",
		},
		Customer: &domain.Customer{
			FirstName:    "Ada",
			LastName:     "Lovelace",
			Email:        "ada@example.com",
			AddressLine1: "10 Analytical Way",
			City:         "London",
			Postcode:     "N1 9GU",
			Country:      "United Kingdom",
		},
		Invoice: &domain.Invoice{
			ID:        uuid.MustParse("7d9f2a44-51c1-4f08-9fb4-8f6f2f1c0a11"),
			Reference: "AB12CD34",
			Currency:  "GBP",
			Status:    domain.InvoiceStatusDraft,
			DueDate:   due,
			CreatedAt: created,
		},
		Summary: &domain.BatchSummary{
			Subtotal: decimal.RequireFromString("30.00"),
			Tax:      decimal.RequireFromString("6.00"),
			Total:    decimal.RequireFromString("36.00"),
			Items: []domain.MergedLineItem{
				{ProductName: "Widget", Quantity: 3, UnitPrice: decimal.RequireFromString("10.00"), TotalPrice: decimal.RequireFromString("30.00")},
			},
		},
	}
}

func testTemplate(html string) *domain.Template {
	return &domain.Template{
		HTML: html,
		CSS:  "body { font-family: sans-serif; }",
	}
}

const baseHTML = `<!DOCTYPE html><html><head><title>{{invoice_reference}}</title></head>` +
	`<body class="invoice"><h1>{{company_name}}</h1>` +
	`<p>{{customer_name}} ({{customer_first_name}})</p>` +
	`<p>{{customer_address_line1}}{{customer_address_line2}}</p>` +
	`<p>{{company_phone}} / {{company_website}}</p>` +
	`<table>{{invoice_items}}</table>` +
	`<p>Subtotal {{currency}}{{subtotal}} Tax {{currency}}{{tax}} Total {{currency}}{{total}}</p>` +
	`<p>{{invoice_status}} due {{due_date}} issued {{invoice_date}}</p>` +
	`</body></html>`

func newTestEngine() *Engine {
	return New(Options{
		PayBaseURL: "https://pay.example.com",
		AppBaseURL: "https://invoices.example.com",
	})
}

func TestRenderResolvesVocabulary(t *testing.T) {
	out, err := newTestEngine().Render(testTemplate(baseHTML), testContext(), ModePlain)
	require.NoError(t, err)

	assert.Contains(t, out, "<title>AB12CD34</title>")
	assert.Contains(t, out, "<h1>Acme Supplies Ltd</h1>")
	assert.Contains(t, out, "Ada Lovelace (Ada)")
	assert.Contains(t, out, "+44 (0) 7911 123 456")
	assert.Contains(t, out, "Subtotal £30.00 Tax £6.00 Total £36.00")
	assert.Contains(t, out, "DRAFT due 2025-04-13 issued 2025-03-14")
	assert.NotContains(t, out, "{{", "unresolved placeholders remain")
}

func TestRenderItemRows(t *testing.T) {
	rc := testContext()
	rc.Summary.Items = append(rc.Summary.Items, domain.MergedLineItem{
		ProductName: "Gadget & Co", Quantity: 1,
		UnitPrice:  decimal.RequireFromString("5.50"),
		TotalPrice: decimal.RequireFromString("5.50"),
	})

	out, err := newTestEngine().Render(testTemplate(baseHTML), rc, ModePlain)
	require.NoError(t, err)

	widget := strings.Index(out, "<td>Widget</td>")
	gadget := strings.Index(out, "<td>Gadget &amp; Co</td>")
	require.True(t, widget >= 0 && gadget >= 0)
	assert.Less(t, widget, gadget, "rows must follow aggregator order")
	assert.Contains(t, out, `<td class="qty">3</td><td>£10.00</td><td>£30.00</td>`)
	assert.Contains(t, out, `<td class="qty">1</td><td>£5.50</td><td>£5.50</td>`)
}

func TestAddressSeparatorRule(t *testing.T) {
	e := newTestEngine()

	rc := testContext()
	// line2 present: line1 gets a trailing comma separator
	assert.Equal(t, "1 Factory Road, Unit 4",
		e.Resolve("{{company_address_line1}}{{company_address_line2}}", rc))

	// line2 absent: bare line1
	assert.Equal(t, "10 Analytical Way",
		e.Resolve("{{customer_address_line1}}{{customer_address_line2}}", rc))

	// line1 absent entirely
	rc.Customer.AddressLine1 = ""
	assert.Equal(t, "", e.Resolve("{{customer_address_line1}}", rc))
}

func TestOptionalFieldsRenderEmpty(t *testing.T) {
	rc := testContext()
	rc.Company.Website = ""
	rc.Company.IBAN = ""
	rc.Customer.Phone = ""

	out := newTestEngine().Resolve("[{{company_website}}][{{iban_number}}][{{customer_phone}}]", rc)
	assert.Equal(t, "[][][]", out)
}

func TestCurrencySymbols(t *testing.T) {
	assert.Equal(t, "£", currencySymbol("GBP"))
	assert.Equal(t, "$", currencySymbol("usd"))
	assert.Equal(t, "€", currencySymbol("EUR"))
	assert.Equal(t, "CHF ", currencySymbol("chf"))
}

func TestResolveIsIdempotent(t *testing.T) {
	e := newTestEngine()
	rc := testContext()

	once := e.Resolve(baseHTML, rc)
	twice := e.Resolve(once, rc)
	assert.Equal(t, once, twice)
}

func TestStylesheetInjectedBeforeHeadClose(t *testing.T) {
	out, err := newTestEngine().Render(testTemplate(baseHTML), testContext(), ModePlain)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out, "font-family: sans-serif"), "stylesheet must not be duplicated")
	styleEnd := strings.Index(out, "</style>")
	headClose := strings.Index(out, "</head>")
	require.True(t, styleEnd >= 0 && headClose >= 0)
	assert.Equal(t, headClose, styleEnd+len("</style>"), "style block must sit immediately before </head>")
}

func TestStylesheetInjectionWithMultibyteHead(t *testing.T) {
	// ẞ lowercases to a shorter byte sequence, so a folded copy of the
	// document must never be used to locate the anchors.
	html := `<!DOCTYPE html><html><HEAD><title>STRAẞE 4, Rechnung</title></HEAD>` +
		`<BODY>{{company_name}}</BODY></html>`

	out, err := newTestEngine().Render(testTemplate(html), testContext(), ModeInteractive)
	require.NoError(t, err)

	assert.Contains(t, out, "<title>STRAẞE 4, Rechnung</title>")
	styleEnd := strings.Index(out, "</style>")
	headClose := strings.Index(out, "</HEAD>")
	require.True(t, styleEnd >= 0 && headClose >= 0)
	assert.Equal(t, headClose, styleEnd+len("</style>"), "style block must sit immediately before the head-close tag")

	bodyAt := strings.Index(out, "<BODY>")
	require.True(t, bodyAt >= 0)
	assert.True(t, strings.HasPrefix(out[bodyAt+len("<BODY>"):], `<div class="invoice-toolbar">`),
		"toolbar must follow the body-open tag immediately")
}

func TestInteractiveModeInjectsToolbar(t *testing.T) {
	out, err := newTestEngine().Render(testTemplate(baseHTML), testContext(), ModeInteractive)
	require.NoError(t, err)

	bodyAt := strings.Index(out, `<body class="invoice">`)
	require.True(t, bodyAt >= 0)
	after := out[bodyAt+len(`<body class="invoice">`):]
	assert.True(t, strings.HasPrefix(after, `<div class="invoice-toolbar">`),
		"toolbar must follow the body-open tag immediately")

	assert.Contains(t, out, `href="https://pay.example.com/pay/7d9f2a44-51c1-4f08-9fb4-8f6f2f1c0a11">Pay</a>`)
	assert.Contains(t, out, `/api/invoices/7d9f2a44-51c1-4f08-9fb4-8f6f2f1c0a11/pdf">Download PDF</a>`)
	assert.Contains(t, out, "@media print { .invoice-toolbar { display: none; } }")
}

func TestPlainModeHasNoToolbar(t *testing.T) {
	out, err := newTestEngine().Render(testTemplate(baseHTML), testContext(), ModePlain)
	require.NoError(t, err)

	assert.NotContains(t, out, "invoice-toolbar")
}

func TestRenderMalformedTemplate(t *testing.T) {
	e := newTestEngine()
	rc := testContext()

	_, err := e.Render(testTemplate("<html><body>{{company_name}}</body></html>"), rc, ModePlain)
	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))

	_, err = e.Render(testTemplate("<html><head></head><div>no body tag</div></html>"), rc, ModePlain)
	require.Error(t, err)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}
