// Package markup fills a merchant invoice template's placeholder vocabulary
// from a rendering context and injects its stylesheet, producing the final
// document served to browsers and to the PDF renderer.
package markup

import (
	"sort"
	"strings"

	"github.com/helsby/invoicer/internal/domain"
)

// Mode selects the presentation variant of the rendered document.
type Mode int

const (
	// ModePlain renders the document as-is, for PDF generation.
	ModePlain Mode = iota
	// ModeInteractive additionally injects the navigation toolbar for
	// in-browser viewing. The toolbar is hidden when printed.
	ModeInteractive
)

// Anchor markers the engine locates in the template. These are the only
// pieces of markup structure it cares about; well-formedness beyond them is
// the template author's problem.
const (
	headCloseMarker = "</head>"
	bodyOpenMarker  = "<body"
)

// Options configure the links placed in the interactive toolbar.
type Options struct {
	// PayBaseURL is the payment service base, e.g. "https://pay.example.com".
	PayBaseURL string
	// AppBaseURL is this service's public base, used for the PDF download link.
	AppBaseURL string
}

// Engine resolves the fixed invoice placeholder vocabulary against a
// rendering context. It holds no per-render state; Render is a pure function
// of (template, context, mode).
type Engine struct {
	opts     Options
	bindings []binding
}

// binding pairs a placeholder token with its resolver. The engine applies
// bindings as a single ordered list, longest token first, so combined fields
// (customer_name) can never be clobbered by their constituents.
type binding struct {
	token   string
	resolve func(rc *domain.RenderingContext) string
}

// New creates a substitution engine.
func New(opts Options) *Engine {
	e := &Engine{opts: opts, bindings: vocabulary()}
	sort.SliceStable(e.bindings, func(i, j int) bool {
		return len(e.bindings[i].token) > len(e.bindings[j].token)
	})
	return e
}

// Render resolves every placeholder in the template against the context,
// injects the stylesheet before the head-close marker and, in interactive
// mode, inserts the navigation toolbar after the body-open tag.
//
// A template missing either anchor marker fails with an EINVALID
// ("malformed template") error.
func (e *Engine) Render(tpl *domain.Template, rc *domain.RenderingContext, mode Mode) (string, error) {
	doc := e.Resolve(tpl.HTML, rc)

	headAt := headCloseIndex(doc)
	if headAt < 0 {
		return "", domain.Errorf(domain.EINVALID, "markup.render", "malformed template: missing %s marker", headCloseMarker)
	}
	bodyAt := bodyOpenEnd(doc)
	if bodyAt < 0 {
		return "", domain.Errorf(domain.EINVALID, "markup.render", "malformed template: missing %s marker", bodyOpenMarker)
	}

	css := tpl.CSS
	if mode == ModeInteractive {
		css += "\n@media print { .invoice-toolbar { display: none; } }"
	}

	var b strings.Builder
	b.Grow(len(doc) + len(css) + 512)
	b.WriteString(doc[:headAt])
	b.WriteString("<style>\n")
	b.WriteString(css)
	b.WriteString("\n</style>")
	b.WriteString(doc[headAt:])
	doc = b.String()

	if mode == ModeInteractive {
		// Anchor offsets moved with the style insertion; find the body tag again.
		at := bodyOpenEnd(doc)
		doc = doc[:at] + e.toolbar(rc) + doc[at:]
	}

	return doc, nil
}

// Resolve applies the placeholder bindings to markup. Running it on already
// resolved output is a no-op: every vocabulary token has been consumed and
// nothing else is touched.
func (e *Engine) Resolve(html string, rc *domain.RenderingContext) string {
	for _, b := range e.bindings {
		html = strings.ReplaceAll(html, "{{"+b.token+"}}", b.resolve(rc))
	}
	return html
}

// toolbar is the fixed navigation overlay for interactive viewing.
func (e *Engine) toolbar(rc *domain.RenderingContext) string {
	id := rc.Invoice.ID.String()
	payURL := strings.TrimSuffix(e.opts.PayBaseURL, "/") + "/pay/" + id
	pdfURL := strings.TrimSuffix(e.opts.AppBaseURL, "/") + "/api/invoices/" + id + "/pdf"

	var b strings.Builder
	b.WriteString(`<div class="invoice-toolbar">`)
	b.WriteString(`<span class="invoice-toolbar-logo">`)
	b.WriteString(escape(rc.Company.Name))
	b.WriteString(`</span>`)
	b.WriteString(`<a class="invoice-toolbar-pay" href="`)
	b.WriteString(payURL)
	b.WriteString(`">Pay</a>`)
	b.WriteString(`<a class="invoice-toolbar-download" href="`)
	b.WriteString(pdfURL)
	b.WriteString(`">Download PDF</a>`)
	b.WriteString(`</div>`)
	return b.String()
}

// headCloseIndex finds the insertion point for the stylesheet: the start of
// the head-close marker. Case-insensitive, first occurrence wins.
func headCloseIndex(doc string) int {
	return indexFoldASCII(doc, headCloseMarker)
}

// bodyOpenEnd finds the insertion point for the toolbar: just past the '>'
// that closes the body-open tag. Returns -1 when the marker is absent.
func bodyOpenEnd(doc string) int {
	at := indexFoldASCII(doc, bodyOpenMarker)
	if at < 0 {
		return -1
	}
	gt := strings.Index(doc[at:], ">")
	if gt < 0 {
		return -1
	}
	return at + gt + 1
}

// indexFoldASCII returns the first index of marker within doc, folding ASCII
// letter case only. marker must be lowercase ASCII. The subject is scanned
// untransformed: Unicode lowercasing can change byte lengths (ẞ → ß), which
// would desynchronize the returned offset from doc.
func indexFoldASCII(doc, marker string) int {
	for i := 0; i+len(marker) <= len(doc); i++ {
		j := 0
		for ; j < len(marker); j++ {
			c := doc[i+j]
			if 'A' <= c && c <= 'Z' {
				c += 'a' - 'A'
			}
			if c != marker[j] {
				break
			}
		}
		if j == len(marker) {
			return i
		}
	}
	return -1
}

func escape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
	return r.Replace(s)
}
