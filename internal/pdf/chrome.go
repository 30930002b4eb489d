package pdf

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/helsby/invoicer/internal/domain"
)

// A4 paper dimensions and fixed margins, in inches (the unit CDP expects).
const (
	a4WidthIn  = 8.27
	a4HeightIn = 11.69
	marginIn   = 10.0 / 25.4 // 10mm
)

// ChromeConfig configures the headless Chrome engine.
type ChromeConfig struct {
	// Timeout bounds a single render. Zero means 30s.
	Timeout time.Duration

	// NoSandbox runs Chrome without its sandbox. Required when the service
	// runs as root inside a container.
	NoSandbox bool
}

// ChromeEngine renders markup to PDF over the Chrome DevTools Protocol.
// One engine owns one browser process; it is not shared between renders.
type ChromeEngine struct {
	cfg         ChromeConfig
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewChromeEngine launches a headless Chrome allocator. The returned engine
// must be closed by the caller.
func NewChromeEngine(cfg ChromeConfig) (*ChromeEngine, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true), // Docker
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &ChromeEngine{
		cfg:         cfg,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
	}, nil
}

// Render sets the markup as the document content, waits for the body to be
// ready and prints to an A4 PDF with fixed margins.
func (e *ChromeEngine) Render(ctx context.Context, html string) ([]byte, error) {
	browserCtx, browserCancel := chromedp.NewContext(e.allocCtx)
	defer browserCancel()

	// The browser context descends from the allocator, not from the caller,
	// so the configured timeout and the caller's cancellation both have to be
	// bridged onto it.
	runCtx, cancel := renderContext(ctx, browserCtx, e.cfg.Timeout)
	defer cancel()

	var data []byte
	err := chromedp.Run(runCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(a4WidthIn).
				WithPaperHeight(a4HeightIn).
				WithMarginTop(marginIn).
				WithMarginRight(marginIn).
				WithMarginBottom(marginIn).
				WithMarginLeft(marginIn).
				Do(ctx)
			if err != nil {
				return err
			}
			data = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, domain.WrapError(err, domain.EUNAVAILABLE, "pdf.chrome", "chrome render failed")
	}

	return data, nil
}

// renderContext bounds a render on parent by timeout and by the caller's
// context. parent carries chromedp state and does not sit in caller's
// ancestry, so the caller's cancellation is forwarded explicitly.
func renderContext(caller, parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithTimeout(parent, timeout)
	stop := context.AfterFunc(caller, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

// Close terminates the browser process.
func (e *ChromeEngine) Close() error {
	e.allocCancel()
	return nil
}

var _ Engine = (*ChromeEngine)(nil)
