// Package pdf converts resolved invoice markup into paginated PDF bytes via a
// headless rendering engine, with bounded retries and guaranteed engine
// teardown.
package pdf

import "context"

// Engine is one headless rendering engine instance. Instances are scoped to a
// single PDF request: acquire, render, Close. Close must be called on every
// exit path or the engine leaks an OS-level child process.
type Engine interface {
	// Render loads the markup, waits for the document to stabilise and
	// returns the paginated PDF bytes.
	Render(ctx context.Context, html string) ([]byte, error)

	// Close releases the engine and its child processes.
	Close() error
}

// EngineFactory acquires a fresh engine instance for one render attempt.
type EngineFactory func() (Engine, error)

// DocumentSource produces the resolved markup for a render attempt. It is
// re-invoked on every attempt so a document that was not yet queryable can
// appear on a later try. A not-found class error marks the document as not
// yet available and is the only retryable failure.
type DocumentSource func(ctx context.Context) (string, error)
