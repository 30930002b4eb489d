package pdf

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helsby/invoicer/internal/domain"
)

// fakeEngine records renders and closes so tests can assert the release
// guarantee.
type fakeEngine struct {
	data   []byte
	err    error
	closed *int
}

func (f *fakeEngine) Render(ctx context.Context, html string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

func (f *fakeEngine) Close() error {
	*f.closed++
	return nil
}

func fastConfig() RendererConfig {
	return RendererConfig{Attempts: 3, Delay: time.Millisecond}
}

func staticSource(doc string) DocumentSource {
	return func(ctx context.Context) (string, error) { return doc, nil }
}

func TestRenderSuccess(t *testing.T) {
	closed := 0
	factory := func() (Engine, error) {
		return &fakeEngine{data: []byte("%PDF-1.7"), closed: &closed}, nil
	}

	r := NewRenderer(factory, fastConfig(), zerolog.Nop())
	out, err := r.Render(context.Background(), staticSource("<html/>"))
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7"), out)
	assert.Equal(t, 1, closed, "engine must be released")
}

func TestRenderRetriesNotFoundExactlyThreeTimes(t *testing.T) {
	calls := 0
	source := func(ctx context.Context) (string, error) {
		calls++
		return "", domain.NotFound("invoice.get", "invoice", "abc")
	}
	factory := func() (Engine, error) {
		t.Fatal("engine must not be acquired when the source fails")
		return nil, nil
	}

	r := NewRenderer(factory, fastConfig(), zerolog.Nop())
	_, err := r.Render(context.Background(), source)

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
	// The last underlying failure stays wrapped for diagnosis.
	var derr *domain.Error
	require.True(t, errors.As(err, &derr))
	assert.NotNil(t, derr.Err)
}

func TestRenderAbortsImmediatelyOnOtherFailures(t *testing.T) {
	calls := 0
	source := func(ctx context.Context) (string, error) {
		calls++
		return "", domain.Invalid("markup.render", "malformed template: missing </head> marker")
	}
	factory := func() (Engine, error) { return nil, errors.New("unused") }

	r := NewRenderer(factory, fastConfig(), zerolog.Nop())
	_, err := r.Render(context.Background(), source)

	require.Error(t, err)
	assert.Equal(t, 1, calls, "non-retryable failures must abort on the first attempt")
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
}

func TestRenderEngineFaultAbortsAndReleases(t *testing.T) {
	closed := 0
	attempts := 0
	factory := func() (Engine, error) {
		attempts++
		return &fakeEngine{err: errors.New("tab crashed"), closed: &closed}, nil
	}

	r := NewRenderer(factory, fastConfig(), zerolog.Nop())
	_, err := r.Render(context.Background(), staticSource("<html/>"))

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, closed, "engine must be released on the failure path")
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
}

func TestRenderEmptyOutputIsAFailure(t *testing.T) {
	closed := 0
	factory := func() (Engine, error) {
		return &fakeEngine{data: nil, closed: &closed}, nil
	}

	r := NewRenderer(factory, fastConfig(), zerolog.Nop())
	out, err := r.Render(context.Background(), staticSource("<html/>"))

	require.Error(t, err)
	assert.Nil(t, out)
	assert.Equal(t, 1, closed)
}

func TestRenderRecoversWhenDocumentAppears(t *testing.T) {
	calls := 0
	source := func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", domain.NotFound("invoice.get", "invoice", "abc")
		}
		return "<html/>", nil
	}
	closed := 0
	factory := func() (Engine, error) {
		return &fakeEngine{data: []byte("%PDF-1.7"), closed: &closed}, nil
	}

	r := NewRenderer(factory, fastConfig(), zerolog.Nop())
	out, err := r.Render(context.Background(), source)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.NotEmpty(t, out)
	assert.Equal(t, 1, closed)
}
