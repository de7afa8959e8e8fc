package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"fixtures/internal/record"
)

// ── SourceLoader ───────────────────────────────────────────
// Turns a Descriptor into a normalized Collection.
// Dispatch is a closed switch over Format; each format has one pure parser.

// ReadFunc returns the raw text stored at path. Implementations live in
// internal/reader; the loader never touches the filesystem itself.
// A missing source must be reported with an error wrapping fs.ErrNotExist
// or ErrSourceNotFound.
type ReadFunc func(ctx context.Context, path string) (string, error)

// Generator produces synthetic records for a named scenario.
type Generator interface {
	Generate(scenario string, count int, seed *int64) (record.Collection, error)
}

// DefaultTimeout is the read budget used when none is configured.
const DefaultTimeout = 10 * time.Second

// Loader parses sources described by Descriptors. It holds no state
// beyond its collaborators and performs no retries.
type Loader struct {
	read       ReadFunc
	generators Generator
	timeout    time.Duration
}

// NewLoader creates a Loader. A zero timeout disables the read budget.
func NewLoader(read ReadFunc, generators Generator, timeout time.Duration) *Loader {
	return &Loader{read: read, generators: generators, timeout: timeout}
}

// Load reads and parses the source described by d.
// Every error is a *LoadError carrying d.
func (l *Loader) Load(ctx context.Context, d Descriptor) (record.Collection, error) {
	c, err := l.load(ctx, d)
	if err != nil {
		return nil, &LoadError{Descriptor: d, Err: err}
	}
	return c, nil
}

func (l *Loader) load(ctx context.Context, d Descriptor) (record.Collection, error) {
	var parse func([]byte) (record.Collection, error)

	switch d.Format {
	case FormatJSON:
		parse = func(b []byte) (record.Collection, error) { return parseJSON(b, d.Selector) }
	case FormatYAML:
		parse = func(b []byte) (record.Collection, error) { return parseYAML(b, d.Selector) }
	case FormatCSV:
		parse = parseCSV
	case FormatGenerated:
		return l.generate(d.Path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, d.Format)
	}

	text, err := l.readWithBudget(ctx, d.Path)
	if err != nil {
		return nil, err
	}
	return parse([]byte(text))
}

// readWithBudget runs the reader and gives up once the timeout elapses.
// The reader goroutine is abandoned, not killed; its result is discarded.
func (l *Loader) readWithBudget(ctx context.Context, path string) (string, error) {
	if l.read == nil {
		return "", fmt.Errorf("%w: no reader configured for %q", ErrSourceNotFound, path)
	}

	readCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		readCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := l.read(readCtx, path)
		done <- result{text: text, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return "", l.classify(ctx, path, res.err)
		}
		return res.text, nil
	case <-readCtx.Done():
		return "", l.classify(ctx, path, readCtx.Err())
	}
}

func (l *Loader) classify(ctx context.Context, path string, err error) error {
	switch {
	case errors.Is(err, ErrSourceNotFound):
		return err
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrSourceNotFound, path)
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		return fmt.Errorf("%w: %s exceeded %s", ErrSourceTimeout, path, l.timeout)
	default:
		return fmt.Errorf("read %s: %w", path, err)
	}
}
