// Package source reads the full text of a run log from local disk or from an
// S3-compatible object store.
package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/joseph-ayodele/summary-extractor/constants"
	"github.com/joseph-ayodele/summary-extractor/internal/common"
	"github.com/joseph-ayodele/summary-extractor/internal/sanitizer"
)

// Reader yields the whole text of a source. Failures are ReadError or
// ReadTimeoutError; the underlying cause is kept verbatim.
type Reader interface {
	ReadFullText(ctx context.Context, src string) (string, error)
	Stat(ctx context.Context, src string) (sanitizer.FileDescriptor, error)
}

const DefaultTimeout = 30 * time.Second

// Options shared by every reader.
type Options struct {
	// MaxSize caps the bytes read from one source.
	MaxSize int64
	// Timeout bounds one read; zero means DefaultTimeout, negative disables it.
	Timeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxSize <= 0 {
		o.MaxSize = constants.DefaultMaxFileSize
	}
	if o.Timeout == 0 {
		o.Timeout = DefaultTimeout
	}
	return o
}

var errTooLarge = errors.New("source exceeds maximum size")

// run executes fn under the configured timeout and classifies its failure.
func run[T any](ctx context.Context, opts Options, src string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return zero, classify(src, r.err)
		}
		return r.v, nil
	case <-ctx.Done():
		return zero, classify(src, ctx.Err())
	}
}

func classify(src string, err error) error {
	var ae *common.AppError
	if errors.As(err, &ae) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return common.NewReadTimeoutError(src, err)
	}
	return common.NewReadError(src, err)
}

func tooLarge(limit int64) error {
	return fmt.Errorf("%w (%s)", errTooLarge, humanize.IBytes(uint64(limit)))
}

// decode turns raw bytes into text; invalid UTF-8 sequences become U+FFFD,
// which the marker folding already recognizes.
func decode(b []byte) string {
	s := string(b)
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "�")
}
