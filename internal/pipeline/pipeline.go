// Package pipeline runs the two frame pipelines: raw BGRA through a
// hardware H.264 encoder, and raw BGRA through a scaler to planar YUV.
// Both are single-threaded loops over a fixed frame budget.
package pipeline

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/kataras/golog"

	"github.com/linuxmatters/rawpipe/internal/convert"
	"github.com/linuxmatters/rawpipe/internal/frame"
	"github.com/linuxmatters/rawpipe/internal/rawio"
)

var logger = golog.Child("[pipeline]")

// Update is reported after every processed frame
type Update struct {
	Frame   int   // Frames processed so far
	Total   int   // Frame budget
	Bytes   int64 // Output bytes written so far
	Elapsed time.Duration

	// Source is the BGRA frame just processed. It is reused for the next
	// read, so it is only valid until the callback returns.
	Source *frame.Buffer
}

// ProgressFunc receives updates on the pipeline goroutine; it must not block
type ProgressFunc func(Update)

// ConverterFactory builds the converter for a run
type ConverterFactory func(spec convert.Spec) (convert.Converter, error)

// Stats summarises a completed run
type Stats struct {
	Frames  int   // Complete frames read and processed
	Packets int   // Encoded packets written (encode only)
	Bytes   int64 // Output bytes written
	Short   bool  // Input ended part way through a frame
	Elapsed time.Duration
}

// readNext reads one source frame. It reports false with a nil error when
// the input is exhausted, cleanly or mid-frame.
func readNext(r *rawio.FrameReader, dst *frame.Buffer, stats *Stats) (bool, error) {
	err := r.ReadFrame(dst)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, io.EOF):
		logger.Infof("input exhausted after %d frames", r.Frames())
		return false, nil
	case errors.Is(err, rawio.ErrShortFrame):
		logger.Warnf("stopping after %d complete frames: %v", r.Frames(), err)
		stats.Short = true
		return false, nil
	default:
		return false, err
	}
}

// cancelled reports a context error between frames
func cancelled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

// releaseInto runs the stack and folds its error into *err
func releaseInto(stack *Stack, err *error) {
	if rerr := stack.Release(); rerr != nil {
		if *err == nil {
			*err = rerr
			return
		}
		*err = multierror.Append(*err, rerr)
	}
}

func (p ProgressFunc) report(u Update) {
	if p != nil {
		p(u)
	}
}
