package rawio

import (
	"errors"
	"fmt"
	"io"

	"github.com/kataras/golog"
	"github.com/linuxmatters/rawpipe/internal/frame"
)

var logger = golog.Child("[rawio]")

// ErrShortFrame reports that the input ended part way through a frame
var ErrShortFrame = fmt.Errorf("short frame: %w", io.ErrUnexpectedEOF)

// FrameReader reads headerless packed BGRA frames. Frame boundaries are
// implied by width*height*4 byte strides.
type FrameReader struct {
	r      io.Reader
	width  int
	height int
	frames int
}

// NewFrameReader creates a reader for width x height BGRA frames
func NewFrameReader(r io.Reader, width, height int) *FrameReader {
	return &FrameReader{r: r, width: width, height: height}
}

// FrameSize returns the byte length of one input frame
func (fr *FrameReader) FrameSize() int {
	return fr.width * fr.height * 4
}

// Frames returns the number of complete frames read so far
func (fr *FrameReader) Frames() int {
	return fr.frames
}

// ReadFrame fills dst with the next frame. It returns io.EOF when the input
// is exhausted on a frame boundary and ErrShortFrame when only part of a
// frame was available; in both cases dst must not be used.
func (fr *FrameReader) ReadFrame(dst *frame.Buffer) error {
	if !dst.Matches(frame.FormatBGRA, fr.width, fr.height) {
		return fmt.Errorf("read frame: destination is %s %dx%d, expected %s %dx%d",
			dst.Format, dst.Width, dst.Height, frame.FormatBGRA, fr.width, fr.height)
	}

	var (
		n   int
		err error
	)
	if dst.Packed() {
		n, err = io.ReadFull(fr.r, dst.Planes[0][:fr.FrameSize()])
	} else {
		n, err = fr.readRows(dst)
	}

	switch {
	case err == nil:
		fr.frames++
		logger.Debugf("read frame %d: %d bytes", fr.frames, n)
		return nil
	case errors.Is(err, io.EOF) && n == 0:
		return io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF):
		logger.Warnf("input ended mid-frame after %d of %d bytes", n, fr.FrameSize())
		return ErrShortFrame
	default:
		return fmt.Errorf("read frame: %w", err)
	}
}

// readRows handles destinations with padded rows
func (fr *FrameReader) readRows(dst *frame.Buffer) (int, error) {
	total := 0
	for y := 0; y < fr.height; y++ {
		n, err := io.ReadFull(fr.r, dst.Row(0, y))
		total += n
		if err != nil {
			if errors.Is(err, io.EOF) && total > 0 {
				return total, io.ErrUnexpectedEOF
			}
			return total, err
		}
	}
	return total, nil
}
