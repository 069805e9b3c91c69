// Package swscale implements convert.Converter on top of FFmpeg's
// libswscale.
package swscale

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/csnewman/ffmpeg-go"
	"github.com/kataras/golog"

	"github.com/linuxmatters/rawpipe/internal/convert"
	"github.com/linuxmatters/rawpipe/internal/frame"
)

var logger = golog.Child("[swscale]")

// Converter wraps one swscale context and the two AVFrames it scales
// between. Everything is allocated in New and reused per frame.
type Converter struct {
	spec     convert.Spec
	swsCtx   *scaleContext
	srcFrame *ffmpeg.AVFrame
	dstFrame *ffmpeg.AVFrame
}

func pixFmt(f frame.PixelFormat) (ffmpeg.AVPixelFormat, error) {
	switch f {
	case frame.FormatBGRA:
		return ffmpeg.AVPixFmtBgra, nil
	case frame.FormatYUV420P:
		return ffmpeg.AVPixFmtYuv420P, nil
	case frame.FormatNV12:
		return ffmpeg.AVPixFmtNv12, nil
	}
	return 0, fmt.Errorf("pixel format %s has no swscale equivalent", f)
}

// New builds a swscale converter for spec
func New(spec convert.Spec) (*Converter, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if spec.Colorimetry != convert.BT601 {
		return nil, fmt.Errorf("swscale converter supports %s only, got %s", convert.BT601, spec.Colorimetry)
	}
	srcFmt, err := pixFmt(spec.SrcFormat)
	if err != nil {
		return nil, err
	}
	dstFmt, err := pixFmt(spec.DstFormat)
	if err != nil {
		return nil, err
	}

	c := &Converter{spec: spec}

	c.swsCtx = newScaleContext(spec.SrcWidth, spec.SrcHeight, srcFmt, spec.DstWidth, spec.DstHeight, dstFmt, spec.Filter)
	if c.swsCtx == nil {
		return nil, fmt.Errorf("impossible to create scale context for the conversion %s", spec)
	}

	if c.srcFrame, err = allocFrame(srcFmt, spec.SrcWidth, spec.SrcHeight); err != nil {
		c.Close()
		return nil, fmt.Errorf("source frame: %w", err)
	}
	if c.dstFrame, err = allocFrame(dstFmt, spec.DstWidth, spec.DstHeight); err != nil {
		c.Close()
		return nil, fmt.Errorf("destination frame: %w", err)
	}

	logger.Debugf("swscale context ready: %s", spec)
	return c, nil
}

func allocFrame(format ffmpeg.AVPixelFormat, width, height int) (*ffmpeg.AVFrame, error) {
	f := ffmpeg.AVFrameAlloc()
	if f == nil {
		return nil, errors.New("failed to allocate frame")
	}
	f.SetWidth(width)
	f.SetHeight(height)
	f.SetFormat(int(format))

	if _, err := ffmpeg.AVFrameGetBuffer(f, 0); err != nil {
		ffmpeg.AVFrameFree(&f)
		return nil, fmt.Errorf("could not allocate frame data: %w", err)
	}
	return f, nil
}

// planeRow returns row y of an AVFrame plane as a Go slice of n bytes
func planeRow(f *ffmpeg.AVFrame, plane uintptr, y, n int) []byte {
	base := unsafe.Pointer(f.Data().Get(plane))
	stride := int(f.Linesize().Get(plane))
	return unsafe.Slice((*byte)(unsafe.Add(base, y*stride)), n)
}

// Spec returns the conversion this converter was built for
func (c *Converter) Spec() convert.Spec {
	return c.spec
}

// Convert copies src into the source AVFrame, scales, and copies the
// result into dst
func (c *Converter) Convert(src, dst *frame.Buffer) error {
	if err := convert.CheckBuffers(c.spec, src, dst); err != nil {
		return fmt.Errorf("swscale: %w", err)
	}

	copyIn(c.srcFrame, src)
	if err := c.swsCtx.scaleFrame(c.dstFrame, c.srcFrame); err != nil {
		return fmt.Errorf("swscale: scale frame: %w", err)
	}
	copyOut(dst, c.dstFrame)
	return nil
}

func copyIn(f *ffmpeg.AVFrame, b *frame.Buffer) {
	for p := 0; p < b.PlaneCount(); p++ {
		rowBytes, rows := b.Format.PlaneGeometry(p, b.Width, b.Height)
		for y := 0; y < rows; y++ {
			copy(planeRow(f, uintptr(p), y, rowBytes), b.Row(p, y))
		}
	}
}

func copyOut(b *frame.Buffer, f *ffmpeg.AVFrame) {
	for p := 0; p < b.PlaneCount(); p++ {
		rowBytes, rows := b.Format.PlaneGeometry(p, b.Width, b.Height)
		for y := 0; y < rows; y++ {
			copy(b.Row(p, y), planeRow(f, uintptr(p), y, rowBytes))
		}
	}
}

// Close frees the frames, then the context. Safe to call on a partially
// built converter.
func (c *Converter) Close() error {
	if c.dstFrame != nil {
		ffmpeg.AVFrameFree(&c.dstFrame)
		c.dstFrame = nil
	}
	if c.srcFrame != nil {
		ffmpeg.AVFrameFree(&c.srcFrame)
		c.srcFrame = nil
	}
	if c.swsCtx != nil {
		c.swsCtx.free()
		c.swsCtx = nil
	}
	return nil
}

var _ convert.Converter = (*Converter)(nil)

// Factory returns a constructor for the named converter: "go" for the
// pure-Go converter split across workers, "sws" for libswscale
func Factory(name string, workers int) (func(convert.Spec) (convert.Converter, error), error) {
	switch name {
	case "go":
		return func(spec convert.Spec) (convert.Converter, error) {
			c, err := convert.New(spec, convert.WithWorkers(workers))
			if err != nil {
				return nil, err
			}
			return c, nil
		}, nil
	case "sws":
		return func(spec convert.Spec) (convert.Converter, error) {
			c, err := New(spec)
			if err != nil {
				return nil, err
			}
			return c, nil
		}, nil
	}
	return nil, fmt.Errorf("unknown scaler %q (expected go or sws)", name)
}
