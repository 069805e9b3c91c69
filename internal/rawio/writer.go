package rawio

import (
	"fmt"
	"io"

	"github.com/linuxmatters/rawpipe/internal/frame"
)

// PlanarOptions controls how planes are laid out in the output file
type PlanarOptions struct {
	// IncludePadding writes whole stride-length rows, padding bytes included.
	// This reproduces tools that write linesize bytes per row; the default
	// writes only visible pixels, which is what rawvideo consumers expect.
	IncludePadding bool
}

// PlanarWriter writes planar frames as raw video: the luma plane, then the
// chroma planes in order, for every frame.
type PlanarWriter struct {
	w      io.Writer
	opts   PlanarOptions
	frames int
	bytes  int64
}

// NewPlanarWriter creates a raw planar video writer
func NewPlanarWriter(w io.Writer, opts PlanarOptions) *PlanarWriter {
	return &PlanarWriter{w: w, opts: opts}
}

// WriteFrame writes every plane of src in luma, chroma 1, chroma 2 order
func (pw *PlanarWriter) WriteFrame(src *frame.Buffer) error {
	if !src.Format.IsPlanar() {
		return fmt.Errorf("write frame: %s is not a planar format", src.Format)
	}

	for plane := 0; plane < src.PlaneCount(); plane++ {
		if err := pw.writePlane(src, plane); err != nil {
			return fmt.Errorf("write plane %d of frame %d: %w", plane, pw.frames+1, err)
		}
	}
	pw.frames++
	logger.Debugf("wrote frame %d (%d bytes total)", pw.frames, pw.bytes)
	return nil
}

func (pw *PlanarWriter) writePlane(src *frame.Buffer, plane int) error {
	_, rows := src.Format.PlaneGeometry(plane, src.Width, src.Height)

	// Contiguous fast path: one write per plane
	if pw.opts.IncludePadding || src.Packed() {
		rowBytes, _ := src.Format.PlaneGeometry(plane, src.Width, src.Height)
		length := rowBytes * rows
		if pw.opts.IncludePadding {
			length = src.Stride[plane] * rows
		}
		return pw.write(src.Planes[plane][:length])
	}

	for y := 0; y < rows; y++ {
		if err := pw.write(src.Row(plane, y)); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PlanarWriter) write(p []byte) error {
	n, err := pw.w.Write(p)
	pw.bytes += int64(n)
	if err != nil {
		return err
	}
	if n != len(p) {
		return io.ErrShortWrite
	}
	return nil
}

// Frames returns the number of frames written
func (pw *PlanarWriter) Frames() int {
	return pw.frames
}

// BytesWritten returns the number of bytes written
func (pw *PlanarWriter) BytesWritten() int64 {
	return pw.bytes
}

// PacketWriter appends coded packets to an elementary bitstream. Each packet
// is written straight through so a failed run leaves a truncated but intact
// file.
type PacketWriter struct {
	w       io.Writer
	packets int
	bytes   int64
}

// NewPacketWriter creates a bitstream sink
func NewPacketWriter(w io.Writer) *PacketWriter {
	return &PacketWriter{w: w}
}

// WritePacket writes one coded packet
func (pw *PacketWriter) WritePacket(data []byte) error {
	n, err := pw.w.Write(data)
	pw.bytes += int64(n)
	if err != nil {
		return fmt.Errorf("write packet %d: %w", pw.packets+1, err)
	}
	if n != len(data) {
		return fmt.Errorf("write packet %d: %w", pw.packets+1, io.ErrShortWrite)
	}
	pw.packets++
	logger.Debugf("packet %d: %d bytes", pw.packets, len(data))
	return nil
}

// Packets returns the number of packets written
func (pw *PacketWriter) Packets() int {
	return pw.packets
}

// BytesWritten returns the number of bitstream bytes written
func (pw *PacketWriter) BytesWritten() int64 {
	return pw.bytes
}

// FrameWriter writes packed BGRA frames back to back, the layout
// FrameReader consumes
type FrameWriter struct {
	w      io.Writer
	frames int
}

// NewFrameWriter creates a raw BGRA writer
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{w: w}
}

// WriteFrame writes the visible bytes of a BGRA frame
func (fw *FrameWriter) WriteFrame(src *frame.Buffer) error {
	if src.Format != frame.FormatBGRA {
		return fmt.Errorf("write frame: expected %s, got %s", frame.FormatBGRA, src.Format)
	}
	for y := 0; y < src.Height; y++ {
		row := src.Row(0, y)
		n, err := fw.w.Write(row)
		if err == nil && n != len(row) {
			err = io.ErrShortWrite
		}
		if err != nil {
			return fmt.Errorf("write frame %d: %w", fw.frames+1, err)
		}
	}
	fw.frames++
	return nil
}

// Frames returns the number of frames written
func (fw *FrameWriter) Frames() int {
	return fw.frames
}
