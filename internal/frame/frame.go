// Package frame defines the in-memory video frame shared by readers,
// converters, uploaders and writers.
package frame

import (
	"fmt"
)

// PixelFormat identifies the memory layout of a frame
type PixelFormat int

const (
	FormatNone    PixelFormat = iota
	FormatBGRA                // Packed, 4 bytes per pixel, B-G-R-A order
	FormatYUV420P             // Planar Y + U + V, chroma at half resolution
	FormatNV12                // Planar Y + interleaved UV at half resolution
)

// MaxPlanes is the largest plane count any format uses
const MaxPlanes = 4

func (p PixelFormat) String() string {
	switch p {
	case FormatBGRA:
		return "bgra"
	case FormatYUV420P:
		return "yuv420p"
	case FormatNV12:
		return "nv12"
	default:
		return "none"
	}
}

// ParsePixelFormat maps an FFmpeg-style format name to a PixelFormat
func ParsePixelFormat(name string) (PixelFormat, error) {
	switch name {
	case "bgra":
		return FormatBGRA, nil
	case "yuv420p", "i420":
		return FormatYUV420P, nil
	case "nv12":
		return FormatNV12, nil
	}
	return FormatNone, fmt.Errorf("unsupported pixel format %q", name)
}

// PlaneCount returns the number of planes for this pixel format
func (p PixelFormat) PlaneCount() int {
	switch p {
	case FormatBGRA:
		return 1
	case FormatNV12:
		return 2 // Y, UV
	case FormatYUV420P:
		return 3 // Y, U, V
	default:
		return 0
	}
}

// IsPlanar reports whether luma and chroma live in separate planes
func (p PixelFormat) IsPlanar() bool {
	return p == FormatYUV420P || p == FormatNV12
}

// PlaneGeometry returns the visible bytes per row and the row count of one
// plane for a width x height image. Chroma planes round odd sizes up.
func (p PixelFormat) PlaneGeometry(plane, width, height int) (rowBytes, rows int) {
	if plane < 0 || plane >= p.PlaneCount() {
		return 0, 0
	}
	chromaW := (width + 1) >> 1
	chromaH := (height + 1) >> 1

	switch p {
	case FormatBGRA:
		return width * 4, height
	case FormatYUV420P:
		if plane == 0 {
			return width, height
		}
		return chromaW, chromaH
	case FormatNV12:
		if plane == 0 {
			return width, height
		}
		return chromaW * 2, chromaH
	}
	return 0, 0
}

// ImageSize returns the number of visible bytes in one frame of this format
func (p PixelFormat) ImageSize(width, height int) int {
	total := 0
	for i := 0; i < p.PlaneCount(); i++ {
		rowBytes, rows := p.PlaneGeometry(i, width, height)
		total += rowBytes * rows
	}
	return total
}

// Strides returns the row stride of every plane for a width-pixel image
// with rows rounded up to align bytes. Unused planes are 0.
func (p PixelFormat) Strides(width, height, align int) [MaxPlanes]int {
	if align < 1 {
		align = 1
	}
	var strides [MaxPlanes]int
	for i := 0; i < p.PlaneCount(); i++ {
		rowBytes, _ := p.PlaneGeometry(i, width, height)
		strides[i] = (rowBytes + align - 1) / align * align
	}
	return strides
}

// Buffer is a video frame held in process memory. Plane data, per-plane
// stride, size and format travel together so they can never disagree.
type Buffer struct {
	Planes [MaxPlanes][]byte
	Stride [MaxPlanes]int
	Width  int
	Height int
	Format PixelFormat
}

// Alloc allocates a frame with every plane stride rounded up to align bytes.
// align of 1 produces tightly packed rows.
func Alloc(format PixelFormat, width, height, align int) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid dimensions: %dx%d", width, height)
	}
	if format.PlaneCount() == 0 {
		return nil, fmt.Errorf("cannot allocate frame for pixel format %s", format)
	}
	b := &Buffer{
		Stride: format.Strides(width, height, align),
		Width:  width,
		Height: height,
		Format: format,
	}
	for i := 0; i < format.PlaneCount(); i++ {
		_, rows := format.PlaneGeometry(i, width, height)
		b.Planes[i] = make([]byte, b.Stride[i]*rows)
	}
	return b, nil
}

// PlaneCount returns the number of populated planes
func (b *Buffer) PlaneCount() int {
	return b.Format.PlaneCount()
}

// Row returns the visible bytes of row y in the given plane, without padding
func (b *Buffer) Row(plane, y int) []byte {
	rowBytes, _ := b.Format.PlaneGeometry(plane, b.Width, b.Height)
	off := y * b.Stride[plane]
	return b.Planes[plane][off : off+rowBytes]
}

// Size returns the allocated byte count across all planes, padding included
func (b *Buffer) Size() int {
	total := 0
	for i := 0; i < b.PlaneCount(); i++ {
		total += len(b.Planes[i])
	}
	return total
}

// ImageSize returns the visible byte count across all planes
func (b *Buffer) ImageSize() int {
	return b.Format.ImageSize(b.Width, b.Height)
}

// Packed reports whether every plane has stride equal to its row width
func (b *Buffer) Packed() bool {
	for i := 0; i < b.PlaneCount(); i++ {
		rowBytes, _ := b.Format.PlaneGeometry(i, b.Width, b.Height)
		if b.Stride[i] != rowBytes {
			return false
		}
	}
	return true
}

// Matches reports whether b has the given format and size
func (b *Buffer) Matches(format PixelFormat, width, height int) bool {
	return b != nil && b.Format == format && b.Width == width && b.Height == height
}

// Fill paints a BGRA frame with a single colour
func (b *Buffer) Fill(blue, green, red, alpha uint8) error {
	if b.Format != FormatBGRA {
		return fmt.Errorf("fill: expected %s frame, got %s", FormatBGRA, b.Format)
	}
	for y := 0; y < b.Height; y++ {
		row := b.Row(0, y)
		for x := 0; x < len(row); x += 4 {
			row[x] = blue
			row[x+1] = green
			row[x+2] = red
			row[x+3] = alpha
		}
	}
	return nil
}
