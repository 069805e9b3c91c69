// Package convert turns packed BGRA frames into planar 4:2:0 frames,
// optionally changing resolution on the way.
package convert

import (
	"fmt"

	"github.com/linuxmatters/rawpipe/internal/frame"
)

// Filter selects the resampling kernel used when the resolution changes
type Filter int

const (
	FilterBilinear Filter = iota
	FilterBicubic
	FilterPoint
)

func (f Filter) String() string {
	switch f {
	case FilterBilinear:
		return "bilinear"
	case FilterBicubic:
		return "bicubic"
	case FilterPoint:
		return "point"
	default:
		return fmt.Sprintf("filter(%d)", int(f))
	}
}

// ParseFilter maps a filter name to a Filter
func ParseFilter(name string) (Filter, error) {
	switch name {
	case "bilinear":
		return FilterBilinear, nil
	case "bicubic":
		return FilterBicubic, nil
	case "point", "neighbor":
		return FilterPoint, nil
	}
	return 0, fmt.Errorf("unknown filter %q", name)
}

// Colorimetry selects the RGB to YCbCr matrix and range
type Colorimetry int

const (
	// BT601 is ITU-R BT.601 limited range (Y 16-235, C 16-240), the
	// swscale default for RGB input.
	BT601 Colorimetry = iota
	// JFIF is BT.601 full range, as produced by image/color.RGBToYCbCr
	JFIF
)

func (c Colorimetry) String() string {
	if c == JFIF {
		return "jfif"
	}
	return "bt601"
}

// Spec fixes the source and destination of a conversion. A converter is
// built once per Spec and reused for every frame of a run.
type Spec struct {
	SrcFormat   frame.PixelFormat
	SrcWidth    int
	SrcHeight   int
	DstFormat   frame.PixelFormat
	DstWidth    int
	DstHeight   int
	Filter      Filter
	Colorimetry Colorimetry
}

// Validate rejects combinations no converter supports
func (s Spec) Validate() error {
	if s.SrcWidth <= 0 || s.SrcHeight <= 0 || s.DstWidth <= 0 || s.DstHeight <= 0 {
		return fmt.Errorf("impossible to create scale context for the conversion fmt:%s s:%dx%d -> fmt:%s s:%dx%d",
			s.SrcFormat, s.SrcWidth, s.SrcHeight, s.DstFormat, s.DstWidth, s.DstHeight)
	}
	if s.SrcFormat != frame.FormatBGRA {
		return fmt.Errorf("unsupported source format %s", s.SrcFormat)
	}
	if s.DstFormat != frame.FormatYUV420P && s.DstFormat != frame.FormatNV12 {
		return fmt.Errorf("unsupported destination format %s", s.DstFormat)
	}
	if s.Filter < FilterBilinear || s.Filter > FilterPoint {
		return fmt.Errorf("unsupported filter %s", s.Filter)
	}
	return nil
}

// Scaling reports whether the conversion changes resolution
func (s Spec) Scaling() bool {
	return s.SrcWidth != s.DstWidth || s.SrcHeight != s.DstHeight
}

func (s Spec) String() string {
	return fmt.Sprintf("%s %dx%d -> %s %dx%d (%s)",
		s.SrcFormat, s.SrcWidth, s.SrcHeight, s.DstFormat, s.DstWidth, s.DstHeight, s.Filter)
}

// Converter writes a converted copy of src into the caller's dst planes.
// Convert never allocates frame memory.
type Converter interface {
	Convert(src, dst *frame.Buffer) error
	Spec() Spec
	Close() error
}

// checkBuffers verifies src and dst match the converter's Spec
func checkBuffers(s Spec, src, dst *frame.Buffer) error {
	if !src.Matches(s.SrcFormat, s.SrcWidth, s.SrcHeight) {
		return fmt.Errorf("source frame mismatch: want %s %dx%d", s.SrcFormat, s.SrcWidth, s.SrcHeight)
	}
	if !dst.Matches(s.DstFormat, s.DstWidth, s.DstHeight) {
		return fmt.Errorf("destination frame mismatch: want %s %dx%d", s.DstFormat, s.DstWidth, s.DstHeight)
	}
	return nil
}

// CheckBuffers is exported for converters implemented in other packages
func CheckBuffers(s Spec, src, dst *frame.Buffer) error {
	return checkBuffers(s, src, dst)
}
