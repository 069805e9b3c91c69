package ui

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	"github.com/linuxmatters/rawpipe/internal/frame"
)

// PreviewSize is the preview area in terminal cells
type PreviewSize struct {
	Width  int
	Height int
}

// DefaultPreviewSize fits inside the progress box. Cells are roughly twice
// as tall as they are wide, so 64x18 is close to 16:9.
func DefaultPreviewSize() PreviewSize {
	return PreviewSize{Width: 64, Height: 18}
}

// Downsample averages a BGRA frame into one colour per terminal cell
func Downsample(src *frame.Buffer, size PreviewSize) [][]color.RGBA {
	if src == nil || src.Format != frame.FormatBGRA || size.Width <= 0 || size.Height <= 0 {
		return nil
	}

	grid := make([][]color.RGBA, size.Height)
	for row := range grid {
		grid[row] = make([]color.RGBA, size.Width)
		y0 := row * src.Height / size.Height
		y1 := max((row+1)*src.Height/size.Height, y0+1)

		for col := range grid[row] {
			x0 := col * src.Width / size.Width
			x1 := max((col+1)*src.Width/size.Width, x0+1)

			var sumR, sumG, sumB, n uint32
			for y := y0; y < y1 && y < src.Height; y++ {
				line := src.Row(0, y)
				for x := x0; x < x1 && x < src.Width; x++ {
					sumB += uint32(line[x*4])
					sumG += uint32(line[x*4+1])
					sumR += uint32(line[x*4+2])
					n++
				}
			}
			if n > 0 {
				grid[row][col] = color.RGBA{R: uint8(sumR / n), G: uint8(sumG / n), B: uint8(sumB / n), A: 255}
			}
		}
	}
	return grid
}

// RenderPreview draws the grid with 24-bit ANSI background colours
func RenderPreview(grid [][]color.RGBA) string {
	if len(grid) == 0 {
		return ""
	}

	var s strings.Builder
	border := strings.Repeat("─", len(grid[0]))
	s.WriteString("┌" + border + "┐\n")
	for _, row := range grid {
		s.WriteString("│")
		for _, px := range row {
			fmt.Fprintf(&s, "\x1b[48;2;%d;%d;%dm \x1b[0m", px.R, px.G, px.B)
		}
		s.WriteString("│\n")
	}
	s.WriteString("└" + border + "┘")
	return s.String()
}

// PreviewSampler rate-limits previews so a fast pipeline does not spend
// its time averaging frames nobody sees
type PreviewSampler struct {
	Size     PreviewSize
	Interval time.Duration
	last     time.Time
}

// NewPreviewSampler samples at most every interval
func NewPreviewSampler(interval time.Duration) *PreviewSampler {
	return &PreviewSampler{Size: DefaultPreviewSize(), Interval: interval}
}

// Sample returns a preview of src, or nil if the last one is still fresh.
// Call it on the goroutine that owns src.
func (p *PreviewSampler) Sample(src *frame.Buffer) [][]color.RGBA {
	now := time.Now()
	if !p.last.IsZero() && now.Sub(p.last) < p.Interval {
		return nil
	}
	grid := Downsample(src, p.Size)
	if grid != nil {
		p.last = now
	}
	return grid
}
