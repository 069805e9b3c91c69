// Package testsrc renders synthetic BGRA frames for feeding the pipelines
package testsrc

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/linuxmatters/rawpipe/internal/frame"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Pattern selects what a Generator draws
type Pattern int

const (
	PatternSolid Pattern = iota // Every pixel the configured colour
	PatternBars                 // Eight 75% colour bars
	PatternSweep                // A faded band moving left to right
)

func (p Pattern) String() string {
	switch p {
	case PatternBars:
		return "bars"
	case PatternSweep:
		return "sweep"
	default:
		return "solid"
	}
}

// ParsePattern maps a pattern name to a Pattern
func ParsePattern(name string) (Pattern, error) {
	switch name {
	case "solid":
		return PatternSolid, nil
	case "bars":
		return PatternBars, nil
	case "sweep":
		return PatternSweep, nil
	}
	return PatternSolid, fmt.Errorf("unknown pattern %q (want solid, bars or sweep)", name)
}

var namedColours = map[string]color.RGBA{
	"black":   {0, 0, 0, 255},
	"white":   {255, 255, 255, 255},
	"red":     {255, 0, 0, 255},
	"green":   {0, 255, 0, 255},
	"blue":    {0, 0, 255, 255},
	"yellow":  {255, 255, 0, 255},
	"cyan":    {0, 255, 255, 255},
	"magenta": {255, 0, 255, 255},
}

// ParseColour accepts a colour name or #rrggbb
func ParseColour(s string) (color.RGBA, error) {
	if c, ok := namedColours[strings.ToLower(s)]; ok {
		return c, nil
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok || len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: want a name or #rrggbb", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// colourBars are the 75% bars, left to right
var colourBars = []color.RGBA{
	{191, 191, 191, 255}, // white
	{191, 191, 0, 255},   // yellow
	{0, 191, 191, 255},   // cyan
	{0, 191, 0, 255},     // green
	{191, 0, 191, 255},   // magenta
	{191, 0, 0, 255},     // red
	{0, 0, 191, 255},     // blue
	{0, 0, 0, 255},       // black
}

// Generator draws numbered frames of one pattern
type Generator struct {
	pattern Pattern
	colour  color.RGBA
	label   bool

	// Sweep fade, brightest at the vertical centre
	alphaTable  []uint8
	colourTable [256][4]byte
}

// New creates a generator. label stamps the frame number in the top left
// corner.
func New(pattern Pattern, colour color.RGBA, label bool) *Generator {
	g := &Generator{pattern: pattern, colour: colour, label: label}
	for alpha := 0; alpha < 256; alpha++ {
		g.colourTable[alpha] = [4]byte{
			uint8(int(colour.B) * alpha / 255),
			uint8(int(colour.G) * alpha / 255),
			uint8(int(colour.R) * alpha / 255),
			255,
		}
	}
	return g
}

// Render draws frame index into dst, which must be BGRA
func (g *Generator) Render(index int, dst *frame.Buffer) error {
	if dst == nil || dst.Format != frame.FormatBGRA {
		return fmt.Errorf("render: destination must be a %s frame", frame.FormatBGRA)
	}

	switch g.pattern {
	case PatternBars:
		g.drawBars(dst)
	case PatternSweep:
		g.drawSweep(index, dst)
	default:
		c := g.colour
		if err := dst.Fill(c.B, c.G, c.R, 255); err != nil {
			return err
		}
	}

	if g.label {
		drawLabel(dst, fmt.Sprintf("%05d", index))
	}
	return nil
}

// drawBars renders the first row then copies it down the frame
func (g *Generator) drawBars(dst *frame.Buffer) {
	first := dst.Row(0, 0)
	for x := 0; x < dst.Width; x++ {
		c := colourBars[x*len(colourBars)/dst.Width]
		copy(first[x*4:], []byte{c.B, c.G, c.R, 255})
	}
	for y := 1; y < dst.Height; y++ {
		copy(dst.Row(0, y), first)
	}
}

// drawSweep clears to black, renders the upper half of the band and
// mirrors it into the lower half
func (g *Generator) drawSweep(index int, dst *frame.Buffer) {
	black := [16]byte{0, 0, 0, 255, 0, 0, 0, 255, 0, 0, 0, 255, 0, 0, 0, 255}
	for y := 0; y < dst.Height; y++ {
		row := dst.Row(0, y)
		for i := 0; i < len(row); i += len(black) {
			copy(row[i:], black[:])
		}
	}

	bandWidth := max(dst.Width/16, 2)
	step := max(dst.Width/60, 1)
	x0 := (index * step) % dst.Width
	x1 := min(x0+bandWidth, dst.Width)

	half := (dst.Height + 1) / 2
	if len(g.alphaTable) != half {
		g.alphaTable = make([]uint8, half)
		for i := range g.alphaTable {
			g.alphaTable[i] = uint8(255 - 128*i/half)
		}
	}

	pattern := make([]byte, (x1-x0)*4)
	for y := 0; y < half; y++ {
		px := g.colourTable[g.alphaTable[half-1-y]]
		for i := 0; i < len(pattern); i += 4 {
			copy(pattern[i:i+4], px[:])
		}
		copy(dst.Row(0, y)[x0*4:], pattern)
	}
	for y := 0; y < dst.Height/2; y++ {
		src := dst.Row(0, y)[x0*4 : x1*4]
		copy(dst.Row(0, dst.Height-1-y)[x0*4:], src)
	}
}

// drawLabel writes white text. White is the same in BGRA and RGBA byte
// order, so the buffer can be drawn on through an image.RGBA view.
func drawLabel(dst *frame.Buffer, text string) {
	face := basicfont.Face7x13
	view := &image.RGBA{
		Pix:    dst.Planes[0],
		Stride: dst.Stride[0],
		Rect:   image.Rect(0, 0, dst.Width, dst.Height),
	}
	d := &font.Drawer{
		Dst:  view,
		Src:  image.NewUniform(color.White),
		Face: face,
		Dot:  fixed.P(4, 4+face.Ascent),
	}
	d.DrawString(text)
}
