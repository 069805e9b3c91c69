package convert

import (
	"fmt"
	"image"
	"runtime"
	"sync"

	"github.com/kataras/golog"
	"golang.org/x/image/draw"

	"github.com/linuxmatters/rawpipe/internal/frame"
)

var logger = golog.Child("[convert]")

// Option configures a GoConverter
type Option func(*GoConverter)

// WithWorkers splits each conversion across n goroutines. n <= 0 uses one
// worker per CPU.
func WithWorkers(n int) Option {
	return func(c *GoConverter) {
		if n <= 0 {
			n = runtime.NumCPU()
		}
		c.workers = n
	}
}

// GoConverter converts BGRA to YUV420P or NV12 without cgo. Scratch images
// for resizing are allocated once at construction.
type GoConverter struct {
	spec    Spec
	matrix  matrix
	workers int

	scaler draw.Scaler
	opaque *image.RGBA // source copy with alpha forced to 0xff
	scaled *image.RGBA // destination-sized BGRA
}

// New builds a converter for spec. It fails on unsupported combinations
// rather than falling back to a degraded mode.
func New(spec Spec, opts ...Option) (*GoConverter, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	c := &GoConverter{
		spec:    spec,
		matrix:  matrixFor(spec.Colorimetry),
		workers: 1,
	}
	for _, opt := range opts {
		opt(c)
	}

	if spec.Scaling() {
		c.scaler = scalerFor(spec)
		c.opaque = image.NewRGBA(image.Rect(0, 0, spec.SrcWidth, spec.SrcHeight))
		c.scaled = image.NewRGBA(image.Rect(0, 0, spec.DstWidth, spec.DstHeight))
	}

	logger.Debugf("go converter ready: %s, %d worker(s)", spec, c.workers)
	return c, nil
}

// scalerFor picks the x/image/draw kernel for the filter. Kernel scalers
// precompute their weights for one size pair.
func scalerFor(spec Spec) draw.Scaler {
	switch spec.Filter {
	case FilterPoint:
		return draw.NearestNeighbor
	case FilterBicubic:
		return draw.CatmullRom.NewScaler(spec.DstWidth, spec.DstHeight, spec.SrcWidth, spec.SrcHeight)
	default:
		return draw.BiLinear.NewScaler(spec.DstWidth, spec.DstHeight, spec.SrcWidth, spec.SrcHeight)
	}
}

// Spec returns the conversion this converter was built for
func (c *GoConverter) Spec() Spec {
	return c.spec
}

// Close is a no-op; all memory is garbage collected
func (c *GoConverter) Close() error {
	return nil
}

// Convert fills dst from src
func (c *GoConverter) Convert(src, dst *frame.Buffer) error {
	if err := checkBuffers(c.spec, src, dst); err != nil {
		return fmt.Errorf("convert: %w", err)
	}

	pix, stride := src.Planes[0], src.Stride[0]
	if c.spec.Scaling() {
		c.resize(src)
		pix, stride = c.scaled.Pix, c.scaled.Stride
	}

	w, h := c.spec.DstWidth, c.spec.DstHeight
	chromaH := (h + 1) >> 1

	// Each chroma row owns the two luma rows above it, so workers never
	// share output rows.
	parallelRows(chromaH, c.workers, func(startCY, endCY int) {
		for cy := startCY; cy < endCY; cy++ {
			for y := cy * 2; y < cy*2+2 && y < h; y++ {
				c.lumaRow(pix[y*stride:], dst.Row(0, y), w)
			}
			c.chromaRow(pix, stride, dst, cy, w, h)
		}
	})
	return nil
}

// resize scales src into c.scaled. The copy into c.opaque drops alpha so
// premultiplied clamping inside the scaler cannot darken pixels whose
// alpha byte is zero, which is common in raw captures.
func (c *GoConverter) resize(src *frame.Buffer) {
	for y := 0; y < src.Height; y++ {
		row := c.opaque.Pix[y*c.opaque.Stride : y*c.opaque.Stride+src.Width*4]
		copy(row, src.Row(0, y))
		for x := 3; x < len(row); x += 4 {
			row[x] = 0xff
		}
	}
	c.scaler.Scale(c.scaled, c.scaled.Bounds(), c.opaque, c.opaque.Bounds(), draw.Src, nil)
}

func (c *GoConverter) lumaRow(bgra []byte, out []byte, w int) {
	for x := 0; x < w; x++ {
		p := bgra[x*4 : x*4+3 : x*4+3]
		out[x] = c.matrix.luma(int32(p[2]), int32(p[1]), int32(p[0]))
	}
}

// chromaRow averages each 2x2 block of RGB, replicating the last row or
// column for odd sizes, and converts the mean.
func (c *GoConverter) chromaRow(pix []byte, stride int, dst *frame.Buffer, cy, w, h int) {
	y0 := cy * 2
	y1 := y0 + 1
	if y1 >= h {
		y1 = y0
	}
	row0 := pix[y0*stride:]
	row1 := pix[y1*stride:]

	chromaW := (w + 1) >> 1
	for cx := 0; cx < chromaW; cx++ {
		x0 := cx * 2 * 4
		x1 := x0 + 4
		if cx*2+1 >= w {
			x1 = x0
		}

		b := int32(row0[x0]) + int32(row0[x1]) + int32(row1[x0]) + int32(row1[x1])
		g := int32(row0[x0+1]) + int32(row0[x1+1]) + int32(row1[x0+1]) + int32(row1[x1+1])
		r := int32(row0[x0+2]) + int32(row0[x1+2]) + int32(row1[x0+2]) + int32(row1[x1+2])
		u, v := c.matrix.chroma((r+2)>>2, (g+2)>>2, (b+2)>>2)

		switch dst.Format {
		case frame.FormatNV12:
			uv := dst.Planes[1][cy*dst.Stride[1]:]
			uv[cx*2] = u
			uv[cx*2+1] = v
		default:
			dst.Planes[1][cy*dst.Stride[1]+cx] = u
			dst.Planes[2][cy*dst.Stride[2]+cx] = v
		}
	}
}

// parallelRows runs fn over [0, rows) split into contiguous bands, one per
// worker. It returns once every band is done.
func parallelRows(rows, workers int, fn func(start, end int)) {
	if workers <= 1 || rows < 2 {
		fn(0, rows)
		return
	}
	if workers > rows {
		workers = rows
	}
	rowsPerWorker := rows / workers

	var wg sync.WaitGroup
	wg.Add(workers)
	for worker := 0; worker < workers; worker++ {
		start := worker * rowsPerWorker
		end := start + rowsPerWorker
		if worker == workers-1 {
			end = rows
		}
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(start, end)
	}
	wg.Wait()
}
