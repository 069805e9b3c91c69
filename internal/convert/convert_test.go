package convert

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxmatters/rawpipe/internal/frame"
)

func solidFrame(t *testing.T, w, h int, blue, green, red uint8) *frame.Buffer {
	t.Helper()
	b, err := frame.Alloc(frame.FormatBGRA, w, h, 1)
	require.NoError(t, err)
	require.NoError(t, b.Fill(blue, green, red, 0))
	return b
}

func planeValues(b *frame.Buffer, plane int) map[byte]int {
	counts := map[byte]int{}
	_, rows := b.Format.PlaneGeometry(plane, b.Width, b.Height)
	for y := 0; y < rows; y++ {
		for _, v := range b.Row(plane, y) {
			counts[v]++
		}
	}
	return counts
}

func TestBT601SolidColours(t *testing.T) {
	testCases := []struct {
		name             string
		blue, green, red uint8
		y, u, v          uint8
	}{
		{"blue", 255, 0, 0, 41, 240, 110},
		{"white", 255, 255, 255, 235, 128, 128},
		{"black", 0, 0, 0, 16, 128, 128},
		{"red", 0, 0, 255, 82, 90, 240},
		{"green", 0, 255, 0, 144, 54, 34},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			spec := Spec{
				SrcFormat: frame.FormatBGRA, SrcWidth: 16, SrcHeight: 8,
				DstFormat: frame.FormatYUV420P, DstWidth: 16, DstHeight: 8,
			}
			c, err := New(spec)
			require.NoError(t, err)
			defer c.Close()

			dst, err := frame.Alloc(frame.FormatYUV420P, 16, 8, 16)
			require.NoError(t, err)
			require.NoError(t, c.Convert(solidFrame(t, 16, 8, tc.blue, tc.green, tc.red), dst))

			assert.Equal(t, map[byte]int{tc.y: 128}, planeValues(dst, 0))
			assert.Equal(t, map[byte]int{tc.u: 32}, planeValues(dst, 1))
			assert.Equal(t, map[byte]int{tc.v: 32}, planeValues(dst, 2))

			y, u, v := YUV(BT601, tc.blue, tc.green, tc.red)
			assert.Equal(t, []uint8{tc.y, tc.u, tc.v}, []uint8{y, u, v})
		})
	}
}

func TestJFIFMatchesImageColor(t *testing.T) {
	colours := [][3]uint8{{255, 0, 0}, {10, 200, 30}, {128, 128, 128}, {0, 0, 0}, {255, 255, 255}}
	for _, rgb := range colours {
		wantY, wantCb, wantCr := color.RGBToYCbCr(rgb[0], rgb[1], rgb[2])

		spec := Spec{
			SrcFormat: frame.FormatBGRA, SrcWidth: 4, SrcHeight: 4,
			DstFormat: frame.FormatYUV420P, DstWidth: 4, DstHeight: 4,
			Colorimetry: JFIF,
		}
		c, err := New(spec)
		require.NoError(t, err)

		dst, err := frame.Alloc(frame.FormatYUV420P, 4, 4, 1)
		require.NoError(t, err)
		require.NoError(t, c.Convert(solidFrame(t, 4, 4, rgb[2], rgb[1], rgb[0]), dst))

		assert.Equal(t, wantY, dst.Planes[0][0], "Y for %v", rgb)
		assert.Equal(t, wantCb, dst.Planes[1][0], "Cb for %v", rgb)
		assert.Equal(t, wantCr, dst.Planes[2][0], "Cr for %v", rgb)
	}
}

func TestNV12Interleaves(t *testing.T) {
	spec := Spec{
		SrcFormat: frame.FormatBGRA, SrcWidth: 6, SrcHeight: 4,
		DstFormat: frame.FormatNV12, DstWidth: 6, DstHeight: 4,
	}
	c, err := New(spec)
	require.NoError(t, err)

	dst, err := frame.Alloc(frame.FormatNV12, 6, 4, 32)
	require.NoError(t, err)
	require.NoError(t, c.Convert(solidFrame(t, 6, 4, 255, 0, 0), dst))

	for cy := 0; cy < 2; cy++ {
		assert.Equal(t, []byte{240, 110, 240, 110, 240, 110}, dst.Row(1, cy))
	}
	assert.Equal(t, map[byte]int{41: 24}, planeValues(dst, 0))
}

func TestChromaAveragesBlock(t *testing.T) {
	spec := Spec{
		SrcFormat: frame.FormatBGRA, SrcWidth: 2, SrcHeight: 2,
		DstFormat: frame.FormatYUV420P, DstWidth: 2, DstHeight: 2,
		Colorimetry: JFIF,
	}
	c, err := New(spec)
	require.NoError(t, err)

	// Two white and two black pixels average to mid grey
	src := solidFrame(t, 2, 2, 0, 0, 0)
	copy(src.Planes[0][0:4], []byte{255, 255, 255, 255})
	copy(src.Planes[0][12:16], []byte{255, 255, 255, 255})

	dst, err := frame.Alloc(frame.FormatYUV420P, 2, 2, 1)
	require.NoError(t, err)
	require.NoError(t, c.Convert(src, dst))

	assert.Equal(t, []byte{255, 0, 0, 255}, dst.Planes[0])
	_, cb, cr := color.RGBToYCbCr(128, 128, 128)
	assert.Equal(t, cb, dst.Planes[1][0])
	assert.Equal(t, cr, dst.Planes[2][0])
}

func TestOddSizeReplicatesEdge(t *testing.T) {
	spec := Spec{
		SrcFormat: frame.FormatBGRA, SrcWidth: 5, SrcHeight: 3,
		DstFormat: frame.FormatYUV420P, DstWidth: 5, DstHeight: 3,
	}
	c, err := New(spec)
	require.NoError(t, err)

	dst, err := frame.Alloc(frame.FormatYUV420P, 5, 3, 1)
	require.NoError(t, err)
	require.NoError(t, c.Convert(solidFrame(t, 5, 3, 255, 0, 0), dst))

	assert.Len(t, dst.Planes[1], 3*2)
	assert.Equal(t, map[byte]int{240: 6}, planeValues(dst, 1))
	assert.Equal(t, map[byte]int{110: 6}, planeValues(dst, 2))
}

func TestScalingKeepsSolidColour(t *testing.T) {
	for _, f := range []Filter{FilterBilinear, FilterBicubic, FilterPoint} {
		t.Run(f.String(), func(t *testing.T) {
			spec := Spec{
				SrcFormat: frame.FormatBGRA, SrcWidth: 64, SrcHeight: 36,
				DstFormat: frame.FormatYUV420P, DstWidth: 22, DstHeight: 13,
				Filter: f,
			}
			c, err := New(spec)
			require.NoError(t, err)

			dst, err := frame.Alloc(frame.FormatYUV420P, 22, 13, 16)
			require.NoError(t, err)
			// Alpha of zero must not leak into the colour
			require.NoError(t, c.Convert(solidFrame(t, 64, 36, 255, 0, 0), dst))

			for y := 0; y < 13; y++ {
				for _, v := range dst.Row(0, y) {
					assert.InDelta(t, 41, int(v), 1)
				}
			}
			for y := 0; y < 7; y++ {
				for _, v := range dst.Row(1, y) {
					assert.InDelta(t, 240, int(v), 1)
				}
				for _, v := range dst.Row(2, y) {
					assert.InDelta(t, 110, int(v), 1)
				}
			}
		})
	}
}

func TestWorkersMatchSingleThread(t *testing.T) {
	spec := Spec{
		SrcFormat: frame.FormatBGRA, SrcWidth: 33, SrcHeight: 21,
		DstFormat: frame.FormatYUV420P, DstWidth: 33, DstHeight: 21,
	}
	src, err := frame.Alloc(frame.FormatBGRA, 33, 21, 1)
	require.NoError(t, err)
	for i := range src.Planes[0] {
		src.Planes[0][i] = byte(i * 7)
	}

	single, err := New(spec)
	require.NoError(t, err)
	multi, err := New(spec, WithWorkers(4))
	require.NoError(t, err)

	a, err := frame.Alloc(frame.FormatYUV420P, 33, 21, 1)
	require.NoError(t, err)
	b, err := frame.Alloc(frame.FormatYUV420P, 33, 21, 1)
	require.NoError(t, err)

	require.NoError(t, single.Convert(src, a))
	require.NoError(t, multi.Convert(src, b))
	assert.Equal(t, a.Planes, b.Planes)
}

func TestConvertRejectsMismatchedBuffers(t *testing.T) {
	spec := Spec{
		SrcFormat: frame.FormatBGRA, SrcWidth: 8, SrcHeight: 8,
		DstFormat: frame.FormatYUV420P, DstWidth: 4, DstHeight: 4,
	}
	c, err := New(spec)
	require.NoError(t, err)

	good, err := frame.Alloc(frame.FormatYUV420P, 4, 4, 1)
	require.NoError(t, err)
	wrongSize, err := frame.Alloc(frame.FormatYUV420P, 8, 8, 1)
	require.NoError(t, err)
	wrongFormat, err := frame.Alloc(frame.FormatNV12, 4, 4, 1)
	require.NoError(t, err)

	assert.Error(t, c.Convert(solidFrame(t, 4, 4, 0, 0, 0), good))
	assert.Error(t, c.Convert(solidFrame(t, 8, 8, 0, 0, 0), wrongSize))
	assert.Error(t, c.Convert(solidFrame(t, 8, 8, 0, 0, 0), wrongFormat))
	assert.Error(t, c.Convert(nil, good))
}

func TestSpecValidate(t *testing.T) {
	base := Spec{
		SrcFormat: frame.FormatBGRA, SrcWidth: 8, SrcHeight: 8,
		DstFormat: frame.FormatNV12, DstWidth: 8, DstHeight: 8,
	}
	require.NoError(t, base.Validate())
	assert.False(t, base.Scaling())

	bad := base
	bad.DstWidth = 0
	assert.Error(t, bad.Validate())

	bad = base
	bad.SrcFormat = frame.FormatYUV420P
	assert.Error(t, bad.Validate())

	bad = base
	bad.DstFormat = frame.FormatBGRA
	assert.Error(t, bad.Validate())

	bad = base
	bad.Filter = Filter(9)
	assert.Error(t, bad.Validate())

	_, err := New(bad)
	assert.Error(t, err)
}

func TestParseFilter(t *testing.T) {
	f, err := ParseFilter("bicubic")
	require.NoError(t, err)
	assert.Equal(t, FilterBicubic, f)

	f, err = ParseFilter("point")
	require.NoError(t, err)
	assert.Equal(t, FilterPoint, f)

	_, err = ParseFilter("lanczos")
	assert.Error(t, err)
}
