package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxmatters/rawpipe/internal/convert"
	"github.com/linuxmatters/rawpipe/internal/frame"
)

func setArgs(t *testing.T, size, dstSize, format string) {
	saved := args
	t.Cleanup(func() { args = saved })
	args.Size = size
	args.DstSize = dstSize
	args.Filter = "bilinear"
	args.Format = format
}

func TestConversionSpecFormats(t *testing.T) {
	cases := map[string]frame.PixelFormat{
		"yuv420p": frame.FormatYUV420P,
		"i420":    frame.FormatYUV420P,
		"nv12":    frame.FormatNV12,
	}
	for name, want := range cases {
		t.Run(name, func(t *testing.T) {
			setArgs(t, "hd720", "", name)
			spec, err := conversionSpec()
			require.NoError(t, err)
			assert.Equal(t, want, spec.DstFormat)
			assert.Equal(t, frame.FormatBGRA, spec.SrcFormat)
			assert.Equal(t, 1280, spec.DstWidth)
			assert.Equal(t, 720, spec.DstHeight)
			assert.Equal(t, convert.FilterBilinear, spec.Filter)
		})
	}
}

func TestConversionSpecResize(t *testing.T) {
	setArgs(t, "hd720", "640x360", "yuv420p")
	spec, err := conversionSpec()
	require.NoError(t, err)
	assert.Equal(t, 1280, spec.SrcWidth)
	assert.Equal(t, 640, spec.DstWidth)
	assert.Equal(t, 360, spec.DstHeight)
}

func TestConversionSpecRejectsFormats(t *testing.T) {
	setArgs(t, "hd720", "", "bgra")
	_, err := conversionSpec()
	assert.Error(t, err)

	args.Format = "rgb565"
	_, err = conversionSpec()
	assert.Error(t, err)
}
