package main

import (
	"bytes"
	"testing"

	"github.com/linuxmatters/rawpipe/internal/config"
	"github.com/linuxmatters/rawpipe/internal/frame"
	"github.com/linuxmatters/rawpipe/internal/rawio"
	"github.com/linuxmatters/rawpipe/internal/vsize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetFlags(t *testing.T) {
	saved := CLI
	t.Cleanup(func() { CLI = saved })
}

func TestLoadConfigPositionals(t *testing.T) {
	resetFlags(t)
	CLI.OutputFile = "out.yuv"
	CLI.OutputSize = "qvga"
	CLI.Filter = "bicubic"

	cfg, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "out.yuv", cfg.Output)
	assert.Equal(t, vsize.Size{Width: 320, Height: 240}, cfg.DstSize)
	assert.Equal(t, "bicubic", cfg.Filter)
	assert.Equal(t, config.ScaleInput, cfg.Input)
}

func TestLoadConfigBadSize(t *testing.T) {
	resetFlags(t)
	CLI.OutputFile = "out.yuv"
	CLI.OutputSize = "12by7"

	_, err := loadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be in the form WxH or a valid size abbreviation")
}

func TestLoadConfigMissingArguments(t *testing.T) {
	testCases := []struct {
		name   string
		output string
		size   string
	}{
		{"no arguments", "", ""},
		{"missing size", "out.yuv", ""},
		{"missing output", "", "64x64"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resetFlags(t)
			CLI.OutputFile = tc.output
			CLI.OutputSize = tc.size

			_, err := loadConfig()
			assert.ErrorIs(t, err, errUsage)
		})
	}
}

func TestUsageNamesArguments(t *testing.T) {
	var out bytes.Buffer
	usage(&out)
	assert.Contains(t, out.String(), "scalevideo <output_file> <output_size>")
}

// paddedFrameBytes is what the planar writer emits for one padded frame
func paddedFrameBytes(t *testing.T, size vsize.Size) int {
	t.Helper()
	b, err := frame.Alloc(frame.FormatYUV420P, size.Width, size.Height, config.ConvertedAlign)
	require.NoError(t, err)
	var out bytes.Buffer
	require.NoError(t, rawio.NewPlanarWriter(&out, rawio.PlanarOptions{IncludePadding: true}).WriteFrame(b))
	return out.Len()
}

func TestPlaybackSize(t *testing.T) {
	cfg := config.DefaultScale()
	cfg.DstSize = vsize.Size{Width: 20, Height: 10}
	size, ok := playbackSize(cfg)
	require.True(t, ok)
	assert.Equal(t, cfg.DstSize, size)

	cfg.KeepPadding = true
	size, ok = playbackSize(cfg)
	require.True(t, ok)
	assert.Equal(t, vsize.Size{Width: 32, Height: 10}, size)
	assert.Equal(t, frame.FormatYUV420P.ImageSize(size.Width, size.Height), paddedFrameBytes(t, cfg.DstSize),
		"player frame size matches the bytes written")
}

func TestPlaybackSizeInconsistentChromaPadding(t *testing.T) {
	cfg := config.DefaultScale()
	cfg.DstSize = vsize.Size{Width: 100, Height: 10}
	cfg.KeepPadding = true

	// Luma pads 100 to 112 but chroma pads 50 to 64, not 56
	_, ok := playbackSize(cfg)
	assert.False(t, ok)
	assert.NotEqual(t, frame.FormatYUV420P.ImageSize(112, 10), paddedFrameBytes(t, cfg.DstSize))
}

func TestPlayCommand(t *testing.T) {
	assert.Equal(t, "ffplay -f rawvideo -pixel_format yuv420p -video_size 64x64 out.yuv",
		playCommand(vsize.Size{Width: 64, Height: 64}, "out.yuv"))
}
