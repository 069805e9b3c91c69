package pipeline

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxmatters/rawpipe/internal/config"
	"github.com/linuxmatters/rawpipe/internal/convert"
	"github.com/linuxmatters/rawpipe/internal/encoder"
	"github.com/linuxmatters/rawpipe/internal/frame"
	"github.com/linuxmatters/rawpipe/internal/vsize"
)

func encodeConfig(frames, pool int) config.Encode {
	cfg := config.DefaultEncode()
	cfg.Size = vsize.Size{Width: 16, Height: 8}
	cfg.Frames = frames
	cfg.PoolSize = pool
	return cfg
}

func bgraInput(w, h, frames int) *bytes.Reader {
	one := bytes.Repeat([]byte{255, 0, 0, 255}, w*h)
	return bytes.NewReader(bytes.Repeat(one, frames))
}

type encodeFixture struct {
	rec    *recorder
	device *fakeDevice
	out    *bytes.Buffer
}

func newEncodeFixture(input *bytes.Reader) (*encodeFixture, EncodeEnv) {
	f := &encodeFixture{rec: &recorder{}, out: &bytes.Buffer{}}
	f.device = &fakeDevice{rec: f.rec}
	env := EncodeEnv{
		OpenDevice: func(accel string) (encoder.Device, error) {
			f.rec.add("open device " + accel)
			return f.device, nil
		},
		NewConverter: func(spec convert.Spec) (convert.Converter, error) {
			f.rec.add("open converter")
			return &fakeConverter{rec: f.rec, spec: spec}, nil
		},
		Input:  input,
		Output: f.out,
	}
	return f, env
}

func TestRunEncodeTeardownOrder(t *testing.T) {
	f, env := newEncodeFixture(bgraInput(16, 8, 5))

	stats, err := RunEncode(context.Background(), encodeConfig(5, 20), env)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"open device qsv", "open session", "open converter",
		"close converter", "close session", "close device",
	}, f.rec.events)
	assert.Equal(t, 5, stats.Frames)
	assert.Equal(t, 5, stats.Packets)
	assert.Equal(t, int64(25), stats.Bytes)
	assert.Equal(t, 1, f.device.session.flushes)
	assert.Equal(t, 0, f.device.session.outstanding)
}

func TestRunEncodePartialTeardown(t *testing.T) {
	f, env := newEncodeFixture(bgraInput(16, 8, 1))
	f.device.sessionErr = errors.New("encoder h264_qsv not found")

	_, err := RunEncode(context.Background(), encodeConfig(1, 20), env)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "h264_qsv")
	assert.Equal(t, []string{"open device qsv", "close device"}, f.rec.events)
}

func TestRunEncodeDeviceFailure(t *testing.T) {
	f, env := newEncodeFixture(bgraInput(16, 8, 1))
	env.OpenDevice = func(string) (encoder.Device, error) {
		return nil, errors.New("no such device")
	}

	_, err := RunEncode(context.Background(), encodeConfig(1, 20), env)
	require.Error(t, err)
	assert.Empty(t, f.rec.events)
	assert.Zero(t, f.out.Len())
}

func TestRunEncodeZeroFrames(t *testing.T) {
	f, env := newEncodeFixture(bgraInput(16, 8, 0))

	stats, err := RunEncode(context.Background(), encodeConfig(0, 20), env)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Frames)
	assert.Equal(t, 1, f.device.session.flushes)
	assert.Zero(t, f.out.Len())
}

func TestRunEncodeBudgetLimitsFrames(t *testing.T) {
	f, env := newEncodeFixture(bgraInput(16, 8, 10))

	stats, err := RunEncode(context.Background(), encodeConfig(4, 20), env)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Frames)
	assert.Equal(t, 4, f.device.session.uploads)
}

func TestRunEncodePoolBound(t *testing.T) {
	// Lookahead of 3 plus the frame being uploaded needs 4 surfaces
	f, env := newEncodeFixture(bgraInput(16, 8, 30))
	_, err := RunEncode(context.Background(), encodeConfig(30, 4), env)
	require.NoError(t, err)
	assert.LessOrEqual(t, f.device.session.peak, 4)

	f, env = newEncodeFixture(bgraInput(16, 8, 30))
	_, err = RunEncode(context.Background(), encodeConfig(30, 3), env)
	require.Error(t, err)
	assert.ErrorIs(t, err, encoder.ErrPoolExhausted)
	assert.Equal(t, 0, f.device.session.flushes)
	assert.Equal(t, []string{"close converter", "close session", "close device"}, f.rec.events[3:])
}

func TestRunEncodeFlushingRunsOnceBeforeDrain(t *testing.T) {
	cases := map[string]struct {
		available, budget int
	}{
		"budget reached": {available: 4, budget: 4},
		"short input":    {available: 2, budget: 10},
		"no frames":      {available: 0, budget: 0},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			f, env := newEncodeFixture(bgraInput(16, 8, tc.available))
			calls := 0
			env.Flushing = func() {
				calls++
				assert.Equal(t, 0, f.device.session.flushes, "hook runs before the encoder drains")
			}

			stats, err := RunEncode(context.Background(), encodeConfig(tc.budget, 20), env)
			require.NoError(t, err)
			assert.Equal(t, 1, calls)
			assert.Equal(t, tc.available, stats.Frames)
			assert.Equal(t, 1, f.device.session.flushes)
		})
	}
}

func TestRunEncodeFlushingSkippedOnFailure(t *testing.T) {
	f, env := newEncodeFixture(bgraInput(16, 8, 30))
	called := false
	env.Flushing = func() { called = true }

	_, err := RunEncode(context.Background(), encodeConfig(30, 3), env)
	require.ErrorIs(t, err, encoder.ErrPoolExhausted)
	assert.False(t, called)
	assert.Equal(t, 0, f.device.session.flushes)
}

func TestRunEncodeShortInput(t *testing.T) {
	data := bgraInput(16, 8, 3)
	raw := make([]byte, data.Len())
	_, _ = data.Read(raw)
	short := bytes.NewReader(raw[:len(raw)-100])

	f, env := newEncodeFixture(short)
	stats, err := RunEncode(context.Background(), encodeConfig(10, 20), env)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Frames)
	assert.True(t, stats.Short)
	assert.Equal(t, 1, f.device.session.flushes)
}

func TestRunEncodeCancelled(t *testing.T) {
	f, env := newEncodeFixture(bgraInput(16, 8, 5))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunEncode(ctx, encodeConfig(5, 20), env)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "close device", f.rec.events[len(f.rec.events)-1])
}

func TestRunEncodeProgress(t *testing.T) {
	_, env := newEncodeFixture(bgraInput(16, 8, 3))
	var updates []Update
	env.Progress = func(u Update) { updates = append(updates, u) }

	_, err := RunEncode(context.Background(), encodeConfig(3, 20), env)
	require.NoError(t, err)
	require.Len(t, updates, 3)
	assert.Equal(t, 3, updates[2].Frame)
	assert.Equal(t, 3, updates[2].Total)
	require.NotNil(t, updates[2].Source)
	assert.True(t, updates[2].Source.Matches(frame.FormatBGRA, 16, 8))
}

func TestRunEncodeInvalidConfig(t *testing.T) {
	f, env := newEncodeFixture(bgraInput(16, 8, 1))
	cfg := encodeConfig(1, 0)
	_, err := RunEncode(context.Background(), cfg, env)
	assert.Error(t, err)
	assert.Empty(t, f.rec.events)
}

func scaleConfig(frames int, dst vsize.Size) config.Scale {
	cfg := config.DefaultScale()
	cfg.Output = "out.yuv"
	cfg.SrcSize = vsize.Size{Width: 64, Height: 64}
	cfg.DstSize = dst
	cfg.Frames = frames
	return cfg
}

func goConverter(spec convert.Spec) (convert.Converter, error) {
	return convert.New(spec)
}

func TestRunScaleSolidBlue(t *testing.T) {
	var out bytes.Buffer
	env := ScaleEnv{
		NewConverter: goConverter,
		Input:        bgraInput(64, 64, 10),
		Output:       &out,
	}

	stats, err := RunScale(context.Background(), scaleConfig(100, vsize.Size{Width: 64, Height: 64}), env)
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Frames)
	assert.False(t, stats.Short)

	frameSize := 64*64 + 2*32*32
	require.Equal(t, 10*frameSize, out.Len())

	data := out.Bytes()
	for i := 0; i < 10; i++ {
		f := data[i*frameSize : (i+1)*frameSize]
		assert.Equal(t, bytes.Repeat([]byte{41}, 64*64), f[:4096], "frame %d Y", i)
		assert.Equal(t, bytes.Repeat([]byte{240}, 32*32), f[4096:5120], "frame %d U", i)
		assert.Equal(t, bytes.Repeat([]byte{110}, 32*32), f[5120:], "frame %d V", i)
	}
}

func TestRunScaleDownscale(t *testing.T) {
	var out bytes.Buffer
	env := ScaleEnv{NewConverter: goConverter, Input: bgraInput(64, 64, 2), Output: &out}

	stats, err := RunScale(context.Background(), scaleConfig(2, vsize.Size{Width: 20, Height: 10}), env)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Frames)
	assert.Equal(t, 2*frame.FormatYUV420P.ImageSize(20, 10), out.Len())
	assert.Equal(t, int64(out.Len()), stats.Bytes)
}

func TestRunScaleKeepPadding(t *testing.T) {
	var out bytes.Buffer
	env := ScaleEnv{NewConverter: goConverter, Input: bgraInput(64, 64, 1), Output: &out}
	cfg := scaleConfig(1, vsize.Size{Width: 20, Height: 10})
	cfg.KeepPadding = true

	_, err := RunScale(context.Background(), cfg, env)
	require.NoError(t, err)
	// Luma stride 32, chroma stride 16 at 16-byte alignment
	assert.Equal(t, 32*10+2*16*5, out.Len())
}

func TestRunScaleShortInput(t *testing.T) {
	var out bytes.Buffer
	raw := make([]byte, 64*64*4*5/2)
	env := ScaleEnv{NewConverter: goConverter, Input: bytes.NewReader(raw), Output: &out}

	stats, err := RunScale(context.Background(), scaleConfig(10, vsize.Size{Width: 64, Height: 64}), env)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Frames)
	assert.True(t, stats.Short)
	assert.Equal(t, 2*6144, out.Len())
}

func TestRunScaleConverterFailure(t *testing.T) {
	env := ScaleEnv{
		NewConverter: func(convert.Spec) (convert.Converter, error) {
			return nil, errors.New("impossible to create scale context")
		},
		Input:  bgraInput(64, 64, 1),
		Output: &bytes.Buffer{},
	}
	_, err := RunScale(context.Background(), scaleConfig(1, vsize.Size{Width: 64, Height: 64}), env)
	assert.ErrorContains(t, err, "scale context")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestRunScaleWriteFailureReleases(t *testing.T) {
	rec := &recorder{}
	env := ScaleEnv{
		NewConverter: func(spec convert.Spec) (convert.Converter, error) {
			return &fakeConverter{rec: rec, spec: spec}, nil
		},
		Input:  bgraInput(64, 64, 3),
		Output: failingWriter{},
	}
	_, err := RunScale(context.Background(), scaleConfig(3, vsize.Size{Width: 64, Height: 64}), env)
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, []string{"close converter"}, rec.events)
}
