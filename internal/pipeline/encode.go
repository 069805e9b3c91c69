package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/linuxmatters/rawpipe/internal/config"
	"github.com/linuxmatters/rawpipe/internal/convert"
	"github.com/linuxmatters/rawpipe/internal/encoder"
	"github.com/linuxmatters/rawpipe/internal/frame"
	"github.com/linuxmatters/rawpipe/internal/rawio"
)

// EncodeEnv supplies the external pieces of the hardware encode pipeline
type EncodeEnv struct {
	OpenDevice   func(accel string) (encoder.Device, error)
	NewConverter ConverterFactory
	Input        io.Reader
	Output       io.Writer
	Progress     ProgressFunc
	// Flushing, if set, runs once after the last frame is submitted and
	// before the encoder drains
	Flushing func()
}

// RunEncode reads BGRA frames, converts them to NV12, uploads them to the
// accelerator and writes the encoded bitstream. Resources are acquired as
// device, encoder session, converter, buffers and released in reverse on
// every exit path. The encoder is flushed exactly once, including when no
// frames were read.
func RunEncode(ctx context.Context, cfg config.Encode, env EncodeEnv) (stats Stats, err error) {
	if err := cfg.Validate(); err != nil {
		return stats, fmt.Errorf("invalid configuration: %w", err)
	}
	filter, err := convert.ParseFilter(cfg.Filter)
	if err != nil {
		return stats, err
	}

	stack := &Stack{}
	defer releaseInto(stack, &err)

	device, err := env.OpenDevice(cfg.Accel)
	if err != nil {
		return stats, fmt.Errorf("failed to create %s device: %w", cfg.Accel, err)
	}
	stack.Push("device", device.Close)

	session, err := device.OpenSession(encoder.Settings{
		EncoderName: cfg.Encoder,
		Width:       cfg.Size.Width,
		Height:      cfg.Size.Height,
		Framerate:   cfg.FPS,
		PoolSize:    cfg.PoolSize,
	})
	if err != nil {
		return stats, fmt.Errorf("failed to open encoder %s: %w", cfg.Encoder, err)
	}
	stack.Push("encoder session", session.Close)

	conv, err := env.NewConverter(convert.Spec{
		SrcFormat: frame.FormatBGRA,
		SrcWidth:  cfg.Size.Width,
		SrcHeight: cfg.Size.Height,
		DstFormat: frame.FormatNV12,
		DstWidth:  cfg.Size.Width,
		DstHeight: cfg.Size.Height,
		Filter:    filter,
	})
	if err != nil {
		return stats, fmt.Errorf("failed to create converter: %w", err)
	}
	stack.Push("converter", conv.Close)

	src, err := frame.Alloc(frame.FormatBGRA, cfg.Size.Width, cfg.Size.Height, config.SourceAlign)
	if err != nil {
		return stats, fmt.Errorf("could not allocate source frame: %w", err)
	}
	nv12, err := frame.Alloc(frame.FormatNV12, cfg.Size.Width, cfg.Size.Height, config.ConvertedAlign)
	if err != nil {
		return stats, fmt.Errorf("could not allocate destination frame: %w", err)
	}

	reader := rawio.NewFrameReader(env.Input, cfg.Size.Width, cfg.Size.Height)
	sink := rawio.NewPacketWriter(env.Output)
	sub := encoder.NewSubmitter(session, sink)

	start := time.Now()
	logger.Infof("encoding up to %d frames of %s with %s", cfg.Frames, cfg.Size, cfg.Encoder)
	logger.Debugf("holding %d resources", stack.Len())

	for stats.Frames < cfg.Frames {
		if err := cancelled(ctx); err != nil {
			return stats, err
		}

		ok, err := readNext(reader, src, &stats)
		if err != nil {
			return stats, err
		}
		if !ok {
			break
		}

		if err := conv.Convert(src, nv12); err != nil {
			return stats, fmt.Errorf("frame %d: %w", stats.Frames, err)
		}

		hw, err := session.Upload(nv12)
		if err != nil {
			if errors.Is(err, encoder.ErrPoolExhausted) {
				return stats, fmt.Errorf("frame %d: %w (pool size %d)", stats.Frames, err, cfg.PoolSize)
			}
			return stats, fmt.Errorf("frame %d: upload: %w", stats.Frames, err)
		}
		err = sub.Submit(hw)
		hw.Release()
		if err != nil {
			return stats, fmt.Errorf("frame %d: %w", stats.Frames, err)
		}

		stats.Frames++
		stats.Packets = sink.Packets()
		stats.Bytes = sink.BytesWritten()
		env.Progress.report(Update{
			Frame:   stats.Frames,
			Total:   cfg.Frames,
			Bytes:   stats.Bytes,
			Elapsed: time.Since(start),
			Source:  src,
		})
	}

	if env.Flushing != nil {
		env.Flushing()
	}
	if err := sub.Flush(); err != nil {
		return stats, fmt.Errorf("failed to flush encoder: %w", err)
	}

	final := sub.Stats()
	logger.Debugf("encoder %s after %d submitted frames", sub.State(), final.Frames)
	stats.Packets = final.Packets
	stats.Bytes = final.Bytes
	stats.Elapsed = time.Since(start)
	logger.Infof("encoded %d frames into %d packets (%d bytes) in %s",
		stats.Frames, stats.Packets, stats.Bytes, stats.Elapsed.Round(time.Millisecond))
	return stats, nil
}
