package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/linuxmatters/rawpipe/internal/config"
	"github.com/linuxmatters/rawpipe/internal/convert"
	"github.com/linuxmatters/rawpipe/internal/frame"
	"github.com/linuxmatters/rawpipe/internal/rawio"
)

// ScaleEnv supplies the external pieces of the scale pipeline
type ScaleEnv struct {
	NewConverter ConverterFactory
	Input        io.Reader
	Output       io.Writer
	Progress     ProgressFunc
}

// RunScale reads BGRA frames, converts and resizes them to YUV420P and
// writes the planes of each frame as Y, U, V.
func RunScale(ctx context.Context, cfg config.Scale, env ScaleEnv) (stats Stats, err error) {
	if err := cfg.Validate(); err != nil {
		return stats, fmt.Errorf("invalid configuration: %w", err)
	}
	filter, err := convert.ParseFilter(cfg.Filter)
	if err != nil {
		return stats, err
	}

	stack := &Stack{}
	defer releaseInto(stack, &err)

	conv, err := env.NewConverter(convert.Spec{
		SrcFormat: frame.FormatBGRA,
		SrcWidth:  cfg.SrcSize.Width,
		SrcHeight: cfg.SrcSize.Height,
		DstFormat: frame.FormatYUV420P,
		DstWidth:  cfg.DstSize.Width,
		DstHeight: cfg.DstSize.Height,
		Filter:    filter,
	})
	if err != nil {
		return stats, fmt.Errorf("failed to create converter: %w", err)
	}
	stack.Push("converter", conv.Close)

	src, err := frame.Alloc(frame.FormatBGRA, cfg.SrcSize.Width, cfg.SrcSize.Height, config.SourceAlign)
	if err != nil {
		return stats, fmt.Errorf("could not allocate source image: %w", err)
	}
	dst, err := frame.Alloc(frame.FormatYUV420P, cfg.DstSize.Width, cfg.DstSize.Height, config.ConvertedAlign)
	if err != nil {
		return stats, fmt.Errorf("could not allocate destination image: %w", err)
	}

	reader := rawio.NewFrameReader(env.Input, cfg.SrcSize.Width, cfg.SrcSize.Height)
	writer := rawio.NewPlanarWriter(env.Output, rawio.PlanarOptions{IncludePadding: cfg.KeepPadding})

	start := time.Now()
	logger.Infof("scaling up to %d frames %s -> %s (%s)", cfg.Frames, cfg.SrcSize, cfg.DstSize, cfg.Filter)

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

		if err := conv.Convert(src, dst); err != nil {
			return stats, fmt.Errorf("frame %d: %w", stats.Frames, err)
		}
		if err := writer.WriteFrame(dst); err != nil {
			return stats, fmt.Errorf("frame %d: %w", stats.Frames, err)
		}

		stats.Frames++
		stats.Bytes = writer.BytesWritten()
		env.Progress.report(Update{
			Frame:   stats.Frames,
			Total:   cfg.Frames,
			Bytes:   stats.Bytes,
			Elapsed: time.Since(start),
			Source:  src,
		})
	}

	stats.Elapsed = time.Since(start)
	logger.Infof("scaled %d frames (%d bytes) in %s", stats.Frames, stats.Bytes, stats.Elapsed.Round(time.Millisecond))
	return stats, nil
}
