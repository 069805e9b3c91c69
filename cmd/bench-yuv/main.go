// bench-yuv is a standalone benchmark for BGRA→YUV420P conversion.
// Designed to be called by hyperfine for statistical analysis.
//
// Usage:
//
//	bench-yuv [--iterations N] [--impl go|swscale] [--workers N] [--size WxH] [--format yuv420p|nv12]
package main

import (
	"fmt"
	"image/color"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/linuxmatters/rawpipe/internal/cli"
	"github.com/linuxmatters/rawpipe/internal/convert"
	"github.com/linuxmatters/rawpipe/internal/frame"
	"github.com/linuxmatters/rawpipe/internal/swscale"
	"github.com/linuxmatters/rawpipe/internal/testsrc"
	"github.com/linuxmatters/rawpipe/internal/vsize"
)

var program = cli.Program{
	Name:        "bench-yuv",
	Description: "Time BGRA to YUV420P or NV12 conversion with the Go converter or libswscale.",
}

var args struct {
	Iterations int    `help:"Number of conversions to perform" default:"1000"`
	Impl       string `help:"Implementation" enum:"go,swscale" default:"go"`
	Workers    int    `help:"Goroutines for the Go converter (0 = one per CPU)" default:"0"`
	Size       string `help:"Frame size, WxH or abbreviation" default:"hd720"`
	Filter     string `help:"Resampling filter" enum:"bilinear,bicubic,point" default:"bilinear"`
	DstSize    string `help:"Destination size when benchmarking a resize" placeholder:"SIZE"`
	Format     string `help:"Destination pixel format (yuv420p, i420 or nv12)" default:"yuv420p"`
	Quiet      bool   `help:"Print nothing on success"`
}

func main() {
	kong.Parse(&args,
		kong.Name(program.Name),
		kong.Description(program.Description),
		kong.UsageOnError(),
		kong.Help(cli.StyledHelpPrinter(program)),
	)

	if err := run(); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

// conversionSpec builds the benchmarked conversion from the flags
func conversionSpec() (convert.Spec, error) {
	src, err := vsize.Parse(args.Size)
	if err != nil {
		return convert.Spec{}, err
	}
	dst := src
	if args.DstSize != "" {
		if dst, err = vsize.Parse(args.DstSize); err != nil {
			return convert.Spec{}, err
		}
	}
	filter, err := convert.ParseFilter(args.Filter)
	if err != nil {
		return convert.Spec{}, err
	}
	format, err := frame.ParsePixelFormat(args.Format)
	if err != nil {
		return convert.Spec{}, err
	}
	if format == frame.FormatBGRA {
		return convert.Spec{}, fmt.Errorf("destination format must be planar YUV, got %s", format)
	}
	return convert.Spec{
		SrcFormat: frame.FormatBGRA, SrcWidth: src.Width, SrcHeight: src.Height,
		DstFormat: format, DstWidth: dst.Width, DstHeight: dst.Height,
		Filter: filter,
	}, nil
}

func run() error {
	spec, err := conversionSpec()
	if err != nil {
		return err
	}

	scaler := "go"
	if args.Impl == "swscale" {
		scaler = "sws"
	}
	newConverter, err := swscale.Factory(scaler, args.Workers)
	if err != nil {
		return err
	}
	conv, err := newConverter(spec)
	if err != nil {
		return err
	}
	defer conv.Close()

	in, err := frame.Alloc(frame.FormatBGRA, spec.SrcWidth, spec.SrcHeight, 1)
	if err != nil {
		return err
	}
	if err := testsrc.New(testsrc.PatternBars, color.RGBA{}, true).Render(0, in); err != nil {
		return err
	}
	out, err := frame.Alloc(spec.DstFormat, spec.DstWidth, spec.DstHeight, 16)
	if err != nil {
		return err
	}

	start := time.Now()
	for i := 0; i < args.Iterations; i++ {
		if err := conv.Convert(in, out); err != nil {
			return err
		}
	}
	elapsed := time.Since(start)

	if !args.Quiet {
		cli.PrintSummary(cli.Summary{
			Title: "Benchmark complete",
			Rows: [][2]string{
				{"Implementation", args.Impl},
				{"Conversion", conv.Spec().String()},
				{"Iterations", fmt.Sprintf("%d", args.Iterations)},
				{"Total", cli.FormatDuration(elapsed)},
				{"Rate", cli.FormatRate(args.Iterations, elapsed)},
			},
		})
	}
	return nil
}
