// gen-bgra writes synthetic raw BGRA frames, the input format of hwencode
// and scalevideo.
package main

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/hashicorp/go-multierror"

	"github.com/linuxmatters/rawpipe/internal/cli"
	"github.com/linuxmatters/rawpipe/internal/frame"
	"github.com/linuxmatters/rawpipe/internal/rawio"
	"github.com/linuxmatters/rawpipe/internal/testsrc"
	"github.com/linuxmatters/rawpipe/internal/vsize"
)

var version = "dev"

var program = cli.Program{
	Name:        "gen-bgra",
	Description: "Generate raw BGRA test frames.",
}

var args struct {
	Output  string `help:"Raw BGRA output file" default:"out.bgra" placeholder:"FILE"`
	Size    string `help:"Frame size, WxH or abbreviation" default:"hd720"`
	Frames  int    `help:"Number of frames to write" default:"1000"`
	Pattern string `help:"Pattern to draw" enum:"solid,bars,sweep" default:"sweep"`
	Colour  string `help:"Colour for solid and sweep, a name or #rrggbb" default:"blue"`
	Label   bool   `help:"Stamp the frame number on every frame"`
	Version bool   `help:"Show version information"`
}

func main() {
	kong.Parse(&args,
		kong.Name(program.Name),
		kong.Description(program.Description),
		kong.UsageOnError(),
		kong.Help(cli.StyledHelpPrinter(program)),
	)

	if args.Version {
		cli.PrintVersion(program, version)
		os.Exit(0)
	}

	start := time.Now()
	size, err := generate()
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	cli.PrintSuccess(fmt.Sprintf("Wrote %d %s frames to %s", args.Frames, size, args.Output))
	cli.PrintInfo("Size", cli.FormatBytes(int64(args.Frames)*int64(size.Pixels())*4))
	cli.PrintInfo("Time", cli.FormatDuration(time.Since(start)))
}

func generate() (size vsize.Size, err error) {
	if size, err = vsize.Parse(args.Size); err != nil {
		return size, err
	}
	if args.Frames < 0 {
		return size, fmt.Errorf("frames must not be negative, got %d", args.Frames)
	}
	pattern, err := testsrc.ParsePattern(args.Pattern)
	if err != nil {
		return size, err
	}
	colour, err := testsrc.ParseColour(args.Colour)
	if err != nil {
		return size, err
	}

	buf, err := frame.Alloc(frame.FormatBGRA, size.Width, size.Height, 1)
	if err != nil {
		return size, err
	}

	f, err := os.Create(args.Output)
	if err != nil {
		return size, fmt.Errorf("could not open %s: %w", args.Output, err)
	}
	out := bufio.NewWriterSize(f, 1<<20)
	defer func() {
		if ferr := out.Flush(); ferr != nil {
			err = multierror.Append(err, fmt.Errorf("write %s: %w", args.Output, ferr))
		}
		if cerr := f.Close(); cerr != nil {
			err = multierror.Append(err, fmt.Errorf("close %s: %w", args.Output, cerr))
		}
	}()

	gen := testsrc.New(pattern, colour, args.Label)
	fw := rawio.NewFrameWriter(out)
	for i := 0; i < args.Frames; i++ {
		if err := gen.Render(i, buf); err != nil {
			return size, err
		}
		if err := fw.WriteFrame(buf); err != nil {
			return size, err
		}
	}
	return size, nil
}
