// scalevideo reads raw BGRA frames, rescales them to the requested size
// and writes raw planar YUV420P.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-multierror"
	"github.com/mattn/go-isatty"

	"github.com/linuxmatters/rawpipe/internal/cli"
	"github.com/linuxmatters/rawpipe/internal/config"
	"github.com/linuxmatters/rawpipe/internal/frame"
	"github.com/linuxmatters/rawpipe/internal/pipeline"
	"github.com/linuxmatters/rawpipe/internal/swscale"
	"github.com/linuxmatters/rawpipe/internal/ui"
	"github.com/linuxmatters/rawpipe/internal/vsize"
)

var version = "dev"

var program = cli.Program{
	Name:        "scalevideo",
	Description: "Rescale raw BGRA frames to the given output size and save them as raw YUV420P.",
	Usage:       "<output_file> <output_size>",
}

var CLI struct {
	OutputFile string `arg:"" name:"output_file" help:"Raw YUV420P output file" optional:""`
	OutputSize string `arg:"" name:"output_size" help:"Output size, WxH or abbreviation such as qvga" optional:""`

	Config      string `help:"YAML configuration file" type:"existingfile" placeholder:"FILE"`
	Input       string `help:"Raw BGRA input file" placeholder:"FILE"`
	SrcSize     string `help:"Input frame size" placeholder:"SIZE"`
	Frames      *int   `help:"Maximum number of frames to scale" placeholder:"N"`
	Filter      string `help:"Resampling filter: bilinear, bicubic, point" placeholder:"NAME"`
	Scaler      string `help:"Converter: go or sws" placeholder:"NAME"`
	Workers     int    `help:"Goroutines for the go converter (0 = one per CPU)" default:"0"`
	KeepPadding bool   `help:"Write full aligned rows, padding included"`
	LogLevel    string `help:"Log level" enum:"debug,info,warn,error,disable" default:"info"`
	NoProgress  bool   `help:"Disable the progress view"`
	NoPreview   bool   `help:"Hide the video preview in the progress view"`
	Version     bool   `help:"Show version information"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name(program.Name),
		kong.Description(program.Description),
		kong.Vars{"version": version},
		kong.UsageOnError(),
		kong.Help(cli.StyledHelpPrinter(program)),
	)

	if CLI.Version {
		cli.PrintVersion(program, version)
		os.Exit(0)
	}

	cfg, err := loadConfig()
	if errors.Is(err, errUsage) {
		usage(os.Stderr)
		os.Exit(1)
	}
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	if size, ok := playbackSize(cfg); ok {
		cli.PrintSuccess("Scaling succeeded. Play the output file with the command:")
		fmt.Println(playCommand(size, cfg.Output))
	} else {
		cli.PrintSuccess("Scaling succeeded.")
		strides := frame.FormatYUV420P.Strides(cfg.DstSize.Width, cfg.DstSize.Height, config.ConvertedAlign)
		cli.PrintWarning(fmt.Sprintf("Rows were written with padding (luma stride %d, chroma stride %d), so the file is not plain rawvideo and cannot be played with ffplay.",
			strides[0], strides[1]))
	}
}

// errUsage reports that a required positional argument is missing
var errUsage = errors.New("missing output_file or output_size")

func usage(w io.Writer) {
	fmt.Fprintln(w, program.UsageLine())
	fmt.Fprintln(w, "Reads raw BGRA frames, rescales them to output_size and saves them")
	fmt.Fprintln(w, "to output_file as raw planar YUV420P.")
}

func playCommand(size vsize.Size, output string) string {
	return fmt.Sprintf("ffplay -f rawvideo -pixel_format yuv420p -video_size %s %s", size, output)
}

// loadConfig layers defaults, the optional YAML file, flags and the
// positional arguments
func loadConfig() (config.Scale, error) {
	cfg := config.DefaultScale()
	if CLI.Config != "" {
		var err error
		if cfg, err = config.LoadScale(CLI.Config); err != nil {
			return cfg, err
		}
	}

	if CLI.OutputFile != "" {
		cfg.Output = CLI.OutputFile
	}
	if CLI.OutputSize != "" {
		size, err := vsize.Parse(CLI.OutputSize)
		if err != nil {
			return cfg, fmt.Errorf("invalid size '%s', must be in the form WxH or a valid size abbreviation", CLI.OutputSize)
		}
		cfg.DstSize = size
	}
	if cfg.Output == "" || cfg.DstSize == (vsize.Size{}) {
		return cfg, errUsage
	}

	if CLI.Input != "" {
		cfg.Input = CLI.Input
	}
	if CLI.SrcSize != "" {
		size, err := vsize.Parse(CLI.SrcSize)
		if err != nil {
			return cfg, err
		}
		cfg.SrcSize = size
	}
	if CLI.Frames != nil {
		cfg.Frames = *CLI.Frames
	}
	if CLI.Filter != "" {
		cfg.Filter = CLI.Filter
	}
	if CLI.Scaler != "" {
		cfg.Scaler = CLI.Scaler
	}
	if CLI.KeepPadding {
		cfg.KeepPadding = true
	}

	return cfg, cfg.Validate()
}

// playbackSize is the frame geometry a player must assume. With padding
// kept, luma rows are as wide as their stride, and the file only reads as
// rawvideo when each chroma stride is exactly half the luma stride.
func playbackSize(cfg config.Scale) (vsize.Size, bool) {
	if !cfg.KeepPadding {
		return cfg.DstSize, true
	}
	strides := frame.FormatYUV420P.Strides(cfg.DstSize.Width, cfg.DstSize.Height, config.ConvertedAlign)
	if strides[1] != strides[2] || strides[0] != 2*strides[1] {
		return vsize.Size{}, false
	}
	return vsize.Size{Width: strides[0], Height: cfg.DstSize.Height}, true
}

func run(cfg config.Scale) (err error) {
	cli.SetLogLevel(CLI.LogLevel)

	newConverter, err := swscale.Factory(cfg.Scaler, CLI.Workers)
	if err != nil {
		return err
	}

	in, err := os.Open(cfg.Input)
	if err != nil {
		return fmt.Errorf("could not open %s: %w", cfg.Input, err)
	}
	defer in.Close()

	outFile, err := os.Create(cfg.Output)
	if err != nil {
		return fmt.Errorf("could not open %s: %w", cfg.Output, err)
	}
	out := bufio.NewWriterSize(outFile, 1<<20)
	defer func() {
		if ferr := out.Flush(); ferr != nil {
			err = multierror.Append(err, fmt.Errorf("write %s: %w", cfg.Output, ferr))
		}
		if cerr := outFile.Close(); cerr != nil {
			err = multierror.Append(err, fmt.Errorf("close %s: %w", cfg.Output, cerr))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	env := pipeline.ScaleEnv{
		NewConverter: newConverter,
		Input:        bufio.NewReaderSize(in, 1<<20),
		Output:       out,
	}

	if CLI.NoProgress || !isatty.IsTerminal(os.Stdout.Fd()) {
		_, err := pipeline.RunScale(ctx, cfg, env)
		return err
	}

	releaseLogs := cli.HoldLogs()
	m := ui.NewModel(program.Name, fmt.Sprintf("%s %s → YUV420P %s (%s)", cfg.Input, cfg.SrcSize, cfg.DstSize, cfg.Filter), 0)
	err = ui.Run(ctx, m, func(ctx context.Context, send func(tea.Msg)) (ui.Complete, error) {
		sampler := ui.NewPreviewSampler(250 * time.Millisecond)
		env.Progress = func(u pipeline.Update) {
			msg := ui.Progress{Frame: u.Frame, Total: u.Total, Bytes: u.Bytes, Elapsed: u.Elapsed}
			if !CLI.NoPreview {
				msg.Preview = sampler.Sample(u.Source)
			}
			send(msg)
		}
		stats, err := pipeline.RunScale(ctx, cfg, env)
		return ui.Complete{
			OutputFile: cfg.Output,
			Frames:     stats.Frames,
			Bytes:      stats.Bytes,
			Elapsed:    stats.Elapsed,
			Short:      stats.Short,
		}, err
	})
	releaseLogs()
	if err != nil {
		return err
	}
	fmt.Print(m.CompletionSummary())
	return nil
}
