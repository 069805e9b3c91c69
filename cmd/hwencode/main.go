// hwencode reads raw BGRA frames, converts them to NV12, uploads them to a
// hardware encoder and writes the H.264 elementary stream.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-multierror"
	"github.com/mattn/go-isatty"

	"github.com/linuxmatters/rawpipe/internal/cli"
	"github.com/linuxmatters/rawpipe/internal/config"
	"github.com/linuxmatters/rawpipe/internal/encoder"
	"github.com/linuxmatters/rawpipe/internal/hwaccel"
	"github.com/linuxmatters/rawpipe/internal/pipeline"
	"github.com/linuxmatters/rawpipe/internal/swscale"
	"github.com/linuxmatters/rawpipe/internal/ui"
	"github.com/linuxmatters/rawpipe/internal/vsize"
)

// version is set via ldflags at build time
var version = "dev"

var program = cli.Program{
	Name:        "hwencode",
	Description: "Encode raw BGRA frames to H.264 on a hardware encoder.",
}

// Every option is optional; unset flags leave the configuration file or
// built-in defaults in place.
var CLI struct {
	Config     string `help:"YAML configuration file" type:"existingfile" placeholder:"FILE"`
	Input      string `help:"Raw BGRA input file" placeholder:"FILE"`
	Output     string `help:"H.264 elementary stream output file" placeholder:"FILE"`
	Size       string `help:"Frame size, WxH or abbreviation such as hd720" placeholder:"SIZE"`
	Frames     *int   `help:"Maximum number of frames to encode" placeholder:"N"`
	FPS        *int   `name:"fps" help:"Frame rate of the stream" placeholder:"N"`
	Encoder    string `help:"FFmpeg encoder name" placeholder:"NAME"`
	Accel      string `help:"Hardware accelerator: qsv, vaapi, nvenc, vulkan, videotoolbox" placeholder:"TYPE"`
	PoolSize   *int   `help:"Hardware frame pool size" placeholder:"N"`
	Scaler     string `help:"NV12 converter: go or sws" placeholder:"NAME"`
	Workers    int    `help:"Goroutines for the go converter (0 = one per CPU)" default:"0"`
	LogLevel   string `help:"Log level" enum:"debug,info,warn,error,disable" default:"info"`
	NoProgress bool   `help:"Disable the progress view"`
	NoPreview  bool   `help:"Hide the video preview in the progress view"`
	Version    bool   `help:"Show version information"`
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

	if err := run(); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

// loadConfig layers defaults, the optional YAML file and flags
func loadConfig() (config.Encode, error) {
	cfg := config.DefaultEncode()
	if CLI.Config != "" {
		var err error
		if cfg, err = config.LoadEncode(CLI.Config); err != nil {
			return cfg, err
		}
	}

	if CLI.Input != "" {
		cfg.Input = CLI.Input
	}
	if CLI.Output != "" {
		cfg.Output = CLI.Output
	}
	if CLI.Size != "" {
		size, err := vsize.Parse(CLI.Size)
		if err != nil {
			return cfg, err
		}
		cfg.Size = size
	}
	if CLI.Frames != nil {
		cfg.Frames = *CLI.Frames
	}
	if CLI.FPS != nil {
		cfg.FPS = *CLI.FPS
	}
	if CLI.Accel != "" {
		cfg.Accel = CLI.Accel
		// A new accelerator without an explicit encoder gets its usual one
		if CLI.Encoder == "" {
			if t, err := hwaccel.ParseType(CLI.Accel); err == nil {
				cfg.Encoder = t.DefaultEncoder()
			}
		}
	}
	if CLI.Encoder != "" {
		cfg.Encoder = CLI.Encoder
	}
	if CLI.PoolSize != nil {
		cfg.PoolSize = *CLI.PoolSize
	}
	if CLI.Scaler != "" {
		cfg.Scaler = CLI.Scaler
	}

	return cfg, cfg.Validate()
}

func openDevice(accel string) (encoder.Device, error) {
	t, err := hwaccel.ParseType(accel)
	if err != nil {
		return nil, err
	}
	d, err := hwaccel.Open(t)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func run() (err error) {
	cli.SetLogLevel(CLI.LogLevel)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if _, err := hwaccel.ParseType(cfg.Accel); err != nil {
		return err
	}
	newConverter, err := swscale.Factory(cfg.Scaler, CLI.Workers)
	if err != nil {
		return err
	}

	if CLI.LogLevel != "debug" {
		defer hwaccel.SuppressLogging()()
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

	env := pipeline.EncodeEnv{
		OpenDevice:   openDevice,
		NewConverter: newConverter,
		Input:        bufio.NewReaderSize(in, 1<<20),
		Output:       out,
	}

	complete := func(stats pipeline.Stats) ui.Complete {
		return ui.Complete{
			OutputFile: cfg.Output,
			Frames:     stats.Frames,
			Packets:    stats.Packets,
			Bytes:      stats.Bytes,
			Elapsed:    stats.Elapsed,
			Short:      stats.Short,
		}
	}

	if CLI.NoProgress || !isatty.IsTerminal(os.Stdout.Fd()) {
		stats, err := pipeline.RunEncode(ctx, cfg, env)
		if err != nil {
			return err
		}
		m := ui.NewModel(program.Name, "", cfg.FPS)
		m.Update(complete(stats))
		fmt.Print(m.CompletionSummary())
		return nil
	}

	releaseLogs := cli.HoldLogs()
	m := ui.NewModel(program.Name,
		subtitle(cfg), cfg.FPS)
	err = ui.Run(ctx, m, func(ctx context.Context, send func(tea.Msg)) (ui.Complete, error) {
		sampler := ui.NewPreviewSampler(250 * time.Millisecond)
		env.Progress = func(u pipeline.Update) {
			msg := ui.Progress{Frame: u.Frame, Total: u.Total, Bytes: u.Bytes, Elapsed: u.Elapsed}
			if !CLI.NoPreview {
				msg.Preview = sampler.Sample(u.Source)
			}
			send(msg)
		}
		env.Flushing = func() { send(ui.Flushing{}) }
		stats, err := pipeline.RunEncode(ctx, cfg, env)
		return complete(stats), err
	})
	releaseLogs()
	if err != nil {
		return err
	}
	fmt.Print(m.CompletionSummary())
	return nil
}

func subtitle(cfg config.Encode) string {
	return fmt.Sprintf("%s %s → NV12 → %s (%s)", cfg.Input, cfg.Size, cfg.Encoder, hwaccel.Type(cfg.Accel).Description())
}
