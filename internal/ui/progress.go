// Package ui renders a bubbletea progress view while a pipeline runs.
package ui

import (
	"fmt"
	"image/color"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/linuxmatters/rawpipe/internal/cli"
)

// Phase represents the current processing phase
type Phase int

const (
	PhaseFrames Phase = iota
	PhaseFlushing
	PhaseComplete
	PhaseFailed
)

// Progress is sent after every processed frame
type Progress struct {
	Frame   int
	Total   int
	Bytes   int64
	Elapsed time.Duration
	Preview [][]color.RGBA // Optional; the last preview stays on screen until replaced
}

// Flushing is sent once the frame loop ends and the encoder drains
type Flushing struct{}

// Complete signals a successful run
type Complete struct {
	OutputFile string
	Frames     int
	Packets    int // Zero when the pipeline writes raw frames
	Bytes      int64
	Elapsed    time.Duration
	Short      bool // Input ended mid-frame
}

// Failed signals the run aborted
type Failed struct {
	Err error
}

// quitMsg is sent when it's time to quit after showing completion
type quitMsg struct{}

// Model is the bubbletea model for one pipeline run
type Model struct {
	title    string
	subtitle string

	progressBar progress.Model
	phase       Phase
	last        Progress
	complete    *Complete
	failed      error

	startTime       time.Time
	width           int
	completionDelay time.Duration
	targetFPS       int // Playback rate used for the realtime factor; 0 hides it
	preview         string
}

// NewModel creates a progress model. targetFPS is the stream frame rate,
// or 0 when a realtime factor is meaningless.
func NewModel(title, subtitle string, targetFPS int) *Model {
	p := progress.New(
		progress.WithGradient(string(cli.ChromaBlue), string(cli.ChromaRed)),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	return &Model{
		title:           title,
		subtitle:        subtitle,
		progressBar:     p,
		phase:           PhaseFrames,
		startTime:       time.Now(),
		completionDelay: time.Second,
		targetFPS:       targetFPS,
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progressBar.Width = max(10, min(msg.Width-30, 50))
		return m, nil

	case Progress:
		m.last = msg
		if msg.Preview != nil {
			m.preview = RenderPreview(msg.Preview)
		}
		return m, nil

	case Flushing:
		m.phase = PhaseFlushing
		return m, nil

	case Complete:
		m.complete = &msg
		m.phase = PhaseComplete
		return m, tea.Tick(m.completionDelay, func(time.Time) tea.Msg {
			return quitMsg{}
		})

	case Failed:
		m.failed = msg.Err
		m.phase = PhaseFailed
		return m, tea.Quit

	case quitMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		if m.complete != nil || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the UI
func (m *Model) View() string {
	switch m.phase {
	case PhaseComplete:
		return m.renderComplete()
	case PhaseFailed:
		return ""
	default:
		return m.renderProgress()
	}
}

// Phase returns the current phase
func (m *Model) Phase() Phase {
	return m.phase
}

// CompletionSummary returns the final summary for printing after the
// program exits, or "" if the run did not complete.
func (m *Model) CompletionSummary() string {
	if m.complete == nil {
		return ""
	}
	return m.renderComplete()
}

func (m *Model) ratio() float64 {
	if m.last.Total <= 0 {
		return 0
	}
	return min(1, float64(m.last.Frame)/float64(m.last.Total))
}

func (m *Model) renderProgress() string {
	var s strings.Builder

	s.WriteString(lipgloss.NewStyle().Bold(true).Foreground(cli.ChromaBlue).Render(m.title))
	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Faint(true).Render(m.subtitle))
	s.WriteString("\n\n")

	ratio := m.ratio()
	s.WriteString("Progress: ")
	s.WriteString(m.progressBar.ViewAs(ratio))
	s.WriteString(fmt.Sprintf("  %d%%\n\n", int(ratio*100)))

	elapsed := m.last.Elapsed
	if elapsed == 0 {
		elapsed = time.Since(m.startTime)
	}
	var eta time.Duration
	if ratio > 0 {
		eta = time.Duration(float64(elapsed)/ratio) - elapsed
	}

	timing := fmt.Sprintf("Time: %s  │  Rate: %s  │  ETA: %s",
		cli.FormatDuration(elapsed), cli.FormatRate(m.last.Frame, elapsed), cli.FormatDuration(eta))
	if speed := m.speed(m.last.Frame, elapsed); speed > 0 {
		timing += fmt.Sprintf("  │  %.1fx realtime", speed)
	}
	s.WriteString(lipgloss.NewStyle().Faint(true).Render(timing))
	s.WriteString("\n")

	status := fmt.Sprintf("Frame %d of %d  │  Output %s", m.last.Frame, m.last.Total, cli.FormatBytes(m.last.Bytes))
	if m.phase == PhaseFlushing {
		status = "Draining encoder"
	}
	s.WriteString(lipgloss.NewStyle().Faint(true).Italic(true).Render(status))
	if m.preview != "" {
		s.WriteString("\n\n")
		s.WriteString(m.preview)
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(cli.ChromaBlue).
		Padding(1, 2).
		Render(s.String())
}

// speed is the ratio of stream duration to processing time
func (m *Model) speed(frames int, elapsed time.Duration) float64 {
	if m.targetFPS <= 0 || elapsed <= 0 {
		return 0
	}
	stream := time.Duration(frames) * time.Second / time.Duration(m.targetFPS)
	return float64(stream) / float64(elapsed)
}

func (m *Model) renderComplete() string {
	c := m.complete
	rows := [][2]string{
		{"Output", c.OutputFile},
		{"Frames", fmt.Sprintf("%d", c.Frames)},
	}
	if c.Packets > 0 {
		rows = append(rows, [2]string{"Packets", fmt.Sprintf("%d", c.Packets)})
	}
	rows = append(rows,
		[2]string{"Size", cli.FormatBytes(c.Bytes)},
		[2]string{"Time", fmt.Sprintf("%s (%s)", cli.FormatDuration(c.Elapsed), cli.FormatRate(c.Frames, c.Elapsed))},
	)
	if speed := m.speed(c.Frames, c.Elapsed); speed > 0 {
		rows = append(rows, [2]string{"Speed", fmt.Sprintf("%.1fx realtime", speed)})
	}
	if c.Short {
		rows = append(rows, [2]string{"Note", "input ended mid-frame; partial frame dropped"})
	}

	return cli.Summary{Title: m.title + " complete", Rows: rows}.Render() + "\n"
}
