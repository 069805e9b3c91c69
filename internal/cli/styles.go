// Package cli holds the styled terminal output shared by the rawpipe
// commands.
package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Program names and describes one of the binaries in banners and help
type Program struct {
	Name        string
	Description string
	Usage       string // Positional summary shown after the name
}

// Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ChromaBlue).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(SlateGray).
			Italic(true)

	SuccessStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(SignalGreen)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ChromaRed)

	WarningStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFD600"))

	KeyStyle = lipgloss.NewStyle().
			Foreground(SlateGray)

	ValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(LumaWhite)

	// Box style for the run summary
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ChromaBlue).
			Padding(1, 2).
			MarginTop(1).
			MarginBottom(1)
)

// PrintVersion prints version information
func PrintVersion(p Program, version string) {
	fmt.Println(TitleStyle.Render(p.Name))
	fmt.Printf("%s %s\n", KeyStyle.Render("Version:"), ValueStyle.Render(version))
	fmt.Println()
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("Error:"), message)
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", WarningStyle.Render("Warning:"), message)
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("%s %s\n", SuccessStyle.Render("✓"), message)
}

// PrintInfo prints an informational message
func PrintInfo(key, value string) {
	fmt.Printf("%s %s\n", KeyStyle.Render(key+":"), ValueStyle.Render(value))
}

// FormatDuration formats a duration nicely
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.0fms", d.Seconds()*1000)
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// FormatRate formats frames per second of processing
func FormatRate(frames int, d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f fps", float64(frames)/d.Seconds())
}

// FormatBytes formats bytes into human-readable format
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// Summary is the key/value block printed after a run
type Summary struct {
	Title string
	Rows  [][2]string
}

// Render lays the summary out in a box
func (s Summary) Render() string {
	width := 0
	for _, row := range s.Rows {
		width = max(width, len(row[0]))
	}

	var b strings.Builder
	b.WriteString(SuccessStyle.Render("✓ " + s.Title))
	for _, row := range s.Rows {
		b.WriteString("\n")
		b.WriteString(KeyStyle.Render(fmt.Sprintf("%-*s ", width+1, row[0]+":")))
		b.WriteString(ValueStyle.Render(row[1]))
	}
	return BoxStyle.Render(b.String())
}

// PrintSummary prints a summary in a box
func PrintSummary(s Summary) {
	fmt.Println(s.Render())
}
