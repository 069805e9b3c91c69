package cli

import "github.com/charmbracelet/lipgloss"

// Signal palette shared by the CLI output and the progress view. Named
// after the planes the tools produce.
var (
	LumaWhite   = lipgloss.Color("#F5F5F5") // Y
	ChromaBlue  = lipgloss.Color("#1E90FF") // U / Cb
	ChromaRed   = lipgloss.Color("#E0115F") // V / Cr
	SignalGreen = lipgloss.Color("#00C853")

	// Accent colours
	SlateGray = lipgloss.Color("#708090") // Subtle text
)
