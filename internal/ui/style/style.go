// Package style provides the shared colors and icons used by log and report output.
package style

import "github.com/charmbracelet/lipgloss"

// Colors.
var (
	Iris   = lipgloss.Color("#8B5CF6")
	Slate  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Dot     = "●"
)

// ForSeverity returns the color and icon for a record severity name.
func ForSeverity(severity string) (lipgloss.Color, string) {
	switch severity {
	case "error":
		return Red, Cross
	case "warning":
		return Yellow, Warning
	default:
		return Slate, Dot
	}
}
