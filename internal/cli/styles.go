// Package cli holds terminal styling and the kong help printer shared by the
// command-line tools.
package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	accentColor = lipgloss.Color("#5F87FF")
	warnColor   = lipgloss.Color("#FFAF00")
	errorColor  = lipgloss.Color("#D70000")
	mutedColor  = lipgloss.Color("#888888")
)

// Styles shared by the command output.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true)

	KeyStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	ValueStyle = lipgloss.NewStyle().
			Bold(true)

	WarnStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(warnColor)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(errorColor)
)

// PrintVersion writes the tool name and version.
func PrintVersion(w io.Writer, name, version string) {
	fmt.Fprintf(w, "%s %s\n", TitleStyle.Render(name), ValueStyle.Render(version))
}

// PrintKV writes one aligned "key: value" line.
func PrintKV(w io.Writer, key string, value any) {
	fmt.Fprintf(w, "%s %s\n", KeyStyle.Render(fmt.Sprintf("%-14s", key+":")), ValueStyle.Render(fmt.Sprint(value)))
}

// PrintWarning writes a highlighted warning line.
func PrintWarning(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", WarnStyle.Render("Warning:"), message)
}

// PrintError writes a highlighted error line.
func PrintError(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("Error:"), message)
}
