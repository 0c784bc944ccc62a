package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/alfredjeanlab/codescope/internal/model"
)

// ANSI256 color codes matching the Ayu palette.
const (
	colorAccent = "74"  // blue
	colorMuted  = "245" // medium gray
	colorGood   = "71"  // green
	colorWarn   = "214" // amber
	colorBad    = "167" // red
)

var (
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent))
	commandStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent)).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted))
	goodStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(colorGood)).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(colorWarn))
	badStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(colorBad)).Bold(true)
)

var noColor bool

func render(style lipgloss.Style, s string) string {
	if noColor {
		return s
	}
	return style.Render(s)
}

// RenderAccent returns s in the accent (blue) color.
func RenderAccent(s string) string { return render(accentStyle, s) }

// RenderCommand returns a command name in bold accent.
func RenderCommand(s string) string { return render(commandStyle, s) }

// RenderMuted returns s in the muted (gray) color.
func RenderMuted(s string) string { return render(mutedStyle, s) }

// RenderGrade colors a quality grade: A and B good, C and D warning, F bad.
func RenderGrade(g model.Grade) string {
	switch g {
	case model.GradeA, model.GradeB:
		return render(goodStyle, string(g))
	case model.GradeC, model.GradeD:
		return render(warnStyle, string(g))
	default:
		return render(badStyle, string(g))
	}
}

// RenderSeverity colors an issue severity.
func RenderSeverity(s model.Severity) string {
	switch s {
	case model.SeverityError:
		return render(badStyle, string(s))
	case model.SeverityWarning:
		return render(warnStyle, string(s))
	default:
		return render(mutedStyle, string(s))
	}
}

// RenderStatus colors a project status.
func RenderStatus(s model.ProjectStatus) string {
	switch s {
	case model.StatusReady:
		return render(goodStyle, s.String())
	case model.StatusFailed:
		return render(badStyle, s.String())
	case model.StatusUploading, model.StatusProcessing:
		return render(warnStyle, s.String())
	default:
		return render(mutedStyle, s.String())
	}
}

// ForceNoColor disables color output globally.
func ForceNoColor() {
	noColor = true
}
