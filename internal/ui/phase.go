package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// PhaseDisplay renders phase status to an output writer.
type PhaseDisplay struct {
	w           io.Writer
	interactive bool
	pending     string
}

// NewPhaseDisplay creates a new phase display writing to w.
// In-progress lines are only drawn when w is a terminal.
func NewPhaseDisplay(w io.Writer) *PhaseDisplay {
	return &PhaseDisplay{
		w:           w,
		interactive: IsTerminal(w),
	}
}

// SetInteractive overrides terminal detection.
func (pd *PhaseDisplay) SetInteractive(v bool) {
	pd.interactive = v
}

// RenderProgress renders a phase in progress.
// Shows: ◐ Connecting to build01.example...
func (pd *PhaseDisplay) RenderProgress(name string) {
	if !pd.interactive {
		return
	}
	style := lipgloss.NewStyle().Foreground(ColorSecondary)
	line := fmt.Sprintf("%s %s...", style.Render(SymbolProgress), name)
	pd.pending = line
	fmt.Fprint(pd.w, "\r"+line)
}

// RenderSuccess renders a completed phase.
// Shows: ● Connected to build01.example 0.3s
func (pd *PhaseDisplay) RenderSuccess(name string, duration time.Duration) {
	pd.renderDone(SymbolComplete, ColorSuccess, name, duration)
}

// RenderFailed renders a failed phase. The error itself is reported by the
// caller once the run has stopped.
// Shows: ✗ Upload failed 2.3s
func (pd *PhaseDisplay) RenderFailed(name string, duration time.Duration) {
	pd.renderDone(SymbolFail, ColorError, name, duration)
}

func (pd *PhaseDisplay) renderDone(symbol string, color lipgloss.Color, name string, duration time.Duration) {
	pd.clearLine()
	fmt.Fprintln(pd.w, FormatPhase(symbol, color, name, formatDuration(duration)))
}

// clearLine erases an in-progress line before it is replaced.
func (pd *PhaseDisplay) clearLine() {
	if pd.pending == "" {
		return
	}
	width := lipgloss.Width(pd.pending)
	fmt.Fprint(pd.w, "\r"+strings.Repeat(" ", width)+"\r")
	pd.pending = ""
}

// FormatPhase returns a formatted phase line as a string.
func FormatPhase(symbol string, symbolColor lipgloss.Color, name string, timing string) string {
	symbolStyle := lipgloss.NewStyle().Foreground(symbolColor)
	timingStyle := lipgloss.NewStyle().Foreground(ColorMuted)

	if timing == "" {
		return fmt.Sprintf("%s %s", symbolStyle.Render(symbol), name)
	}
	return fmt.Sprintf("%s %s %s", symbolStyle.Render(symbol), name, timingStyle.Render(timing))
}

// formatDuration formats a duration for display (e.g., "0.3s", "1.2s").
func formatDuration(d time.Duration) string {
	secs := d.Seconds()
	if secs < 0.1 {
		return fmt.Sprintf("%.2fs", secs)
	}
	return fmt.Sprintf("%.1fs", secs)
}
