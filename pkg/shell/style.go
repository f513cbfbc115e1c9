package shell

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/history"
	"github.com/chandrasekarnarayana/Modeling-GUI/pkg/manager"
)

var (
	colorAccent  = lipgloss.Color("#4C8BF5")
	colorSuccess = lipgloss.Color("#2EA043")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
	colorMuted   = lipgloss.Color("#6E7781")
)

var styles = struct {
	Title      lipgloss.Style
	Muted      lipgloss.Style
	Success    lipgloss.Style
	ResultBox  lipgloss.Style
	WarningBox lipgloss.Style
	ErrorBox   lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
	Muted:   lipgloss.NewStyle().Foreground(colorMuted),
	Success: lipgloss.NewStyle().Foreground(colorSuccess),
	ResultBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Padding(0, 1),
	WarningBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorWarning).
		Padding(0, 1),
	ErrorBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorError).
		Foreground(colorError).
		Padding(0, 1),
}

// RenderReport draws a run report as a bordered pane.
func RenderReport(r *Report) string {
	var b strings.Builder
	b.WriteString(styles.Title.Render(r.Procedure.Title()))
	b.WriteString("\n\n")
	b.WriteString(strings.TrimRight(r.Text, "\n"))
	if r.PlotPath != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.Success.Render("plot saved to " + r.PlotPath))
	}
	return styles.ResultBox.Render(b.String())
}

// RenderError draws err. Selection problems are warnings, the rest errors.
func RenderError(err error) string {
	if errors.Is(err, manager.ErrSelection) {
		return styles.WarningBox.Render("Selection required\n\n" + err.Error())
	}
	title := "Error"
	if kind := manager.KindOf(err); kind != nil {
		title = strings.ToUpper(kind.Error()[:1]) + kind.Error()[1:]
	}
	return styles.ErrorBox.Render(title + "\n\n" + err.Error())
}

// RenderColumns lists columns with their kinds.
func RenderColumns(cols []Column) string {
	if len(cols) == 0 {
		return styles.Muted.Render("no dataset loaded")
	}
	width := 0
	for _, c := range cols {
		width = max(width, len(c.Name))
	}
	var b strings.Builder
	for i, c := range cols {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%-*s  %s", width, c.Name, styles.Muted.Render(c.Kind.String()))
	}
	return styles.ResultBox.Render(b.String())
}

// RenderHistory formats journal rows as a table.
func RenderHistory(recs []history.Record) string {
	if len(recs) == 0 {
		return styles.Muted.Render("no runs recorded")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-19s  %-18s  %-6s  %-10s  %s", "time", "procedure", "status", "duration", "dataset")
	for _, r := range recs {
		status := string(r.Status)
		if r.Status == history.StatusOK {
			status = styles.Success.Render(fmt.Sprintf("%-6s", status))
		} else {
			status = lipgloss.NewStyle().Foreground(colorError).Render(fmt.Sprintf("%-6s", status))
		}
		fmt.Fprintf(&b, "\n%-19s  %-18s  %s  %-10s  %s",
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Procedure, status,
			r.Duration.Round(time.Millisecond).String(), r.Dataset)
	}
	return b.String()
}
