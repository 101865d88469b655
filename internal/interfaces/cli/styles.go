package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lite-lake/wildcert/internal/domain/valueobject"
)

const (
	ColorPrimary   = "#7C3AED"
	ColorSuccess   = "#10B981"
	ColorWarning   = "#F59E0B"
	ColorError     = "#EF4444"
	ColorSecondary = "#6B7280"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(ColorPrimary))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorSuccess))

	SkipStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorSecondary))

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorWarning))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorError))

	HelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorSecondary))
)

var titleCaser = cases.Title(language.English)

var summaryCounts = []struct {
	action valueobject.Action
	label  string
}{
	{valueobject.ActionIssue, "issued"},
	{valueobject.ActionRenew, "renewed"},
	{valueobject.ActionCopy, "copied"},
	{valueobject.ActionUpload, "uploaded"},
}

// FormatResult picks the marker and style for a result line.
func FormatResult(r *valueobject.DomainResult) (prefix string, style lipgloss.Style) {
	switch {
	case !r.Success():
		return "✗", ErrorStyle
	case r.Action == valueobject.ActionSkip:
		return "-", SkipStyle
	default:
		return "✓", SuccessStyle
	}
}

func printReport(w io.Writer, report *valueobject.Report) {
	fmt.Fprintln(w, TitleStyle.Render(titleCaser.String(report.Command)))
	for _, r := range report.Results {
		prefix, style := FormatResult(r)
		line := fmt.Sprintf("%s %s: %s", prefix, r.Domain, titleCaser.String(r.Action.String()))
		if r.Message != "" {
			line += " - " + r.Message
		}
		fmt.Fprintln(w, "  "+style.Render(line))
		if r.Err != nil {
			fmt.Fprintln(w, "    "+ErrorStyle.Render(r.Err.Error()))
		}
	}

	summary := fmt.Sprintf("%d processed", len(report.Results))
	for _, c := range summaryCounts {
		if n := len(report.ByAction(c.action)); n > 0 {
			summary += fmt.Sprintf(", %d %s", n, c.label)
		}
	}
	summary += fmt.Sprintf(", %d failed", report.Failed())
	if report.HasFailures() {
		fmt.Fprintln(w, WarningStyle.Render(summary))
	} else {
		fmt.Fprintln(w, HelpStyle.Render(summary))
	}
}

func printError(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, ErrorStyle.Render("✗ "+fmt.Sprintf(format, args...)))
}
