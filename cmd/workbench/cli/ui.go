// Package cli holds the terminal rendering helpers of the workbench command.
package cli

import (
	"fmt"
	"sort"
	"strings"

	"workbench/internal/pathvar"

	"github.com/agnivade/levenshtein"
	"github.com/charmbracelet/lipgloss"
)

var (
	// Title style for section headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#4F4FB7")).
			Padding(0, 1)

	// Status style for neutral messages
	StatusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#959595"))

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F5F")).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAF00"))

	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5FD75F"))

	// Key style for name columns
	KeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#81A1C1")).
			Bold(true)

	// Dim style for default values and hints
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true)
)

// Title renders a section header
func Title(text string) string {
	return TitleStyle.Render(text)
}

// Result renders a validation result as a single status line
func Result(r pathvar.Result) string {
	var badge string
	switch r.Severity {
	case pathvar.Error:
		badge = ErrorStyle.Render("error")
	case pathvar.Warning:
		badge = WarningStyle.Render("warning")
	default:
		badge = SuccessStyle.Render("ok")
	}
	commit := DimStyle.Render("commit blocked")
	if r.CommitEnabled {
		commit = SuccessStyle.Render("commit enabled")
	}
	return fmt.Sprintf("%s  %s  (%s)", badge, r.Message, commit)
}

// Table renders aligned key/value rows
func Table(rows [][2]string) string {
	width := 0
	for _, row := range rows {
		if len(row[0]) > width {
			width = len(row[0])
		}
	}
	var b strings.Builder
	for _, row := range rows {
		key := KeyStyle.Render(fmt.Sprintf("%-*s", width, row[0]))
		fmt.Fprintf(&b, "  %s  %s\n", key, row[1])
	}
	return b.String()
}

// Suggest returns the candidates closest to input by edit distance, best
// first. Candidates further than a third of the input length are dropped.
func Suggest(input string, candidates []string) []string {
	type scored struct {
		name string
		dist int
	}
	limit := len(input)/3 + 1
	needle := strings.ToUpper(input)

	var matches []scored
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(needle, strings.ToUpper(c))
		if d <= limit {
			matches = append(matches, scored{c, d})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].dist < matches[j].dist
	})

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.name)
	}
	return out
}

// DidYouMean formats suggestions for an error message
func DidYouMean(input string, candidates []string) string {
	s := Suggest(input, candidates)
	if len(s) == 0 {
		return ""
	}
	return fmt.Sprintf("\n\nDid you mean %s?", strings.Join(s, " or "))
}
