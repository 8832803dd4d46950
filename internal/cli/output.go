package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sanket-signals/internal/models"
)

// Output handles formatted output for the CLI.
type Output struct {
	writer       io.Writer
	jsonMode     bool
	colorEnabled bool
}

// NewOutput creates a new Output instance.
func NewOutput(cmd *cobra.Command) *Output {
	jsonMode, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")
	return &Output{
		writer:       cmd.OutOrStdout(),
		jsonMode:     jsonMode,
		colorEnabled: !jsonMode && !noColor && !color.NoColor,
	}
}

// IsJSON returns true if JSON output mode is enabled.
func (o *Output) IsJSON() bool {
	return o.jsonMode
}

// JSON outputs data as JSON.
func (o *Output) JSON(data interface{}) error {
	encoder := json.NewEncoder(o.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Println prints a message with newline.
func (o *Output) Println(args ...interface{}) {
	fmt.Fprintln(o.writer, args...)
}

// Printf prints a formatted message.
func (o *Output) Printf(format string, args ...interface{}) {
	fmt.Fprintf(o.writer, format, args...)
}

// Success prints a success message in green.
func (o *Output) Success(format string, args ...interface{}) {
	o.line(fmt.Sprintf(format, args...), color.FgGreen)
}

// Error prints an error message in red.
func (o *Output) Error(format string, args ...interface{}) {
	o.line(fmt.Sprintf(format, args...), color.FgRed)
}

// Warning prints a warning message in yellow.
func (o *Output) Warning(format string, args ...interface{}) {
	o.line(fmt.Sprintf(format, args...), color.FgYellow)
}

// Info prints an info message in cyan.
func (o *Output) Info(format string, args ...interface{}) {
	o.line(fmt.Sprintf(format, args...), color.FgCyan)
}

// Bold prints a bold message.
func (o *Output) Bold(format string, args ...interface{}) {
	o.line(fmt.Sprintf(format, args...), color.Bold)
}

// Dim prints a dimmed message.
func (o *Output) Dim(format string, args ...interface{}) {
	o.line(fmt.Sprintf(format, args...), color.Faint)
}

func (o *Output) line(msg string, attrs ...color.Attribute) {
	fmt.Fprintln(o.writer, o.paint(msg, attrs...))
}

// paint wraps text in the given attributes when color is enabled.
func (o *Output) paint(text string, attrs ...color.Attribute) string {
	if !o.colorEnabled {
		return text
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(text)
}

// Green returns green colored text.
func (o *Output) Green(text string) string {
	return o.paint(text, color.FgGreen)
}

// Red returns red colored text.
func (o *Output) Red(text string) string {
	return o.paint(text, color.FgRed)
}

// Yellow returns yellow colored text.
func (o *Output) Yellow(text string) string {
	return o.paint(text, color.FgYellow)
}

// DimText returns dimmed text.
func (o *Output) DimText(text string) string {
	return o.paint(text, color.Faint)
}

// SignalText colors a signal label by its direction.
func (o *Output) SignalText(s models.Signal) string {
	switch {
	case s.IsDiagnostic():
		return o.DimText(string(s))
	case s.Direction() == models.DirectionBullish:
		return o.paint(string(s), color.FgGreen, color.Bold)
	case s.Direction() == models.DirectionBearish:
		return o.paint(string(s), color.FgRed, color.Bold)
	default:
		return string(s)
	}
}

// GradeText colors a grade from green (A+) to red (D).
func (o *Output) GradeText(g models.Grade) string {
	switch g {
	case models.GradeAPlus, models.GradeA:
		return o.paint(string(g), color.FgGreen, color.Bold)
	case models.GradeBPlus, models.GradeB:
		return o.Green(string(g))
	case models.GradeCPlus, models.GradeC:
		return o.Yellow(string(g))
	case models.GradeD:
		return o.Red(string(g))
	default:
		return o.DimText(string(g))
	}
}

// HealthText colors a market-health label.
func (o *Output) HealthText(label string) string {
	switch {
	case strings.Contains(label, "Bullish"):
		return o.Green(label)
	case strings.Contains(label, "Bearish"):
		return o.Red(label)
	case label == "Neutral":
		return o.Yellow(label)
	default:
		return o.DimText(label)
	}
}

// FormatPercent formats percentage with color.
func (o *Output) FormatPercent(pct float64) string {
	formatted := FormatPercent(pct)
	switch {
	case pct > 0:
		return o.Green(formatted)
	case pct < 0:
		return o.Red(formatted)
	default:
		return formatted
	}
}

// Table represents a simple table for output.
type Table struct {
	headers []string
	rows    [][]string
	output  *Output
}

// NewTable creates a new table.
func NewTable(output *Output, headers ...string) *Table {
	return &Table{
		headers: headers,
		rows:    make([][]string, 0),
		output:  output,
	}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render renders the table.
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = visibleLen(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				if n := visibleLen(cell); n > widths[i] {
					widths[i] = n
				}
			}
		}
	}

	t.printRow(t.headers, widths, true)
	t.printSeparator(widths)
	for _, row := range t.rows {
		t.printRow(row, widths, false)
	}
}

func (t *Table) printRow(cells []string, widths []int, isHeader bool) {
	var parts []string
	for i, cell := range cells {
		if i < len(widths) {
			padding := widths[i] - visibleLen(cell)
			if padding < 0 {
				padding = 0
			}
			padded := cell + strings.Repeat(" ", padding)
			if isHeader {
				padded = t.output.paint(padded, color.Bold)
			}
			parts = append(parts, padded)
		}
	}
	t.output.Println(strings.TrimRight(strings.Join(parts, "  "), " "))
}

func (t *Table) printSeparator(widths []int) {
	var parts []string
	for _, w := range widths {
		parts = append(parts, strings.Repeat("─", w))
	}
	t.output.Println(t.output.paint(strings.Join(parts, "──"), color.Faint))
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// stripANSI removes ANSI escape codes from a string.
func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

func visibleLen(s string) int {
	return len([]rune(stripANSI(s)))
}

// Box draws a box around content.
func (o *Output) Box(title string, content []string) {
	maxLen := visibleLen(title)
	for _, line := range content {
		if n := visibleLen(line); n > maxLen {
			maxLen = n
		}
	}

	width := maxLen + 4
	border := strings.Repeat("─", width-2)
	edge := func(s string) string { return o.paint(s, color.Faint) }

	o.Printf("%s\n", edge("┌"+border+"┐"))
	o.Printf("%s %s%s %s\n", edge("│"), o.paint(title, color.Bold), strings.Repeat(" ", width-4-visibleLen(title)), edge("│"))
	o.Printf("%s\n", edge("├"+border+"┤"))
	for _, line := range content {
		o.Printf("%s %s%s %s\n", edge("│"), line, strings.Repeat(" ", width-4-visibleLen(line)), edge("│"))
	}
	o.Printf("%s\n", edge("└"+border+"┘"))
}
