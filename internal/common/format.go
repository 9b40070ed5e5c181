package common

import (
	"fmt"
	"strings"
	"time"
)

const (
	// Report widths
	DefaultWidth = 80
	WideWidth    = 100
)

const timestampLayout = "2006-01-02 15:04"

// Field is one labelled line of a record card.
type Field struct {
	Label string
	Value string
}

// PrintSeparator prints a separator line with the specified character and width
func PrintSeparator(char string, width int) {
	fmt.Println(strings.Repeat(char, width))
}

// PrintHeader prints title between two rules, after a blank line
func PrintHeader(title string, width int) {
	fmt.Println("\n" + strings.Repeat("=", width))
	fmt.Println(title)
	PrintSeparator("=", width)
}

// PrintFooter prints message between two rules, followed by a blank line
func PrintFooter(message string, width int) {
	fmt.Println("\n" + strings.Repeat("=", width))
	fmt.Println(message)
	fmt.Println(strings.Repeat("=", width) + "\n")
}

// PrintCard prints a single record as aligned "Label: value" lines.
// Fields with an empty value are skipped.
func PrintCard(title string, fields ...Field) {
	labelWidth := 0
	for _, f := range fields {
		if len(f.Label) > labelWidth {
			labelWidth = len(f.Label)
		}
	}

	fmt.Println()
	PrintHeader(title, DefaultWidth)
	for _, f := range fields {
		if f.Value == "" {
			continue
		}
		fmt.Printf("%-*s %s\n", labelWidth+1, f.Label+":", f.Value)
	}
	PrintSeparator("=", DefaultWidth)
	fmt.Println()
}

// PrintBoxSeparator prints a box-drawing separator line (for sub-sections)
func PrintBoxSeparator(width int) {
	fmt.Println("├" + strings.Repeat("─", width))
}

// BoxPrefix returns the box-drawing prefix for list items
func BoxPrefix(isLast bool) string {
	if isLast {
		return "└  "
	}
	return "│  "
}

// BoxDetailPrefix returns the prefix for detail lines under list items
func BoxDetailPrefix(isLast bool) string {
	if isLast {
		return "   "
	}
	return "│  "
}

// FormatTimestamp renders t for reports, or "-" when t is unset.
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timestampLayout)
}
