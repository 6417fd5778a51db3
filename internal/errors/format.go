package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"strings"
)

// ANSI styles for terminal output.
const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiRed   = "\033[31m"
	ansiCyan  = "\033[36m"
	ansiGray  = "\033[90m"
)

var colorEnabled = true

// DisableColors turns off ANSI styling, for logs and non-terminal output.
func DisableColors() { colorEnabled = false }

// EnableColors turns ANSI styling back on.
func EnableColors() { colorEnabled = true }

func paint(style, text string) string {
	if !colorEnabled || text == "" {
		return text
	}
	return style + text + ansiReset
}

const detailWidth = 70

// Format renders the error for a terminal: a headline, the offending lines
// of the config file with a caret under the column, then the detail, cause
// and hint.
func (e *Error) Format() string {
	var b strings.Builder
	b.WriteString("\n")
	e.writeHeadline(&b)
	e.writeSource(&b)
	for _, line := range wrapText(e.Detail, detailWidth) {
		fmt.Fprintf(&b, "  %s\n", line)
	}
	if e.Detail != "" {
		b.WriteString("\n")
	}
	if e.Wrapped != nil {
		writeLabeled(&b, paint(ansiGray, "Cause: "), e.Wrapped.Error())
	}
	if e.Suggestion != "" {
		writeLabeled(&b, paint(ansiCyan, "Hint: "), e.Suggestion)
	}
	return b.String()
}

func (e *Error) writeHeadline(b *strings.Builder) {
	label := "ERROR: "
	if e.Code != "" {
		label = "ERROR " + e.Code + ": "
	}
	fmt.Fprintf(b, "%s%s\n\n", paint(ansiRed+ansiBold, label), paint(ansiBold, e.Message))
}

// writeSource prints the location and the context lines around it. Context
// is centered on the failing line, as WithLocation reads it.
func (e *Error) writeSource(b *strings.Builder) {
	if e.Location == nil {
		return
	}
	fmt.Fprintf(b, "  %s\n\n", paint(ansiCyan, e.Location.String()))
	if len(e.Context) == 0 {
		return
	}

	first := max(e.Location.Line-len(e.Context)/2, 1)
	gutter := paint(ansiGray, " │ ")
	for i, text := range e.Context {
		n := first + i
		marker := "  "
		if n == e.Location.Line {
			marker = paint(ansiRed, "→ ")
		}
		fmt.Fprintf(b, "  %s%4d%s%s\n", marker, n, gutter, text)
		if n == e.Location.Line && e.Location.Column > 0 {
			fmt.Fprintf(b, "       %s%s%s\n", paint(ansiGray, "│ "), strings.Repeat(" ", e.Location.Column-1), paint(ansiRed, "^"))
		}
	}
	b.WriteString("\n")
}

func writeLabeled(b *strings.Builder, label, text string) {
	fmt.Fprintf(b, "  %s%s\n\n", label, text)
}

// FormatCompact returns the error on one line, as "file:line: code: message".
func (e *Error) FormatCompact() string {
	parts := make([]string, 0, 4)
	if e.Location != nil {
		parts = append(parts, e.Location.String())
	}
	if e.Code != "" {
		parts = append(parts, e.Code)
	}
	parts = append(parts, e.Message)
	if e.Wrapped != nil {
		parts = append(parts, e.Wrapped.Error())
	}
	return strings.Join(parts, ": ")
}

// wrapText breaks text into lines of at most width characters, splitting on
// whitespace. Words longer than width get a line of their own.
func wrapText(text string, width int) []string {
	var lines []string
	line := ""
	for _, word := range strings.Fields(text) {
		switch {
		case line == "":
			line = word
		case len(line)+1+len(word) > width:
			lines = append(lines, line)
			line = word
		default:
			line += " " + word
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// Fprint writes err to w. Coded errors get the full Format rendering.
func Fprint(w io.Writer, err error) {
	var e *Error
	if stderrors.As(err, &e) {
		io.WriteString(w, e.Format())
		return
	}
	fmt.Fprintf(w, "\n%s%s\n\n", paint(ansiRed+ansiBold, "ERROR: "), err.Error())
}
