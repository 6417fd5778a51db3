package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"strings"
)

// Category groups codes by the part of the program that reports them.
type Category string

const (
	CategoryConfig  Category = "config"
	CategoryStorage Category = "storage"
	CategoryServer  Category = "server"
	CategoryCLI     Category = "cli"
)

// contextLines is how many lines of a file Format shows around a Location.
const contextLines = 5

// Location is a position in a file, such as a configuration file.
type Location struct {
	File   string
	Line   int
	Column int
}

// String returns the location as file:line[:column].
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Error is a coded error with an explanation and a hint for the operator.
type Error struct {
	Code     string // registry code, e.g. "S101"
	Category Category
	Message  string // one-line summary
	Detail   string

	Location *Location
	Context  []string // lines of Location.File centered on Location.Line

	Suggestion string
	Wrapped    error
}

func (e *Error) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Wrapped }

// WithLocation points the error at a line of a file on disk.
func (e *Error) WithLocation(file string, line, column int) *Error {
	data, _ := os.ReadFile(file)
	return e.at(file, data, line, column)
}

// WithJSONLocation points the error at the offset a json.SyntaxError or
// json.UnmarshalTypeError reports within data, the contents of file. Other
// errors leave e unchanged.
func (e *Error) WithJSONLocation(file string, data []byte, err error) *Error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var offset int64
	switch {
	case stderrors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case stderrors.As(err, &typeErr):
		offset = typeErr.Offset
	default:
		return e
	}
	line, col := lineColumn(data, offset)
	return e.at(file, data, line, col)
}

func (e *Error) at(file string, data []byte, line, column int) *Error {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = sourceLines(data, line, contextLines)
	return e
}

func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// Wrap records err as the cause.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// lineColumn converts a byte offset into a 1-based line and column.
func lineColumn(data []byte, offset int64) (int, int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	before := data[:offset]
	line := bytes.Count(before, []byte("\n")) + 1
	col := len(before) - (bytes.LastIndexByte(before, '\n') + 1)
	if col < 1 {
		col = 1
	}
	return line, col
}

// sourceLines returns up to n lines of data centered on the 1-based line.
func sourceLines(data []byte, line, n int) []string {
	if len(data) == 0 || line < 1 {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	first := max(line-n/2, 1)
	last := min(line+n/2, len(lines))
	if first > last {
		return nil
	}
	return lines[first-1 : last]
}

// New returns an Error filled from the registered template for code.
func New(code string) *Error {
	tmpl, ok := registry[code]
	if !ok {
		return &Error{Code: code, Message: "Unknown error"}
	}
	return &Error{
		Code:       code,
		Category:   tmpl.Category,
		Message:    tmpl.Message,
		Detail:     tmpl.Detail,
		Suggestion: tmpl.Suggestion,
	}
}

// FromError wraps err in the Error for code. Errors that already carry a
// code are returned unchanged.
func FromError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	return New(code).Wrap(err)
}
