// Package routepath turns the hash fragment of a browser address into a
// routable path.
//
// Paths are split on "/" after dropping exactly one leading slash, so "/"
// and "/home" both have one segment ([""] and ["home"]) and compare against
// one-segment patterns with the same arity. A trailing slash is kept as an
// empty segment: "/home/" is ["home", ""].
package routepath

import (
	"errors"
	"net/url"
	"strings"
)

// Fragment parsing errors.
var (
	ErrBackslashInPath      = errors.New("path contains backslash")
	ErrNullByteInPath       = errors.New("path contains null byte")
	ErrInvalidPercentEscape = errors.New("invalid percent escape sequence")
	ErrAbsoluteURL          = errors.New("navigation target must be a relative path")
)

// Location is a parsed hash fragment.
type Location struct {
	// Path is the routable path, always starting with "/".
	Path string

	// Query is the part after "?" (without the "?"), if any.
	Query string

	// Segments are the decoded path segments.
	Segments []string
}

// ParseFragment parses a hash fragment such as "#/story/42" into a Location.
// The leading "#" is optional. An empty fragment is treated as "/".
func ParseFragment(fragment string) (Location, error) {
	raw := strings.TrimPrefix(fragment, "#")
	if raw == "" {
		raw = "/"
	}

	path, query, _ := strings.Cut(raw, "?")

	if strings.Contains(path, "\\") {
		return Location{}, ErrBackslashInPath
	}
	if strings.Contains(path, "\x00") || strings.Contains(strings.ToUpper(path), "%00") {
		return Location{}, ErrNullByteInPath
	}
	if strings.Contains(path, "%") {
		if err := validatePercentEscapes(path); err != nil {
			return Location{}, err
		}
	}

	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	segments := Split(path)
	for i, seg := range segments {
		decoded, err := url.PathUnescape(seg)
		if err != nil {
			return Location{}, ErrInvalidPercentEscape
		}
		segments[i] = decoded
	}

	return Location{Path: path, Query: query, Segments: segments}, nil
}

// Split splits a path into its raw segments. Only one leading slash is
// dropped; the empty path and "/" both yield a single empty segment.
func Split(path string) []string {
	return strings.Split(strings.TrimPrefix(path, "/"), "/")
}

// Fragment formats a path as a hash fragment ("#/home").
func Fragment(path string) string {
	path = strings.TrimPrefix(path, "#")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "#" + path
}

// ValidateNavPath checks that a programmatic navigation target is a
// relative in-app path, rejecting absolute and protocol-relative URLs.
func ValidateNavPath(path string) error {
	path = strings.TrimPrefix(path, "#")
	if strings.HasPrefix(path, "http://") ||
		strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "//") ||
		strings.Contains(path, "\\") {
		return ErrAbsoluteURL
	}
	return nil
}

// validatePercentEscapes checks that all percent-escapes are valid.
// Valid escapes are %XX where X is a hex digit (0-9, a-f, A-F).
func validatePercentEscapes(path string) error {
	i := 0
	for i < len(path) {
		if path[i] == '%' {
			if i+2 >= len(path) {
				return ErrInvalidPercentEscape
			}
			if !isHexDigit(path[i+1]) || !isHexDigit(path[i+2]) {
				return ErrInvalidPercentEscape
			}
			i += 3
		} else {
			i++
		}
	}
	return nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
