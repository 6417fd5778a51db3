package router

import (
	"context"
	"strings"
	"time"

	"github.com/storyapp/storyapp/pkg/routepath"
)

// Params are the values of a route's parameter segments, in the order the
// parameters appear in the pattern.
type Params []string

// Handler handles a matched route.
type Handler func(ctx context.Context, params Params) error

// Segment is one element of a route pattern.
type Segment struct {
	// Literal is the text a path segment must equal. Empty for parameters
	// (and for the single segment of the root pattern "/").
	Literal string

	// Param is the parameter name (without ":"). Empty for literals.
	Param string

	isParam bool
}

// IsParam reports whether the segment matches any value.
func (s Segment) IsParam() bool {
	return s.isParam
}

// Pattern is a parsed route pattern.
type Pattern struct {
	raw      string
	segments []Segment
}

// ParsePattern parses a pattern such as "/story/:id".
func ParsePattern(pattern string) Pattern {
	parts := routepath.Split(pattern)
	segments := make([]Segment, len(parts))
	for i, part := range parts {
		if strings.HasPrefix(part, ":") {
			segments[i] = Segment{Param: part[1:], isParam: true}
		} else {
			segments[i] = Segment{Literal: part}
		}
	}
	return Pattern{raw: pattern, segments: segments}
}

// String returns the pattern as registered.
func (p Pattern) String() string {
	return p.raw
}

// Segments returns the pattern's segments.
func (p Pattern) Segments() []Segment {
	return p.segments
}

// ParamNames returns the parameter names in declaration order.
func (p Pattern) ParamNames() []string {
	var names []string
	for _, s := range p.segments {
		if s.isParam {
			names = append(names, s.Param)
		}
	}
	return names
}

// key identifies the pattern's literal structure. Parameter names do not
// take part, so "/story/:id" and "/story/:slug" share a key.
func (p Pattern) key() string {
	var b strings.Builder
	for i, s := range p.segments {
		if i > 0 {
			b.WriteByte('/')
		}
		if s.isParam {
			b.WriteByte(':')
		} else {
			b.WriteString(s.Literal)
		}
	}
	return b.String()
}

// Route is a registered pattern and its handler.
type Route struct {
	Pattern Pattern
	Handler Handler
}

// Match is the result of matching a path against the table.
type Match struct {
	// Route is the matched route.
	Route *Route

	// Params are the parameter values in declaration order.
	Params Params
}

// Outcome classifies what HandleRoute did with a location.
type Outcome string

const (
	// OutcomeMatched means a route matched and its handler was dispatched.
	OutcomeMatched Outcome = "matched"

	// OutcomeFallback means nothing matched and the router navigated to
	// the default route.
	OutcomeFallback Outcome = "fallback"

	// OutcomeError means the handler returned an error.
	OutcomeError Outcome = "error"
)

// Observer receives routing events, typically to record metrics.
type Observer interface {
	RouteHandled(pattern string, outcome Outcome, elapsed time.Duration)
}
