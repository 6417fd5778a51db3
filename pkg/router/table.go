package router

import "github.com/storyapp/storyapp/pkg/routepath"

// Table is an ordered set of routes. Matching walks routes in declaration
// order and returns the first structural match.
type Table struct {
	routes []*Route
	index  map[string]int
}

// NewTable creates an empty route table.
func NewTable() *Table {
	return &Table{index: make(map[string]int)}
}

// Register stores a route. Registering a pattern with the same literal
// structure as an existing one replaces its handler and keeps its position.
func (t *Table) Register(pattern string, handler Handler) {
	p := ParsePattern(pattern)
	key := p.key()
	if i, ok := t.index[key]; ok {
		t.routes[i] = &Route{Pattern: p, Handler: handler}
		return
	}
	t.index[key] = len(t.routes)
	t.routes = append(t.routes, &Route{Pattern: p, Handler: handler})
}

// Match matches a path ("/story/42") against the table.
func (t *Table) Match(path string) (*Match, bool) {
	return t.MatchSegments(routepath.Split(path))
}

// MatchSegments matches already split path segments against the table.
// It returns false when no route has the same arity and literals.
func (t *Table) MatchSegments(segments []string) (*Match, bool) {
	for _, route := range t.routes {
		params, ok := matchPattern(route.Pattern, segments)
		if ok {
			return &Match{Route: route, Params: params}, true
		}
	}
	return nil, false
}

// Routes returns the registered routes in declaration order.
func (t *Table) Routes() []*Route {
	out := make([]*Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// Len returns the number of registered routes.
func (t *Table) Len() int {
	return len(t.routes)
}

func matchPattern(p Pattern, segments []string) (Params, bool) {
	if len(p.segments) != len(segments) {
		return nil, false
	}

	var params Params
	for i, seg := range p.segments {
		if seg.isParam {
			params = append(params, segments[i])
			continue
		}
		if seg.Literal != segments[i] {
			return nil, false
		}
	}
	if params == nil {
		params = Params{}
	}
	return params, true
}
