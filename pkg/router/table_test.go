package router

import (
	"context"
	"reflect"
	"testing"
)

// namedHandler returns a handler that records name into *hit.
func namedHandler(hit *string, name string) Handler {
	return func(ctx context.Context, params Params) error {
		*hit = name
		return nil
	}
}

func TestParsePattern(t *testing.T) {
	p := ParsePattern("/story/:id")
	segs := p.Segments()
	if len(segs) != 2 {
		t.Fatalf("len(segments) = %d, want 2", len(segs))
	}
	if segs[0].IsParam() || segs[0].Literal != "story" {
		t.Errorf("segment 0 = %+v, want literal story", segs[0])
	}
	if !segs[1].IsParam() || segs[1].Param != "id" {
		t.Errorf("segment 1 = %+v, want param id", segs[1])
	}
	if got := p.ParamNames(); !reflect.DeepEqual(got, []string{"id"}) {
		t.Errorf("ParamNames() = %v, want [id]", got)
	}
	if p.String() != "/story/:id" {
		t.Errorf("String() = %q", p.String())
	}
}

func TestTableMatch(t *testing.T) {
	var hit string
	table := NewTable()
	table.Register("/", namedHandler(&hit, "root"))
	table.Register("/home", namedHandler(&hit, "home"))
	table.Register("/story/:id", namedHandler(&hit, "story"))
	table.Register("/a/:x/b/:y", namedHandler(&hit, "multi"))

	tests := []struct {
		path       string
		wantMatch  bool
		wantName   string
		wantParams Params
	}{
		{path: "/", wantMatch: true, wantName: "root", wantParams: Params{}},
		{path: "", wantMatch: true, wantName: "root", wantParams: Params{}},
		{path: "/home", wantMatch: true, wantName: "home", wantParams: Params{}},
		{path: "/story/42", wantMatch: true, wantName: "story", wantParams: Params{"42"}},
		{path: "/a/1/b/2", wantMatch: true, wantName: "multi", wantParams: Params{"1", "2"}},
		{path: "/home/", wantMatch: false},
		{path: "/story", wantMatch: false},
		{path: "/story/42/edit", wantMatch: false},
		{path: "/unknown/path", wantMatch: false},
		{path: "/a/1/c/2", wantMatch: false},
		{path: "/HOME", wantMatch: false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			hit = ""
			m, ok := table.Match(tt.path)
			if ok != tt.wantMatch {
				t.Fatalf("Match(%q) ok = %v, want %v", tt.path, ok, tt.wantMatch)
			}
			if !ok {
				if m != nil {
					t.Errorf("Match(%q) returned non-nil match on miss", tt.path)
				}
				return
			}
			if err := m.Route.Handler(context.Background(), m.Params); err != nil {
				t.Fatal(err)
			}
			if hit != tt.wantName {
				t.Errorf("matched %q, want %q", hit, tt.wantName)
			}
			if !reflect.DeepEqual(m.Params, tt.wantParams) {
				t.Errorf("Params = %#v, want %#v", m.Params, tt.wantParams)
			}
		})
	}
}

func TestTableDeclaredOrderWins(t *testing.T) {
	var hit string
	table := NewTable()
	table.Register("/story/:id", namedHandler(&hit, "param"))
	table.Register("/story/new", namedHandler(&hit, "literal"))

	m, ok := table.Match("/story/new")
	if !ok {
		t.Fatal("expected match")
	}
	_ = m.Route.Handler(context.Background(), m.Params)
	if hit != "param" {
		t.Errorf("matched %q, want first declared route", hit)
	}
}

func TestTableDuplicateOverwrites(t *testing.T) {
	var hit string
	table := NewTable()
	table.Register("/home", namedHandler(&hit, "first"))
	table.Register("/map", namedHandler(&hit, "map"))
	table.Register("/home", namedHandler(&hit, "second"))
	table.Register("/story/:id", namedHandler(&hit, "id"))
	table.Register("/story/:slug", namedHandler(&hit, "slug"))

	if table.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", table.Len())
	}

	routes := table.Routes()
	if routes[0].Pattern.String() != "/home" {
		t.Errorf("routes[0] = %q, want /home to keep its position", routes[0].Pattern)
	}
	if routes[2].Pattern.String() != "/story/:slug" {
		t.Errorf("routes[2] = %q, want /story/:slug", routes[2].Pattern)
	}

	m, _ := table.Match("/home")
	_ = m.Route.Handler(context.Background(), m.Params)
	if hit != "second" {
		t.Errorf("matched %q, want second", hit)
	}

	m, _ = table.Match("/story/7")
	_ = m.Route.Handler(context.Background(), m.Params)
	if hit != "slug" {
		t.Errorf("matched %q, want slug", hit)
	}
}

func TestTableMatchPropertyAritySensitive(t *testing.T) {
	table := NewTable()
	patterns := []string{"/home", "/add-story", "/map", "/settings", "/favorites", "/story/:id", "/login", "/register"}
	for _, p := range patterns {
		table.Register(p, func(context.Context, Params) error { return nil })
	}

	for _, p := range patterns {
		pattern := ParsePattern(p)
		path := ""
		var want Params
		for _, seg := range pattern.Segments() {
			if seg.IsParam() {
				path += "/value-" + seg.Param
				want = append(want, "value-"+seg.Param)
			} else {
				path += "/" + seg.Literal
			}
		}
		m, ok := table.Match(path)
		if !ok {
			t.Errorf("Match(%q) missed pattern %q", path, p)
			continue
		}
		if m.Route.Pattern.String() != p {
			t.Errorf("Match(%q) = %q, want %q", path, m.Route.Pattern, p)
		}
		if want == nil {
			want = Params{}
		}
		if !reflect.DeepEqual(m.Params, want) {
			t.Errorf("Match(%q) params = %v, want %v", path, m.Params, want)
		}

		if _, ok := table.Match(path + "/extra"); ok {
			t.Errorf("Match(%q) matched with extra segment", path+"/extra")
		}
	}
}
