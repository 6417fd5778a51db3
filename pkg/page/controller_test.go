package page

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/storyapp/storyapp/pkg/auth"
	"github.com/storyapp/storyapp/pkg/loop"
	"github.com/storyapp/storyapp/pkg/router"
)

type recordingNavigator struct {
	paths []string
}

func (n *recordingNavigator) Navigate(path string, opts ...router.NavigateOption) {
	n.paths = append(n.paths, path)
}

// journal records lifecycle events across pages in order.
type journal struct {
	events []string
}

func (j *journal) add(e string) { j.events = append(j.events, e) }

type testPage struct {
	name      string
	j         *journal
	renderErr error
	panicOn   bool
}

func (p *testPage) Render(ctx context.Context) error {
	p.j.add("render:" + p.name)
	return p.renderErr
}

type destroyablePage struct {
	testPage
}

func (p *destroyablePage) Destroy() {
	p.j.add("destroy:" + p.name)
	if p.panicOn {
		panic("destroy failed")
	}
}

func descriptor(j *journal, name string, requiresAuth, destroyable bool, renderErr error) Descriptor {
	return Descriptor{
		Name:         name,
		RequiresAuth: requiresAuth,
		New: func(nav Navigator, args ...string) Page {
			j.add("new:" + name)
			tp := testPage{name: name, j: j, renderErr: renderErr}
			if destroyable {
				return &destroyablePage{tp}
			}
			return &tp
		},
	}
}

type countingObserver struct {
	rendered  []string
	redirects int
}

func (o *countingObserver) PageRendered(name string, elapsed time.Duration, err error) {
	o.rendered = append(o.rendered, name)
}

func (o *countingObserver) AuthRedirected(name string) { o.redirects++ }

func TestShowPageAuthRedirect(t *testing.T) {
	j := &journal{}
	nav := &recordingNavigator{}
	obs := &countingObserver{}
	c := NewController(ControllerConfig{Navigator: nav, Gate: auth.Closed, Observer: obs})

	if err := c.ShowPage(context.Background(), descriptor(j, "home", true, true, nil)); err != nil {
		t.Fatalf("ShowPage() error = %v", err)
	}
	if len(j.events) != 0 {
		t.Errorf("events = %v, want nothing constructed", j.events)
	}
	if !reflect.DeepEqual(nav.paths, []string{"/login"}) {
		t.Errorf("navigations = %v, want [/login]", nav.paths)
	}
	if obs.redirects != 1 {
		t.Errorf("redirects = %d, want 1", obs.redirects)
	}
	if p, _ := c.Current(); p != nil {
		t.Errorf("Current() = %v, want nil", p)
	}
}

func TestShowPageAuthRedirectKeepsCurrentPage(t *testing.T) {
	j := &journal{}
	authed := true
	c := NewController(ControllerConfig{
		Navigator: &recordingNavigator{},
		Gate:      auth.GateFunc(func() bool { return authed }),
	})
	ctx := context.Background()

	_ = c.ShowPage(ctx, descriptor(j, "map", true, true, nil))
	authed = false
	_ = c.ShowPage(ctx, descriptor(j, "home", true, true, nil))

	want := []string{"new:map", "render:map"}
	if !reflect.DeepEqual(j.events, want) {
		t.Errorf("events = %v, want %v", j.events, want)
	}
	if _, name := c.Current(); name != "map" {
		t.Errorf("current = %q, want map", name)
	}
}

func TestShowPageUnprotectedIgnoresGate(t *testing.T) {
	j := &journal{}
	c := NewController(ControllerConfig{Navigator: &recordingNavigator{}, Gate: auth.Closed})

	if err := c.ShowPage(context.Background(), descriptor(j, "login", false, false, nil)); err != nil {
		t.Fatal(err)
	}
	if _, name := c.Current(); name != "login" {
		t.Errorf("current = %q, want login", name)
	}
}

func TestShowPageDestroysBeforeConstructing(t *testing.T) {
	j := &journal{}
	obs := &countingObserver{}
	c := NewController(ControllerConfig{Navigator: &recordingNavigator{}, Gate: auth.Open, Observer: obs})
	ctx := context.Background()

	_ = c.ShowPage(ctx, descriptor(j, "map", true, true, nil))
	_ = c.ShowPage(ctx, descriptor(j, "home", true, false, nil))
	_ = c.ShowPage(ctx, descriptor(j, "settings", true, false, nil))

	want := []string{
		"new:map", "render:map",
		"destroy:map", "new:home", "render:home",
		"new:settings", "render:settings",
	}
	if !reflect.DeepEqual(j.events, want) {
		t.Errorf("events = %v, want %v", j.events, want)
	}
	if !reflect.DeepEqual(obs.rendered, []string{"map", "home", "settings"}) {
		t.Errorf("rendered = %v", obs.rendered)
	}
}

func TestShowPageRenderErrorKeepsPageCurrent(t *testing.T) {
	j := &journal{}
	boom := errors.New("network down")
	c := NewController(ControllerConfig{Navigator: &recordingNavigator{}, Gate: auth.Open})
	ctx := context.Background()

	err := c.ShowPage(ctx, descriptor(j, "home", true, true, boom))
	if !errors.Is(err, boom) || err != boom {
		t.Fatalf("ShowPage() = %v, want the render error unchanged", err)
	}
	if _, name := c.Current(); name != "home" {
		t.Fatalf("current = %q, want home", name)
	}

	_ = c.ShowPage(ctx, descriptor(j, "map", true, false, nil))
	want := []string{"new:home", "render:home", "destroy:home", "new:map", "render:map"}
	if !reflect.DeepEqual(j.events, want) {
		t.Errorf("events = %v, want %v", j.events, want)
	}
}

func TestShowPageForwardsArgs(t *testing.T) {
	var gotNav Navigator
	var gotArgs []string
	nav := &recordingNavigator{}
	c := NewController(ControllerConfig{Navigator: nav, Gate: auth.Open})

	desc := Descriptor{Name: "story", RequiresAuth: true, New: func(n Navigator, args ...string) Page {
		gotNav, gotArgs = n, args
		return &testPage{name: "story", j: &journal{}}
	}}
	_ = c.ShowPage(context.Background(), desc, "42")

	if gotNav != Navigator(nav) {
		t.Error("factory did not receive the controller's navigator")
	}
	if !reflect.DeepEqual(gotArgs, []string{"42"}) {
		t.Errorf("args = %v, want [42]", gotArgs)
	}
}

func TestShowPageDestroyPanicPropagates(t *testing.T) {
	j := &journal{}
	c := NewController(ControllerConfig{Navigator: &recordingNavigator{}, Gate: auth.Open})
	ctx := context.Background()

	bad := Descriptor{Name: "map", New: func(nav Navigator, args ...string) Page {
		return &destroyablePage{testPage{name: "map", j: j, panicOn: true}}
	}}
	_ = c.ShowPage(ctx, bad)

	func() {
		defer func() {
			if recover() == nil {
				t.Error("Destroy panic was swallowed")
			}
		}()
		_ = c.ShowPage(ctx, descriptor(j, "home", false, false, nil))
	}()

	if _, name := c.Current(); name != "map" {
		t.Errorf("current = %q, want map to stay current", name)
	}
	for _, e := range j.events {
		if e == "new:home" {
			t.Error("next page was constructed after a failed Destroy")
		}
	}
}

func TestShutdown(t *testing.T) {
	j := &journal{}
	c := NewController(ControllerConfig{Navigator: &recordingNavigator{}, Gate: auth.Open})

	_ = c.ShowPage(context.Background(), descriptor(j, "map", false, true, nil))
	c.Shutdown()
	c.Shutdown()

	destroys := 0
	for _, e := range j.events {
		if e == "destroy:map" {
			destroys++
		}
	}
	if destroys != 1 {
		t.Errorf("destroys = %d, want 1", destroys)
	}
	if p, name := c.Current(); p != nil || name != "" {
		t.Errorf("Current() = %v, %q after Shutdown", p, name)
	}
}

// shell wires a router and controller over a memory location the way the
// application does.
type shell struct {
	router *router.Router
	ctrl   *Controller
	loc    *router.MemoryLocation
	sched  *loop.Manual
}

// route is one entry of a shell's table, registered in slice order.
type route struct {
	pattern string
	desc    Descriptor
}

func newShell(t *testing.T, initial string, gate auth.Gate, routes []route) *shell {
	t.Helper()
	sched := loop.NewManual()
	loc := router.NewMemoryLocation(sched, initial)
	r := router.New(router.Config{Location: loc, Scheduler: sched})
	c := NewController(ControllerConfig{Navigator: r, Gate: gate})
	for _, rt := range routes {
		desc := rt.desc
		r.AddRoute(rt.pattern, func(ctx context.Context, p router.Params) error {
			return c.ShowPage(ctx, desc, p...)
		})
	}
	r.Init(context.Background())
	return &shell{router: r, ctrl: c, loc: loc, sched: sched}
}

func TestShellUnauthenticatedDeepLinkEndsAtLogin(t *testing.T) {
	j := &journal{}
	s := newShell(t, "#/story/42", auth.Closed, []route{
		{"/story/:id", descriptor(j, "story", true, true, nil)},
		{"/login", descriptor(j, "login", false, false, nil)},
		{"/home", descriptor(j, "home", true, false, nil)},
	})

	s.loc.Load()
	s.sched.Advance(time.Second)

	if s.loc.Fragment() != "#/login" {
		t.Errorf("Fragment() = %q, want #/login", s.loc.Fragment())
	}
	want := []string{"new:login", "render:login"}
	if !reflect.DeepEqual(j.events, want) {
		t.Errorf("events = %v, want %v", j.events, want)
	}
}

func TestShellAuthenticatedNavigationSequence(t *testing.T) {
	j := &journal{}
	var storyArgs []string
	story := Descriptor{Name: "story", RequiresAuth: true, New: func(nav Navigator, args ...string) Page {
		storyArgs = args
		j.add("new:story")
		return &testPage{name: "story", j: j}
	}}
	s := newShell(t, "#/map", auth.Open, []route{
		{"/map", descriptor(j, "map", true, true, nil)},
		{"/story/:id", story},
		{"/home", descriptor(j, "home", true, false, nil)},
	})

	s.loc.Load()
	s.sched.Advance(time.Second)
	s.router.Navigate("/story/7")
	s.sched.Advance(time.Second)

	want := []string{"new:map", "render:map", "destroy:map", "new:story", "render:story"}
	if !reflect.DeepEqual(j.events, want) {
		t.Errorf("events = %v, want %v", j.events, want)
	}
	if !reflect.DeepEqual(storyArgs, []string{"7"}) {
		t.Errorf("story args = %v, want [7]", storyArgs)
	}
}

func TestShellUnknownRouteShowsHome(t *testing.T) {
	j := &journal{}
	s := newShell(t, "#/nope", auth.Open, []route{
		{"/home", descriptor(j, "home", true, false, nil)},
	})

	s.loc.Load()
	s.sched.Advance(time.Second)

	if s.loc.Fragment() != "#/home" {
		t.Errorf("Fragment() = %q, want #/home", s.loc.Fragment())
	}
	if _, name := s.ctrl.Current(); name != "home" {
		t.Errorf("current = %q, want home", name)
	}
}

func TestShellFirstDeclaredRouteWins(t *testing.T) {
	tests := []struct {
		name   string
		routes func(j *journal) []route
		want   string
	}{
		{
			name: "param first",
			routes: func(j *journal) []route {
				return []route{
					{"/story/:id", descriptor(j, "detail", false, false, nil)},
					{"/story/new", descriptor(j, "add", false, false, nil)},
				}
			},
			want: "detail",
		},
		{
			name: "literal first",
			routes: func(j *journal) []route {
				return []route{
					{"/story/new", descriptor(j, "add", false, false, nil)},
					{"/story/:id", descriptor(j, "detail", false, false, nil)},
				}
			},
			want: "add",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Repeat so that any ordering that depends on map iteration shows up.
			for i := 0; i < 20; i++ {
				j := &journal{}
				s := newShell(t, "#/story/new", auth.Open, tt.routes(j))
				s.loc.Load()
				s.sched.Advance(time.Second)
				if _, name := s.ctrl.Current(); name != tt.want {
					t.Fatalf("run %d: current = %q, want %q", i, name, tt.want)
				}
			}
		})
	}
}
