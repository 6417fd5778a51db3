package pages

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"io"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/storyapp/storyapp/pkg/auth"
	"github.com/storyapp/storyapp/pkg/router"
	"github.com/storyapp/storyapp/pkg/story"
	"github.com/storyapp/storyapp/pkg/toast"
	"github.com/storyapp/storyapp/pkg/upload"
)

type recordingScreen struct {
	content []template.HTML
}

func (s *recordingScreen) SetContent(html template.HTML) { s.content = append(s.content, html) }

func (s *recordingScreen) last() string {
	if len(s.content) == 0 {
		return ""
	}
	return string(s.content[len(s.content)-1])
}

type frame struct {
	name string
	data any
}

type recordingEvents struct {
	frames []frame
}

func (e *recordingEvents) Emit(name string, data any) { e.frames = append(e.frames, frame{name, data}) }

func (e *recordingEvents) named(name string) []frame {
	var out []frame
	for _, f := range e.frames {
		if f.name == name {
			out = append(out, f)
		}
	}
	return out
}

func (e *recordingEvents) toasts() []toast.Toast {
	var out []toast.Toast
	for _, f := range e.named(toast.EventName) {
		out = append(out, f.data.(toast.Toast))
	}
	return out
}

type recordingNav struct {
	paths []string
}

func (n *recordingNav) Navigate(path string, opts ...router.NavigateOption) {
	n.paths = append(n.paths, path)
}

type memoryPrefs map[string]any

func (p memoryPrefs) GetString(key string) string {
	s, _ := p[key].(string)
	return s
}
func (p memoryPrefs) SetString(key, v string) { p[key] = v }
func (p memoryPrefs) Delete(key string)       { delete(p, key) }
func (p memoryPrefs) GetBool(key string) bool {
	b, _ := p[key].(bool)
	return b
}
func (p memoryPrefs) Set(key string, v any) error {
	p[key] = v
	return nil
}

type fakeAPI struct {
	stories   []story.Story
	listErr   error
	addErr    error
	added     []story.NewStory
	principal auth.Principal
	loginErr  error
}

func (f *fakeAPI) Stories(ctx context.Context, token string, opts story.ListOptions) ([]story.Story, error) {
	return f.stories, f.listErr
}

func (f *fakeAPI) Story(ctx context.Context, token, id string) (story.Story, error) {
	if f.listErr != nil {
		return story.Story{}, f.listErr
	}
	for _, s := range f.stories {
		if s.ID == id {
			return s, nil
		}
	}
	return story.Story{}, &story.APIError{Status: 404, Message: "Story not found"}
}

func (f *fakeAPI) AddStory(ctx context.Context, token string, n story.NewStory) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, n)
	return nil
}

func (f *fakeAPI) Login(ctx context.Context, email, password string) (auth.Principal, error) {
	return f.principal, f.loginErr
}

func (f *fakeAPI) Register(ctx context.Context, name, email, password string) error {
	return nil
}

type memoryPhotos struct {
	files map[string][]byte
}

func (m *memoryPhotos) Save(ctx context.Context, filename, contentType string, size int64, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	id := "photo-" + filename
	m.files[id] = data
	return id, nil
}

func (m *memoryPhotos) Claim(ctx context.Context, id string) (*upload.File, error) {
	data, ok := m.files[id]
	if !ok {
		return nil, upload.ErrNotFound
	}
	delete(m.files, id)
	return &upload.File{
		ID:          id,
		Filename:    "photo.jpg",
		ContentType: "image/jpeg",
		Size:        int64(len(data)),
		Reader:      io.NopCloser(bytes.NewReader(data)),
	}, nil
}

func (m *memoryPhotos) Cleanup(ctx context.Context, maxAge time.Duration) error { return nil }

type fixture struct {
	env    *Env
	api    *fakeAPI
	store  *story.MemoryStore
	screen *recordingScreen
	events *recordingEvents
	nav    *recordingNav
	prefs  memoryPrefs
	photos *memoryPhotos
}

func float(v float64) *float64 { return &v }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		api: &fakeAPI{
			stories: []story.Story{
				{ID: "s1", Name: "Ada", Description: "By the **sea**", PhotoURL: "https://img/1.jpg", Lat: float(-6.2), Lon: float(106.8)},
				{ID: "s2", Name: "Grace", Description: "No place", PhotoURL: "https://img/2.jpg"},
			},
			principal: auth.Principal{UserID: "u1", Name: "Ada", Token: "tok"},
		},
		store:  story.NewMemoryStore(),
		screen: &recordingScreen{},
		events: &recordingEvents{},
		nav:    &recordingNav{},
		prefs:  memoryPrefs{auth.KeyToken: "tok"},
		photos: &memoryPhotos{files: map[string][]byte{}},
	}
	f.env = &Env{
		Stories: story.NewService(f.api, f.store),
		Auth:    auth.NewModel(f.prefs, f.api),
		Owner:   "client-1",
		Screen:  f.screen,
		Events:  f.events,
		Photos:  f.photos,
		Prefs:   f.prefs,
	}
	return f
}


func TestHomeRendersStoriesAndMap(t *testing.T) {
	f := newFixture(t)
	p := Home(f.env).New(f.nav)

	if err := p.Render(context.Background()); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if len(f.screen.content) != 2 {
		t.Fatalf("screen updates = %d, want loading then list", len(f.screen.content))
	}
	if !strings.Contains(string(f.screen.content[0]), "Loading stories...") {
		t.Errorf("first update = %q, want loading state", f.screen.content[0])
	}
	html := f.screen.last()
	for _, want := range []string{`data-id="s1"`, `data-id="s2"`, "By the sea", "Location available", "No location"} {
		if !strings.Contains(html, want) {
			t.Errorf("home markup missing %q", want)
		}
	}

	maps := f.events.named(FrameMap)
	if len(maps) != 1 {
		t.Fatalf("map frames = %d, want 1", len(maps))
	}
	mf := maps[0].data.(mapFrame)
	if mf.Container != "stories-map" || len(mf.Markers) != 1 || mf.Markers[0].ID != "s1" {
		t.Errorf("map frame = %+v, want one marker for s1", mf)
	}

	cached, _ := f.store.CachedStories(context.Background(), "client-1")
	if len(cached) != 2 {
		t.Errorf("cached stories = %d, want 2", len(cached))
	}

	d := p.(interface{ Destroy() })
	d.Destroy()
	d.Destroy()
	if n := len(f.events.named(FrameMapRelease)); n != 1 {
		t.Errorf("map releases = %d, want 1", n)
	}
}

func TestHomeErrorStateAndRetry(t *testing.T) {
	f := newFixture(t)
	f.api.listErr = errors.New("connection refused")
	p := Home(f.env).New(f.nav)

	if err := p.Render(context.Background()); err == nil {
		t.Fatal("Render() error = nil, want the load error")
	}
	if !strings.Contains(f.screen.last(), `data-action="retry"`) {
		t.Errorf("error state has no retry button: %q", f.screen.last())
	}

	f.api.listErr = nil
	if err := p.(ActionHandler).HandleAction(context.Background(), Action{Name: "retry"}); err != nil {
		t.Fatalf("retry error = %v", err)
	}
	if !strings.Contains(f.screen.last(), `data-id="s1"`) {
		t.Error("retry did not render the list")
	}
}

func TestHomeActions(t *testing.T) {
	f := newFixture(t)
	h := Home(f.env).New(f.nav).(ActionHandler)
	ctx := context.Background()

	if err := h.HandleAction(ctx, Action{Name: "open-story", Values: map[string]string{"id": "s1"}}); err != nil {
		t.Fatalf("open-story error = %v", err)
	}
	if !reflect.DeepEqual(f.nav.paths, []string{"/story/s1"}) {
		t.Errorf("navigations = %v, want [/story/s1]", f.nav.paths)
	}
	if err := h.HandleAction(ctx, Action{Name: "open-story"}); err == nil {
		t.Error("open-story without id succeeded")
	}
	if err := h.HandleAction(ctx, Action{Name: "dance"}); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("unknown action error = %v, want ErrUnknownAction", err)
	}
}

func TestStoryDetailFavoriteToggle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := StoryDetail(f.env).New(f.nav, "s1")

	if err := p.Render(ctx); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	html := f.screen.last()
	if !strings.Contains(html, "<strong>sea</strong>") {
		t.Errorf("description not rendered as markdown: %q", html)
	}
	if !strings.Contains(html, "Add to Favorites") {
		t.Error("detail markup missing favorite button")
	}

	h := p.(ActionHandler)
	if err := h.HandleAction(ctx, Action{Name: "toggle-favorite"}); err != nil {
		t.Fatalf("toggle-favorite error = %v", err)
	}
	if fav, _ := f.store.IsFavorite(ctx, "client-1", "s1"); !fav {
		t.Error("story not saved as favorite")
	}
	if !strings.Contains(f.screen.last(), "Remove from Favorites") {
		t.Error("button did not switch to remove")
	}

	if err := h.HandleAction(ctx, Action{Name: "toggle-favorite"}); err != nil {
		t.Fatalf("second toggle error = %v", err)
	}
	if fav, _ := f.store.IsFavorite(ctx, "client-1", "s1"); fav {
		t.Error("story still a favorite after second toggle")
	}

	toasts := f.events.toasts()
	if len(toasts) != 2 || toasts[0].Level != toast.TypeSuccess || toasts[1].Level != toast.TypeInfo {
		t.Errorf("toasts = %+v", toasts)
	}
}

func TestStoryDetailSanitizesDescription(t *testing.T) {
	f := newFixture(t)
	f.api.stories = []story.Story{{ID: "x", Name: "Eve", Description: "<script>alert(1)</script>hi"}}
	p := StoryDetail(f.env).New(f.nav, "x")

	if err := p.Render(context.Background()); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if strings.Contains(f.screen.last(), "<script>") {
		t.Errorf("markup contains a script tag: %q", f.screen.last())
	}
}

func TestStoryDetailNotFound(t *testing.T) {
	f := newFixture(t)
	p := StoryDetail(f.env).New(f.nav, "missing")

	err := p.Render(context.Background())
	if !errors.Is(err, story.ErrNotFound) {
		t.Fatalf("Render() error = %v, want ErrNotFound", err)
	}
	if !strings.Contains(f.screen.last(), "Story not found") {
		t.Errorf("error state = %q", f.screen.last())
	}
	if len(f.events.named(FrameMap)) != 0 {
		t.Error("map drawn for a missing story")
	}
}

func TestAddStorySubmit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id, _ := f.photos.Save(ctx, "cat.jpg", "image/jpeg", 4, strings.NewReader("jpeg"))

	p := AddStory(f.env).New(f.nav)
	if err := p.Render(ctx); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	err := p.(ActionHandler).HandleAction(ctx, Action{Name: "submit", Values: map[string]string{
		"description": "A walk",
		"photo":       id,
		"lat":         "-6.2",
		"lon":         "106.8",
	}})
	if err != nil {
		t.Fatalf("submit error = %v", err)
	}

	if len(f.api.added) != 1 {
		t.Fatalf("stories posted = %d, want 1", len(f.api.added))
	}
	got := f.api.added[0]
	if string(got.Photo) != "jpeg" || got.ContentType != "image/jpeg" || got.Lat == nil || *got.Lat != -6.2 {
		t.Errorf("posted story = %+v", got)
	}
	if len(f.photos.files) != 0 {
		t.Error("photo was not claimed")
	}
	if !reflect.DeepEqual(f.nav.paths, []string{"/home"}) {
		t.Errorf("navigations = %v, want [/home]", f.nav.paths)
	}
	if ts := f.events.toasts(); len(ts) != 1 || ts[0].Level != toast.TypeSuccess {
		t.Errorf("toasts = %+v, want one success", ts)
	}
}

func TestAddStoryRejectsInvalidFormWithoutClaiming(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
		want   string
	}{
		{name: "no description", values: map[string]string{"photo": "photo-cat.jpg"}, want: "Please write a description."},
		{name: "bad latitude", values: map[string]string{"description": "x", "photo": "photo-cat.jpg", "lat": "north", "lon": "1"}, want: "Location is out of range."},
		{name: "NaN latitude", values: map[string]string{"description": "x", "photo": "photo-cat.jpg", "lat": "NaN", "lon": "1"}, want: "Location is out of range."},
		{name: "infinite longitude", values: map[string]string{"description": "x", "photo": "photo-cat.jpg", "lat": "1", "lon": "+Inf"}, want: "Location is out of range."},
		{name: "latitude out of range", values: map[string]string{"description": "x", "photo": "photo-cat.jpg", "lat": "91", "lon": "1"}, want: "Location is out of range."},
		{name: "no photo", values: map[string]string{"description": "x"}, want: "Please add a photo."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			f.photos.Save(ctx, "cat.jpg", "image/jpeg", 4, strings.NewReader("jpeg"))

			p := AddStory(f.env).New(f.nav).(ActionHandler)
			if err := p.HandleAction(ctx, Action{Name: "submit", Values: tt.values}); err != nil {
				t.Fatalf("submit error = %v, want nil for a user error", err)
			}
			if len(f.api.added) != 0 || len(f.nav.paths) != 0 {
				t.Errorf("invalid form was submitted: added %d, navigations %v", len(f.api.added), f.nav.paths)
			}
			if len(f.photos.files) != 1 {
				t.Error("photo claimed by a rejected form")
			}
			if ts := f.events.toasts(); len(ts) != 1 || ts[0].Message != tt.want {
				t.Errorf("toasts = %+v, want %q", ts, tt.want)
			}
		})
	}
}

func TestAddStoryQueuesWhenOffline(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.api.addErr = errors.New("connection refused")
	id, _ := f.photos.Save(ctx, "cat.jpg", "image/jpeg", 4, strings.NewReader("jpeg"))

	p := AddStory(f.env).New(f.nav).(ActionHandler)
	err := p.HandleAction(ctx, Action{Name: "submit", Values: map[string]string{"description": "Later", "photo": id}})
	if err != nil {
		t.Fatalf("submit error = %v", err)
	}

	pending, _ := f.store.Pending(ctx, "client-1")
	if len(pending) != 1 || pending[0].Story.Description != "Later" {
		t.Errorf("pending = %+v, want the queued story", pending)
	}
	if ts := f.events.toasts(); len(ts) != 1 || ts[0].Level != toast.TypeWarning {
		t.Errorf("toasts = %+v, want one warning", ts)
	}
	if !reflect.DeepEqual(f.nav.paths, []string{"/home"}) {
		t.Errorf("navigations = %v, want [/home]", f.nav.paths)
	}
}

func TestMapPageDestroyReleasesMap(t *testing.T) {
	f := newFixture(t)
	p := Map(f.env).New(f.nav)

	if err := p.Render(context.Background()); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(f.screen.last(), "1 of 2 stories have a location.") {
		t.Errorf("map markup = %q", f.screen.last())
	}
	if len(f.events.named(FrameMap)) != 1 {
		t.Fatal("map not drawn")
	}

	p.(interface{ Destroy() }).Destroy()
	releases := f.events.named(FrameMapRelease)
	if len(releases) != 1 || releases[0].data.(mapFrame).Container != "full-map" {
		t.Errorf("releases = %+v, want full-map", releases)
	}
}

func TestFavoritesRemove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.AddFavorite(ctx, "client-1", f.api.stories[0])

	p := Favorites(f.env).New(f.nav)
	if err := p.Render(ctx); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(f.screen.last(), `data-action="remove-favorite" data-id="s1"`) {
		t.Fatalf("favorites markup = %q", f.screen.last())
	}

	if err := p.(ActionHandler).HandleAction(ctx, Action{Name: "remove-favorite", Values: map[string]string{"id": "s1"}}); err != nil {
		t.Fatalf("remove-favorite error = %v", err)
	}
	if !strings.Contains(f.screen.last(), "no favorite stories") {
		t.Errorf("favorites after remove = %q", f.screen.last())
	}
}

func TestSettingsActions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.CacheStories(ctx, "client-1", f.api.stories)

	p := Settings(f.env).New(f.nav)
	if err := p.Render(ctx); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(f.screen.last(), "2 saved stories, 0 waiting to sync") {
		t.Errorf("settings markup = %q", f.screen.last())
	}

	h := p.(ActionHandler)
	if err := h.HandleAction(ctx, Action{Name: "toggle-dark-mode"}); err != nil {
		t.Fatalf("toggle-dark-mode error = %v", err)
	}
	if !f.prefs.GetBool(PrefDarkMode) {
		t.Error("dark mode not stored")
	}
	themes := f.events.named(FrameTheme)
	if len(themes) != 1 || !themes[0].data.(Theme).Dark {
		t.Errorf("theme frames = %+v", themes)
	}

	if err := h.HandleAction(ctx, Action{Name: "clear-data"}); err != nil {
		t.Fatalf("clear-data error = %v", err)
	}
	if cached, _ := f.store.CachedStories(ctx, "client-1"); len(cached) != 0 {
		t.Errorf("cached stories after clear = %d", len(cached))
	}
}

func TestLoginSuccess(t *testing.T) {
	f := newFixture(t)
	f.prefs.Delete(auth.KeyToken)
	changed := 0
	f.env.OnAuthChanged = func() { changed++ }

	p := Login(f.env, false).New(f.nav)
	if err := p.Render(context.Background()); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	err := p.(ActionHandler).HandleAction(context.Background(), Action{Name: "login", Values: map[string]string{
		"email": "ada@example.com", "password": "secret123",
	}})
	if err != nil {
		t.Fatalf("login error = %v", err)
	}
	if !f.env.Auth.IsAuthenticated() || changed != 1 {
		t.Errorf("authenticated = %v, auth changes = %d", f.env.Auth.IsAuthenticated(), changed)
	}
	if !reflect.DeepEqual(f.nav.paths, []string{"/home"}) {
		t.Errorf("navigations = %v, want [/home]", f.nav.paths)
	}
}

func TestLoginFailureStaysOnForm(t *testing.T) {
	f := newFixture(t)
	f.prefs.Delete(auth.KeyToken)
	f.api.loginErr = &story.APIError{Status: 401}

	p := Login(f.env, false).New(f.nav).(ActionHandler)
	err := p.HandleAction(context.Background(), Action{Name: "login", Values: map[string]string{
		"email": "ada@example.com", "password": "wrong-password",
	}})
	if !errors.Is(err, auth.ErrUnauthorized) {
		t.Errorf("login error = %v, want ErrUnauthorized", err)
	}
	if len(f.nav.paths) != 0 {
		t.Errorf("navigations = %v, want none", f.nav.paths)
	}
	if !strings.Contains(f.screen.last(), "Invalid email or password.") || !strings.Contains(f.screen.last(), `value="ada@example.com"`) {
		t.Errorf("login form = %q", f.screen.last())
	}
}

func TestRegisterNavigatesToLogin(t *testing.T) {
	f := newFixture(t)
	p := Login(f.env, true).New(f.nav)
	if err := p.Render(context.Background()); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.Contains(f.screen.last(), "Create Account") {
		t.Errorf("register markup = %q", f.screen.last())
	}

	err := p.(ActionHandler).HandleAction(context.Background(), Action{Name: "register", Values: map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "short",
	}})
	if err != nil {
		t.Fatalf("register error = %v, want nil for a short password", err)
	}
	if len(f.nav.paths) != 0 {
		t.Fatalf("short password navigated: %v", f.nav.paths)
	}

	err = p.(ActionHandler).HandleAction(context.Background(), Action{Name: "register", Values: map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "long-enough",
	}})
	if err != nil {
		t.Fatalf("register error = %v", err)
	}
	if !reflect.DeepEqual(f.nav.paths, []string{"/login"}) {
		t.Errorf("navigations = %v, want [/login]", f.nav.paths)
	}
}
