package pages

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/storyapp/storyapp/pkg/story"
)

//go:embed templates/*.html
var templateFS embed.FS

var views = template.Must(template.New("pages").ParseFS(templateFS, "templates/*.html"))

// render executes the named view and hands the markup to the screen.
func (e *Env) render(name string, data any) error {
	var buf bytes.Buffer
	if err := views.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("pages: render %s: %w", name, err)
	}
	if e.Screen != nil {
		e.Screen.SetContent(template.HTML(buf.String()))
	}
	return nil
}

type statusView struct {
	Title   string
	Message string
	Retry   bool
}

func (e *Env) showLoading(title, message string) {
	if err := e.render("status", statusView{Title: title, Message: message}); err != nil {
		e.logger().Error("status view failed", "error", err)
	}
}

func (e *Env) showError(title string, err error) error {
	if rerr := e.render("status", statusView{Title: title, Message: errorMessage(err), Retry: true}); rerr != nil {
		return rerr
	}
	return err
}

type storyCard struct {
	ID          string
	Name        string
	PhotoURL    string
	Alt         string
	Excerpt     string
	Date        string
	DateISO     string
	HasLocation bool
}

func (e *Env) cards(stories []story.Story) []storyCard {
	cards := make([]storyCard, len(stories))
	for i, s := range stories {
		cards[i] = storyCard{
			ID:          s.ID,
			Name:        s.Name,
			PhotoURL:    s.PhotoURL,
			Alt:         fmt.Sprintf("Story photo by %s: %s", s.Name, e.markup().Excerpt(s.Description, 50)),
			Excerpt:     e.markup().Excerpt(s.Description, 100),
			Date:        formatDate(s.CreatedAt),
			DateISO:     s.CreatedAt.Format(time.RFC3339),
			HasLocation: s.HasLocation(),
		}
	}
	return cards
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2 January 2006")
}

// mapFrame describes the markers of one client-side map.
type mapFrame struct {
	Container string      `json:"container"`
	Markers   []mapMarker `json:"markers,omitempty"`
}

type mapMarker struct {
	ID    string  `json:"id"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Title string  `json:"title"`
	Popup string  `json:"popup"`
}

// storyMap is a page's handle on a client-side map.
type storyMap struct {
	env       *Env
	container string
	live      bool
}

// show draws markers for the located stories. Nothing is drawn when none
// has a location.
func (m *storyMap) show(stories []story.Story) {
	frame := mapFrame{Container: m.container}
	for _, s := range stories {
		if !s.HasLocation() {
			continue
		}
		frame.Markers = append(frame.Markers, mapMarker{
			ID:    s.ID,
			Lat:   *s.Lat,
			Lon:   *s.Lon,
			Title: s.Name,
			Popup: m.env.markup().Excerpt(s.Description, 80),
		})
	}
	if len(frame.Markers) == 0 {
		return
	}
	m.env.emit(FrameMap, frame)
	m.live = true
}

// release tears the client map down. It is safe to call more than once.
func (m *storyMap) release() {
	if !m.live {
		return
	}
	m.live = false
	m.env.emit(FrameMapRelease, mapFrame{Container: m.container})
}
