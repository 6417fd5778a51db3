package pages

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"strings"

	"github.com/storyapp/storyapp/internal/markup"
	"github.com/storyapp/storyapp/pkg/auth"
	"github.com/storyapp/storyapp/pkg/story"
	"github.com/storyapp/storyapp/pkg/toast"
	"github.com/storyapp/storyapp/pkg/upload"
)

// Preference keys stored in the client's session.
const (
	PrefDarkMode      = "dark-mode-enabled"
	PrefNotifications = "notifications-enabled"
)

// Frame names emitted besides screen content and toasts.
const (
	FrameMap        = "map"
	FrameMapRelease = "map-release"
	FrameTheme      = "theme"
)

// ErrUnknownAction is returned by HandleAction for actions a page does not
// handle.
var ErrUnknownAction = errors.New("pages: unknown action")

// Screen is the render target of the application, the container the
// current page draws into.
type Screen interface {
	SetContent(html template.HTML)
}

// Prefs stores client preferences. *session.Session implements it.
type Prefs interface {
	GetBool(key string) bool
	Set(key string, v any) error
}

// Action is a user interaction relayed by the client.
type Action struct {
	Name   string            `json:"name"`
	Values map[string]string `json:"values,omitempty"`
}

// Value returns a trimmed form or data value.
func (a Action) Value(key string) string {
	return strings.TrimSpace(a.Values[key])
}

// ActionHandler is implemented by pages that react to client actions.
type ActionHandler interface {
	HandleAction(ctx context.Context, a Action) error
}

// Env is what pages of one client share.
type Env struct {
	// Stories loads and stores stories.
	Stories *story.Service

	// Auth holds the client's identity.
	Auth *auth.Model

	// Owner partitions the offline store, normally the client ID.
	Owner string

	// Screen receives page markup.
	Screen Screen

	// Events receives toasts and map/theme frames.
	Events toast.Emitter

	// Photos holds uploaded photos until a story claims them.
	Photos upload.Store

	// Markup renders story descriptions (default: markup.New()).
	Markup *markup.Renderer

	// Prefs stores preferences. Optional.
	Prefs Prefs

	// OnAuthChanged is called after login. Optional.
	OnAuthChanged func()

	// Logger is the structured logger (default: slog.Default()).
	Logger *slog.Logger
}

func (e *Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default().With("component", "pages")
	}
	return e.Logger.With("component", "pages")
}

func (e *Env) markup() *markup.Renderer {
	if e.Markup == nil {
		e.Markup = markup.New()
	}
	return e.Markup
}

func (e *Env) emit(name string, data any) {
	if e.Events != nil {
		e.Events.Emit(name, data)
	}
}

func (e *Env) pref(key string) bool {
	return e.Prefs != nil && e.Prefs.GetBool(key)
}

func (e *Env) authChanged() {
	if e.OnAuthChanged != nil {
		e.OnAuthChanged()
	}
}

// errorMessage turns an error into text fit for the user.
func errorMessage(err error) string {
	var apiErr *story.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	case errors.Is(err, auth.ErrUnauthorized):
		return "Your session has expired. Please login again."
	case errors.Is(err, story.ErrNotFound):
		return "Story not found."
	case errors.Is(err, auth.ErrMissingCredentials):
		return "Please fill in all fields."
	case errors.Is(err, auth.ErrPasswordTooShort):
		return "Password must be at least 8 characters."
	case errors.Is(err, story.ErrEmptyDescription):
		return "Please write a description."
	case errors.Is(err, story.ErrMissingPhoto), errors.Is(err, upload.ErrNotFound):
		return "Please add a photo."
	case errors.Is(err, story.ErrPhotoTooLarge):
		return "Photo must be smaller than 1MB."
	case errors.Is(err, story.ErrInvalidCoordinates):
		return "Location is out of range."
	case errors.Is(err, context.Canceled):
		return "Request cancelled."
	default:
		return "Network error. Please check your connection and try again."
	}
}
