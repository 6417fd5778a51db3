// Package page owns the lifecycle of the single live page of an
// application shell.
//
// A page is a view+presenter pair built by a Factory. The Controller gates
// protected pages behind an auth.Gate, tears down the previous page and
// constructs and renders the next one:
//
//	ctrl := page.NewController(page.ControllerConfig{Navigator: r, Gate: authModel})
//	err := ctrl.ShowPage(ctx, pages.Home)
package page

import (
	"context"

	"github.com/storyapp/storyapp/pkg/router"
)

// Page is a live page instance.
type Page interface {
	// Render draws the page. It may block while loading remote or
	// persisted data. Failures are shown by the page itself; the returned
	// error is informational for the caller.
	Render(ctx context.Context) error
}

// Destroyer is implemented by pages that hold resources (maps, listeners,
// timers) which must be released before the next page is built.
type Destroyer interface {
	Destroy()
}

// Navigator is what a page may use to move the application elsewhere.
type Navigator interface {
	Navigate(path string, opts ...router.NavigateOption)
}

// Factory constructs a page. args are forwarded from the route, e.g. the
// story ID of "/story/:id".
type Factory func(nav Navigator, args ...string) Page

// Descriptor describes a kind of page.
type Descriptor struct {
	// Name identifies the page in logs and metrics.
	Name string

	// RequiresAuth marks the page as protected.
	RequiresAuth bool

	// New builds an instance.
	New Factory
}
