package router

import (
	"time"

	"github.com/storyapp/storyapp/pkg/loop"
)

// DefaultTransitionDelay is how long the fallback transition keeps the
// surface faded out before running the handler.
const DefaultTransitionDelay = 150 * time.Millisecond

// Style is the visual state of the render surface during a transition.
type Style struct {
	// Opacity ranges from 0 (hidden) to 1 (visible).
	Opacity float64

	// OffsetY is the vertical translation in pixels.
	OffsetY int

	// Animate asks the surface to animate towards this style.
	Animate bool
}

var (
	styleOut = Style{Opacity: 0, OffsetY: 20}
	styleIn  = Style{Opacity: 1, OffsetY: 0, Animate: true}
)

// Surface is the render target whose visual state the router sequences.
type Surface interface {
	SetStyle(style Style)
}

// ViewTransitioner is an optional Surface capability: grouping every update
// made by fn into a single visual transition frame.
type ViewTransitioner interface {
	// ViewTransitions reports whether grouped transitions are available
	// right now.
	ViewTransitions() bool

	// StartViewTransition runs fn and presents its updates as one frame.
	// It returns fn's error unchanged.
	StartViewTransition(fn func() error) error
}

// Transition sequences the visual swap around a handler in three phases.
type Transition interface {
	// Begin starts the outgoing phase.
	Begin()

	// Commit runs the handler and returns its error unchanged.
	Commit(handler func() error) error

	// End starts the incoming phase.
	End()
}

// FadeTransition fades and slides the surface out on Begin and back in on
// End. The caller decides how long to wait between Begin and Commit.
type FadeTransition struct {
	Surface Surface
}

// Begin implements Transition.
func (t FadeTransition) Begin() {
	if t.Surface != nil {
		t.Surface.SetStyle(styleOut)
	}
}

// Commit implements Transition.
func (t FadeTransition) Commit(handler func() error) error {
	return handler()
}

// End implements Transition.
func (t FadeTransition) End() {
	if t.Surface != nil {
		t.Surface.SetStyle(styleIn)
	}
}

// GroupedTransition commits the handler inside a ViewTransitioner group.
// Begin and End are no-ops; the group does the visual work.
type GroupedTransition struct {
	Group ViewTransitioner
}

// Begin implements Transition.
func (GroupedTransition) Begin() {}

// Commit implements Transition.
func (t GroupedTransition) Commit(handler func() error) error {
	return t.Group.StartViewTransition(handler)
}

// End implements Transition.
func (GroupedTransition) End() {}

// runTransition wraps handler in the best transition the surface offers and
// reports whether the handler ran now. Grouped transitions run synchronously
// and return the handler's error. The fallback runs the handler on sched
// after delay, hands its result (nil included) to done, and returns
// deferred == true immediately.
func runTransition(surface Surface, sched loop.Scheduler, delay time.Duration, handler func() error, done func(error)) (deferred bool, err error) {
	if vt, ok := surface.(ViewTransitioner); ok && vt.ViewTransitions() {
		t := GroupedTransition{Group: vt}
		t.Begin()
		err := t.Commit(handler)
		t.End()
		return false, err
	}

	t := FadeTransition{Surface: surface}
	t.Begin()
	sched.After(delay, func() {
		err := t.Commit(handler)
		t.End()
		done(err)
	})
	return true, nil
}
