// Package router implements hash-based routing for a storyapp shell.
//
// The router provides:
//   - A route table of exact and single-level parameterized patterns
//   - Matching of the current hash fragment against the table
//   - Fallback navigation to a default route when nothing matches
//   - Page transitions around every dispatched handler
//
// # Patterns
//
// A pattern is a "/"-separated list of segments. A segment starting with ":"
// is a parameter and matches any value; every other segment must match
// literally:
//
//	/home         → matches "#/home" only
//	/story/:id    → matches "#/story/42", handler receives Params{"42"}
//
// A path matches a pattern only if both have the same number of segments.
// There are no wildcards, prefixes or trailing-slash rewrites.
//
// # Navigation
//
// Navigate writes the location; the handler runs later, when the location
// reports the change. Navigation never dispatches synchronously:
//
//	r := router.New(router.Config{Location: loc, Scheduler: l, Surface: s})
//	r.AddRoute("/story/:id", func(ctx context.Context, p router.Params) error {
//	    return controller.ShowPage(ctx, pages.StoryDetail, p...)
//	})
//	r.Init(ctx)
//	r.Navigate("/story/42")
//
// # Transitions
//
// When the surface can group updates into a single visual transition, the
// handler runs inside that group. Otherwise the router fades the surface
// out, waits for the transition delay, runs the handler and fades back in.
package router
