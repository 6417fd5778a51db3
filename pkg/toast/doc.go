// Package toast sends notifications to the browser.
//
// The application shell talks to the browser over a WebSocket, so
// notifications are frames rather than DOM manipulation. The thin client
// renders each "toast" frame as an alert element (role="alert",
// aria-live="polite") and removes it after durationMs.
//
// Usage from a page or the shell:
//
//	if err := svc.Submit(ctx, ...); err != nil {
//	    toast.Error(conn, "Failed to add story")
//	    return err
//	}
//	toast.Success(conn, "Story added!")
package toast
