package toast

import "time"

// EventName is the frame type used for notifications.
// The browser client renders one alert element per frame.
const EventName = "toast"

// DefaultDuration is how long the client shows a notification.
const DefaultDuration = 5 * time.Second

// Type represents the notification type.
type Type string

const (
	TypeSuccess Type = "success"
	TypeError   Type = "error"
	TypeWarning Type = "warning"
	TypeInfo    Type = "info"
)

// Emitter sends a named frame to the client.
type Emitter interface {
	Emit(name string, data any)
}

// Toast is the frame payload.
type Toast struct {
	Level       Type   `json:"level"`
	Message     string `json:"message"`
	Title       string `json:"title,omitempty"`
	ActionLabel string `json:"actionLabel,omitempty"`
	ActionID    string `json:"actionID,omitempty"`
	DurationMs  int64  `json:"durationMs"`
}

// Show displays a notification.
//
// The client receives a frame with:
//   - type = "toast"
//   - data = { level: "success|error|warning|info", message: "...", durationMs: 5000 }
func Show(e Emitter, level Type, message string) {
	Send(e, Toast{Level: level, Message: message})
}

// Success shows a success notification.
//
//	toast.Success(conn, "Story added!")
func Success(e Emitter, message string) {
	Show(e, TypeSuccess, message)
}

// Error shows an error notification.
func Error(e Emitter, message string) {
	Show(e, TypeError, message)
}

// Warning shows a warning notification.
//
//	toast.Warning(conn, "You're offline. Some features may be limited.")
func Warning(e Emitter, message string) {
	Show(e, TypeWarning, message)
}

// Info shows an info notification.
func Info(e Emitter, message string) {
	Show(e, TypeInfo, message)
}

// WithAction shows a notification with an action button. Clicking it
// sends actionID back as an action.
//
//	toast.WithAction(conn, toast.TypeInfo, "A new version is available!", "Update Now", "reload")
func WithAction(e Emitter, level Type, message, actionLabel, actionID string) {
	Send(e, Toast{Level: level, Message: message, ActionLabel: actionLabel, ActionID: actionID})
}

// Send emits t, filling in the default duration.
func Send(e Emitter, t Toast) {
	if e == nil {
		return
	}
	if t.DurationMs == 0 {
		t.DurationMs = DefaultDuration.Milliseconds()
	}
	e.Emit(EventName, t)
}
