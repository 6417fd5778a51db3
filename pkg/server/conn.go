package server

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/storyapp/storyapp/pkg/router"
)

// conn is the server side of one browser tab. It is the render target of
// the tab's application shell: screen, frame emitter and transition
// surface.
type conn struct {
	ws     *websocket.Conn
	cfg    *Config
	logger *slog.Logger

	out       chan []byte
	done      chan struct{}
	closeOnce sync.Once

	viewTransitions atomic.Bool
	framesSent      atomic.Int64
}

func newConn(ws *websocket.Conn, cfg *Config, logger *slog.Logger) *conn {
	return &conn{
		ws:     ws,
		cfg:    cfg,
		logger: logger,
		out:    make(chan []byte, cfg.SendBuffer),
		done:   make(chan struct{}),
	}
}

// send queues f for the write loop. Frames sent after close are dropped.
func (c *conn) send(f frame) {
	data, err := json.Marshal(f)
	if err != nil {
		c.logger.Error("frame encode error", "type", f.Type, "error", err)
		return
	}
	select {
	case c.out <- data:
	case <-c.done:
	}
}

// SetContent implements pages.Screen.
func (c *conn) SetContent(html template.HTML) {
	c.send(frame{Type: frameHTML, Data: string(html)})
}

// Emit implements toast.Emitter.
func (c *conn) Emit(name string, data any) {
	c.send(frame{Type: name, Data: data})
}

// SetStyle implements router.Surface.
func (c *conn) SetStyle(style router.Style) {
	c.send(frame{Type: frameStyle, Data: newStyleData(style)})
}

// ViewTransitions implements router.ViewTransitioner. The tab announces
// support in its hello.
func (c *conn) ViewTransitions() bool {
	return c.viewTransitions.Load()
}

// StartViewTransition implements router.ViewTransitioner. The tab applies
// every frame between the start and end markers in one view transition.
func (c *conn) StartViewTransition(fn func() error) error {
	c.send(frame{Type: frameTransitionStart})
	defer c.send(frame{Type: frameTransitionEnd})
	return fn()
}

// writeLoop writes queued frames and heartbeat pings until the connection
// is closed or a write fails.
func (c *conn) writeLoop() {
	ticker := time.NewTicker(c.cfg.HeartbeatInterval)
	defer ticker.Stop()
	defer c.close()

	for {
		select {
		case data := <-c.out:
			c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Debug("write error", "error", err)
				return
			}
			c.framesSent.Add(1)

		case <-ticker.C:
			deadline := time.Now().Add(c.cfg.WriteTimeout)
			if err := c.ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				c.logger.Debug("ping error", "error", err)
				return
			}

		case <-c.done:
			return
		}
	}
}

// close releases the connection. It is safe to call more than once.
func (c *conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.ws.Close()
	})
}

// goingAway tells the tab the server is shutting down, then closes.
func (c *conn) goingAway() {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	c.close()
}
