package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/storyapp/storyapp/pkg/app"
	"github.com/storyapp/storyapp/pkg/auth"
	"github.com/storyapp/storyapp/pkg/loop"
	"github.com/storyapp/storyapp/pkg/page"
	"github.com/storyapp/storyapp/pkg/pages"
	"github.com/storyapp/storyapp/pkg/router"
	"github.com/storyapp/storyapp/pkg/session"
)

// client is everything that lives for one connected tab.
type client struct {
	conn     *conn
	loop     *loop.Loop
	location *remoteLocation
	shell    *app.Shell
	session  *session.Session
}

// HandleWebSocket upgrades the request and runs an application shell for
// the tab until it disconnects.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	cookieID := s.clientID(r)
	sess, err := s.deps.Sessions.Open(r.Context(), cookieID)
	if err != nil {
		s.logger.Error("session open failed", "error", err)
		http.Error(w, "session unavailable", http.StatusServiceUnavailable)
		return
	}

	var header http.Header
	if sess.ID() != cookieID {
		header = http.Header{"Set-Cookie": {s.clientCookie(sess.ID()).String()}}
	}
	ws, err := s.upgrader.Upgrade(w, r, header)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	logger := s.logger.With("session_id", sess.ID())
	ws.SetReadLimit(s.cfg.MaxMessageSize)
	ws.SetReadDeadline(time.Now().Add(s.cfg.HandshakeTimeout))

	_, data, err := ws.ReadMessage()
	if err != nil {
		logger.Debug("handshake read failed", "error", err)
		ws.Close()
		return
	}
	hello, err := decodeMessage(data)
	if err != nil || hello.Type != msgHello {
		logger.Warn("handshake rejected", "error", err, "type", hello.Type)
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "hello expected")
		ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		ws.Close()
		return
	}

	c := s.newClient(ws, sess, hello)
	s.track(c.conn)
	defer s.untrack(c.conn)

	logger.Info("client connected", "fragment", hello.Fragment, "view_transitions", hello.ViewTransitions)
	s.serve(c, hello)
	logger.Info("client disconnected", "frames_sent", c.conn.framesSent.Load())
}

func (s *Server) newClient(ws *websocket.Conn, sess *session.Session, hello message) *client {
	logger := s.logger.With("session_id", sess.ID())
	c := &client{
		conn:    newConn(ws, s.cfg, logger),
		loop:    loop.New(logger),
		session: sess,
	}
	c.conn.viewTransitions.Store(hello.ViewTransitions)
	c.location = newRemoteLocation(c.loop, c.conn.send, hello.Fragment)

	cfg := app.Config{
		Location:        c.location,
		Scheduler:       c.loop,
		Surface:         c.conn,
		Client:          c.conn,
		Stories:         s.deps.Stories,
		Auth:            auth.NewModel(sess, s.deps.Accounts, auth.WithLogger(logger)),
		Owner:           sess.ID(),
		Photos:          s.deps.Photos,
		Prefs:           sess,
		Markup:          s.deps.Markup,
		TransitionDelay: s.cfg.TransitionDelay,
		Logger:          logger,
	}
	if m := s.deps.Metrics; m != nil {
		cfg.RouteObserver = router.Observer(m)
		cfg.PageObserver = page.Observer(m)
	}
	c.shell = app.New(cfg)
	return c
}

// serve runs the tab's loop and relays its messages until the connection
// drops. The shell is shut down and the session saved on the way out.
func (s *Server) serve(c *client, hello message) {
	ctx, cancel := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		c.loop.Run(ctx)
	}()
	go c.conn.writeLoop()

	s.post(ctx, c, func() {
		c.shell.Start(ctx)
		if !hello.Online {
			c.shell.Offline()
		}
	})
	c.location.load()

	s.readLoop(ctx, c)

	cancel()
	<-loopDone
	c.conn.close()
	c.shell.Shutdown()
	s.saveSession(context.Background(), c)
}

// readLoop relays client messages onto the tab's loop.
func (s *Server) readLoop(ctx context.Context, c *client) {
	ws := c.conn.ws
	ws.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.conn.logger.Error("read error", "error", err)
			}
			return
		}
		ws.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))

		msg, err := decodeMessage(data)
		if err != nil {
			c.conn.logger.Warn("message decode error", "error", err)
			continue
		}
		s.dispatch(ctx, c, msg)
	}
}

// dispatch turns a client message into a task on the tab's loop.
func (s *Server) dispatch(ctx context.Context, c *client, msg message) {
	switch msg.Type {
	case msgHashChange:
		c.location.visit(msg.Fragment)
	case msgAction:
		s.post(ctx, c, func() {
			err := c.shell.HandleAction(ctx, msg.Action)
			if err != nil && !errors.Is(err, context.Canceled) {
				c.conn.logger.Warn("action failed", "action", msg.Action.Name, "error", err)
			}
		})
	case msgOnline:
		s.post(ctx, c, func() { c.shell.Online(ctx) })
	case msgSync:
		s.post(ctx, c, func() { c.shell.Sync(ctx) })
	case msgOffline:
		s.post(ctx, c, c.shell.Offline)
	case msgUpdateAvailable:
		s.post(ctx, c, c.shell.UpdateAvailable)
	case msgInstalled:
		s.post(ctx, c, c.shell.Installed)
	case msgHello:
		c.conn.logger.Debug("duplicate hello ignored")
	default:
		c.conn.logger.Warn("unknown message type", "type", msg.Type)
	}
}

// post queues task on the tab's loop and persists the session afterwards
// if the task changed it.
func (s *Server) post(ctx context.Context, c *client, task func()) {
	c.loop.Post(func() {
		task()
		if c.session.Dirty() {
			s.saveSession(ctx, c)
		}
	})
}

func (s *Server) saveSession(ctx context.Context, c *client) {
	if !c.session.Dirty() {
		return
	}
	if err := s.deps.Sessions.Save(ctx, c.session); err != nil {
		c.conn.logger.Error("session save failed", "error", err)
	}
}

var (
	_ pages.Screen            = (*conn)(nil)
	_ router.Surface          = (*conn)(nil)
	_ router.ViewTransitioner = (*conn)(nil)
	_ router.Location         = (*remoteLocation)(nil)
)
