package server

import (
	"errors"

	"github.com/tidwall/gjson"

	"github.com/storyapp/storyapp/pkg/pages"
	"github.com/storyapp/storyapp/pkg/router"
)

// Server to client frame types. Toast, nav, map and theme frames use the
// names defined by their packages.
const (
	frameHTML            = "html"
	frameStyle           = "style"
	frameNavigate        = "navigate"
	frameTransitionStart = "transition-start"
	frameTransitionEnd   = "transition-end"
)

// Client to server message types.
const (
	msgHello           = "hello"
	msgHashChange      = "hashchange"
	msgAction          = "action"
	msgOnline          = "online"
	msgOffline         = "offline"
	msgSync            = "sync"
	msgUpdateAvailable = "update-available"
	msgInstalled       = "installed"
)

var errInvalidMessage = errors.New("server: invalid client message")

// frame is a server to client message: {"type": ..., "data": ...}.
type frame struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type styleData struct {
	Opacity float64 `json:"opacity"`
	OffsetY int     `json:"offsetY"`
	Animate bool    `json:"animate"`
}

func newStyleData(s router.Style) styleData {
	return styleData{Opacity: s.Opacity, OffsetY: s.OffsetY, Animate: s.Animate}
}

type navigateData struct {
	Fragment string `json:"fragment"`
	Replace  bool   `json:"replace,omitempty"`
}

// message is a decoded client to server message.
type message struct {
	Type            string
	Fragment        string
	ViewTransitions bool
	Online          bool
	Action          pages.Action
}

// decodeMessage parses a client message such as
//
//	{"type":"hello","fragment":"#/home","viewTransitions":true,"online":true}
//	{"type":"action","name":"open-story","values":{"id":"42"}}
func decodeMessage(data []byte) (message, error) {
	if !gjson.ValidBytes(data) {
		return message{}, errInvalidMessage
	}
	r := gjson.ParseBytes(data)
	m := message{
		Type:            r.Get("type").String(),
		Fragment:        r.Get("fragment").String(),
		ViewTransitions: r.Get("viewTransitions").Bool(),
		Online:          true,
	}
	if online := r.Get("online"); online.Exists() {
		m.Online = online.Bool()
	}

	switch m.Type {
	case "":
		return message{}, errInvalidMessage
	case msgAction:
		m.Action.Name = r.Get("name").String()
		if m.Action.Name == "" {
			return message{}, errInvalidMessage
		}
		if values := r.Get("values"); values.IsObject() {
			m.Action.Values = make(map[string]string)
			values.ForEach(func(k, v gjson.Result) bool {
				m.Action.Values[k.String()] = v.String()
				return true
			})
		}
	}
	return m, nil
}
