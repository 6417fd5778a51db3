package server

import (
	"sort"
	"sync"

	"github.com/storyapp/storyapp/pkg/loop"
	"github.com/storyapp/storyapp/pkg/router"
)

// remoteLocation mirrors the hash fragment of a browser tab. Writes are
// forwarded to the tab as navigate frames; the tab reports user-driven
// changes (links, back/forward, typing) which arrive through visit.
type remoteLocation struct {
	sched loop.Scheduler
	send  func(frame)

	mu        sync.Mutex
	fragment  string
	listeners map[int]func(router.EventKind)
	nextID    int
}

func newRemoteLocation(sched loop.Scheduler, send func(frame), initial string) *remoteLocation {
	return &remoteLocation{
		sched:     sched,
		send:      send,
		fragment:  initial,
		listeners: make(map[int]func(router.EventKind)),
	}
}

// Fragment implements router.Location.
func (l *remoteLocation) Fragment() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fragment
}

// SetFragment implements router.Location.
func (l *remoteLocation) SetFragment(fragment string, replace bool) {
	l.mu.Lock()
	l.fragment = fragment
	l.mu.Unlock()
	l.send(frame{Type: frameNavigate, Data: navigateData{Fragment: fragment, Replace: replace}})
	l.emit(router.EventChange)
}

// Subscribe implements router.Location.
func (l *remoteLocation) Subscribe(fn func(router.EventKind)) func() {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.listeners[id] = fn
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.listeners, id)
		l.mu.Unlock()
	}
}

// load reports the document load.
func (l *remoteLocation) load() {
	l.emit(router.EventLoad)
}

// visit records a fragment change made in the tab.
func (l *remoteLocation) visit(fragment string) {
	l.mu.Lock()
	l.fragment = fragment
	l.mu.Unlock()
	l.emit(router.EventChange)
}

func (l *remoteLocation) emit(kind router.EventKind) {
	l.sched.Post(func() {
		l.mu.Lock()
		ids := make([]int, 0, len(l.listeners))
		for id := range l.listeners {
			ids = append(ids, id)
		}
		l.mu.Unlock()

		sort.Ints(ids)
		for _, id := range ids {
			l.mu.Lock()
			fn, ok := l.listeners[id]
			l.mu.Unlock()
			if ok {
				fn(kind)
			}
		}
	})
}
