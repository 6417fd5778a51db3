package loop

import (
	"sort"
	"time"
)

// Manual is a deterministic Scheduler driven by the caller: tasks run only
// inside RunPending or Advance, and time moves only through Advance.
// It is meant for tests of timer-driven sequences.
type Manual struct {
	queue  []func()
	timers []*manualTimer
	now    time.Duration
	seq    int
}

type manualTimer struct {
	at       time.Duration
	seq      int
	task     func()
	canceled bool
}

// NewManual creates a manual scheduler at virtual time zero.
func NewManual() *Manual {
	return &Manual{}
}

// Post implements Scheduler.
func (m *Manual) Post(task func()) {
	m.queue = append(m.queue, task)
}

// After implements Scheduler.
func (m *Manual) After(d time.Duration, task func()) func() {
	m.seq++
	t := &manualTimer{at: m.now + d, seq: m.seq, task: task}
	m.timers = append(m.timers, t)
	return func() { t.canceled = true }
}

// Now returns the virtual time elapsed since creation.
func (m *Manual) Now() time.Duration {
	return m.now
}

// Pending reports the number of queued tasks and live timers.
func (m *Manual) Pending() (tasks, timers int) {
	for _, t := range m.timers {
		if !t.canceled {
			timers++
		}
	}
	return len(m.queue), timers
}

// RunPending runs queued tasks, including ones they post, until the queue
// is empty. Timers are not fired.
func (m *Manual) RunPending() {
	for len(m.queue) > 0 {
		task := m.queue[0]
		m.queue = m.queue[1:]
		task()
	}
}

// Advance moves virtual time forward by d, firing due timers in order and
// draining the task queue before and after each one.
func (m *Manual) Advance(d time.Duration) {
	target := m.now + d
	m.RunPending()
	for {
		t := m.nextDue(target)
		if t == nil {
			break
		}
		m.now = t.at
		t.task()
		m.RunPending()
	}
	m.now = target
}

func (m *Manual) nextDue(target time.Duration) *manualTimer {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.canceled {
			live = append(live, t)
		}
	}
	m.timers = live
	if len(m.timers) == 0 {
		return nil
	}

	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].at != m.timers[j].at {
			return m.timers[i].at < m.timers[j].at
		}
		return m.timers[i].seq < m.timers[j].seq
	})
	first := m.timers[0]
	if first.at > target {
		return nil
	}
	m.timers = m.timers[1:]
	return first
}
