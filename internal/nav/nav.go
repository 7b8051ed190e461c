// Package nav models the page-navigation side of the portal: where the
// caller currently "is", how a redirect is scheduled, and how the user is
// notified before the redirect lands. All three are small interfaces so the
// guard and gateway stay testable without timers or a real frontend.
package nav

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Location is the current page plus the ability to leave it. Replace is a
// full-page replace (no history entry); only the first executed Replace on a
// Location takes effect, which is what makes concurrent auth failures on the
// same page harmless.
type Location interface {
	Path() string
	Replace(url string)
}

// MemLocation is an in-process Location. The zero value sits on "/".
type MemLocation struct {
	mu      sync.Mutex
	path    string
	landed  bool
	current string
}

// NewMemLocation creates a MemLocation at path.
func NewMemLocation(path string) *MemLocation {
	return &MemLocation{path: path}
}

func (l *MemLocation) Path() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.path == "" {
		return "/"
	}
	return l.path
}

// Replace records the navigation target. Later calls are no-ops.
func (l *MemLocation) Replace(url string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.landed {
		return
	}
	l.landed = true
	l.current = url
}

// Replaced returns the URL the location navigated to, or "" if it never did.
func (l *MemLocation) Replaced() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// TaskHandle cancels a scheduled task. Cancel reports whether the task had
// not run yet.
type TaskHandle interface {
	Cancel() bool
}

// Scheduler runs a function after a delay. The delay exists so a pending
// notification can render before the page unloads, not for cancellation —
// but the handle is part of the contract so the ordering guarantee stays
// testable without real timers.
type Scheduler interface {
	After(d time.Duration, fn func()) TaskHandle
}

// TimerScheduler is the production Scheduler on top of time.AfterFunc.
type TimerScheduler struct{}

type timerHandle struct{ t *time.Timer }

func (h timerHandle) Cancel() bool { return h.t.Stop() }

func (TimerScheduler) After(d time.Duration, fn func()) TaskHandle {
	return timerHandle{t: time.AfterFunc(d, fn)}
}

// ManualScheduler is a Scheduler driven by an explicit clock, for tests.
type ManualScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	tasks []*manualTask
}

type manualTask struct {
	due       time.Duration
	fn        func()
	cancelled bool
	done      bool
}

func (t *manualTask) Cancel() bool {
	if t.done || t.cancelled {
		return false
	}
	t.cancelled = true
	return true
}

// NewManualScheduler creates a scheduler whose time only moves via Advance.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (s *ManualScheduler) After(d time.Duration, fn func()) TaskHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	task := &manualTask{due: s.now + d, fn: fn}
	s.tasks = append(s.tasks, task)
	return task
}

// Advance moves the clock forward and runs every due, uncancelled task in
// scheduling order.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var runnable []*manualTask
	for _, t := range s.tasks {
		if !t.done && !t.cancelled && t.due <= s.now {
			t.done = true
			runnable = append(runnable, t)
		}
	}
	s.mu.Unlock()

	for _, t := range runnable {
		t.fn()
	}
}

// Pending counts tasks that are scheduled but have neither run nor been
// cancelled.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tasks {
		if !t.done && !t.cancelled {
			n++
		}
	}
	return n
}

// NotifyKind classifies a notification.
type NotifyKind string

const (
	NotifyInfo  NotifyKind = "info"
	NotifyWarn  NotifyKind = "warn"
	NotifyError NotifyKind = "error"
)

// Notifier is the toast analogue: a short, user-visible message that must
// never block or fail the caller.
type Notifier interface {
	Notify(kind NotifyKind, title, message string)
}

// LogNotifier renders notifications through zerolog. This is what headless
// commands use instead of a toast.
type LogNotifier struct {
	Log zerolog.Logger
}

func (n LogNotifier) Notify(kind NotifyKind, title, message string) {
	ev := n.Log.Info()
	switch kind {
	case NotifyWarn:
		ev = n.Log.Warn()
	case NotifyError:
		ev = n.Log.Error()
	}
	ev.Str("title", title).Msg(message)
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(NotifyKind, string, string) {}
