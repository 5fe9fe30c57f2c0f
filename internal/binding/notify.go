package binding

import (
	"fmt"
	"io"
	"sync"
)

// NotificationType distinguishes confirmation from failure notifications.
type NotificationType string

// Notification types.
const (
	NotifySuccess NotificationType = "success"
	NotifyFailure NotificationType = "failure"
)

// Notification is a transient message for the user.
type Notification struct {
	Message string           `json:"message"`
	Type    NotificationType `json:"type"`
}

// Notifier presents notifications.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(n Notification)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notification) { f(n) }

// Navigator receives the redirect-to-login signal raised on a 401.
type Navigator interface {
	RedirectToLogin()
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func()

// RedirectToLogin calls f().
func (f NavigatorFunc) RedirectToLogin() { f() }

// Snackbar holds the most recent notification and optionally echoes each one
// to a writer.
//
// Thread Safety: Safe for concurrent use by multiple goroutines.
type Snackbar struct {
	mu      sync.Mutex
	out     io.Writer
	current *Notification
	count   int
}

// NewSnackbar creates a Snackbar. A nil out keeps notifications in memory only.
func NewSnackbar(out io.Writer) *Snackbar {
	return &Snackbar{out: out}
}

// Notify replaces the current notification.
func (s *Snackbar) Notify(n Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &n
	s.count++
	if s.out == nil {
		return
	}
	mark := "✓"
	if n.Type == NotifyFailure {
		mark = "✗"
	}
	fmt.Fprintf(s.out, "%s %s\n", mark, n.Message)
}

// Current returns the notification on display, if any.
func (s *Snackbar) Current() (Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Notification{}, false
	}
	return *s.current, true
}

// Close dismisses the current notification.
func (s *Snackbar) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
}

// Count returns how many notifications have been shown.
func (s *Snackbar) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}
