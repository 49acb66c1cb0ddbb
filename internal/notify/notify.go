package notify

import (
	"fmt"
	"sync"

	"okrboard/internal/model"
)

// Kind classifies a notification.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Notification is one user-visible message.
type Notification struct {
	Message string
	Kind    Kind
}

const historyLimit = 50

// Center collects user-visible notifications with a bounded history.
// Every mutating action pushes exactly one success or error message.
type Center struct {
	mu      sync.Mutex
	history []Notification
}

// Success records a success notification.
func (c *Center) Success(message string) {
	c.push(Notification{Message: message, Kind: KindSuccess})
}

// Error records an error notification.
func (c *Center) Error(message string) {
	c.push(Notification{Message: message, Kind: KindError})
}

func (c *Center) push(n Notification) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, n)
	if len(c.history) > historyLimit {
		c.history = c.history[len(c.history)-historyLimit:]
	}
}

// Last returns the most recent notification, if any.
func (c *Center) Last() (Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.history) == 0 {
		return Notification{}, false
	}
	return c.history[len(c.history)-1], true
}

// Recent returns up to n notifications, newest last.
func (c *Center) Recent(n int) []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n <= 0 || n > len(c.history) {
		n = len(c.history)
	}
	out := make([]Notification, n)
	copy(out, c.history[len(c.history)-n:])
	return out
}

// FormatOkrCreated formats the creation confirmation.
func FormatOkrCreated(objective string) string {
	return fmt.Sprintf("Team OKR %q created.", objective)
}

// FormatProgressRecorded formats a progress check-in confirmation.
func FormatProgressRecorded(krName string, value int) string {
	return fmt.Sprintf("Progress recorded for %q: %d%%.", krName, value)
}

// FormatHealthChanged formats a health-status change confirmation.
func FormatHealthChanged(objective string, health model.Health) string {
	return fmt.Sprintf("Health for %q set to %s.", objective, health)
}

// FormatOkrClosed formats the cycle-closure confirmation.
func FormatOkrClosed(objective string) string {
	return fmt.Sprintf("OKR %q closed with retrospective.", objective)
}
