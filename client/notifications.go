package client

import (
	"sync"
	"time"
)

type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// DefaultNotificationDuration is how long a toast stays when no duration is given.
const DefaultNotificationDuration = 3 * time.Second

type Notification struct {
	ID       uint64
	Message  string
	Kind     Kind
	Duration time.Duration
}

// Notifications is a list of transient messages. Entries with a positive
// duration remove themselves once it elapses.
type Notifications struct {
	mu     sync.Mutex
	nextID uint64
	items  []Notification
	timers map[uint64]*time.Timer
}

func NewNotifications() *Notifications {
	return &Notifications{timers: map[uint64]*time.Timer{}}
}

// Add appends a notification and returns its id.
func (n *Notifications) Add(message string, kind Kind, duration time.Duration) uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID
	n.items = append(n.items, Notification{ID: id, Message: message, Kind: kind, Duration: duration})
	if duration > 0 {
		n.timers[id] = time.AfterFunc(duration, func() { n.Remove(id) })
	}
	return id
}

func (n *Notifications) Success(message string) uint64 {
	return n.Add(message, KindSuccess, DefaultNotificationDuration)
}

func (n *Notifications) Error(message string) uint64 {
	return n.Add(message, KindError, DefaultNotificationDuration)
}

func (n *Notifications) Info(message string) uint64 {
	return n.Add(message, KindInfo, DefaultNotificationDuration)
}

func (n *Notifications) Warning(message string) uint64 {
	return n.Add(message, KindWarning, DefaultNotificationDuration)
}

// Remove drops the notification; unknown ids are ignored.
func (n *Notifications) Remove(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if t, ok := n.timers[id]; ok {
		t.Stop()
		delete(n.timers, id)
	}
	for i, item := range n.items {
		if item.ID == id {
			n.items = append(n.items[:i], n.items[i+1:]...)
			return
		}
	}
}

func (n *Notifications) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for id, t := range n.timers {
		t.Stop()
		delete(n.timers, id)
	}
	n.items = nil
}

// List returns a snapshot in insertion order.
func (n *Notifications) List() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.items...)
}
