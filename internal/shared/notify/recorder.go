package notify

import (
	"context"
	"sync"
)

// Recorder is a synchronous in-memory sink for tests and local runs.
type Recorder struct {
	mu            sync.Mutex
	notifications []Notification
	emails        []Email
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) CreateNotification(_ context.Context, notification Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, notification)
	return nil
}

func (r *Recorder) SendEmail(_ context.Context, email Email) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emails = append(r.emails, email)
	return nil
}

func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notifications...)
}

func (r *Recorder) Emails() []Email {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Email(nil), r.emails...)
}

// Reset drops everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = nil
	r.emails = nil
}

// NotificationsFor filters recorded notifications by recipient.
func (r *Recorder) NotificationsFor(userID string) []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}
