package core

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// NotificationKind is the banner colour of a notification.
type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
)

// Notification is a transient operator message.
type Notification struct {
	Kind      NotificationKind `json:"type"`
	Message   string           `json:"message"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// Notifier receives one notification per workflow outcome.
type Notifier interface {
	Notify(kind NotificationKind, message string)
}

// NotificationLog keeps notifications until they expire and mirrors them to
// the logger.
type NotificationLog struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	items  []Notification
	logger *zap.Logger
}

// NewNotificationLog returns a log whose entries expire after ttl.
func NewNotificationLog(ttl time.Duration, logger *zap.Logger) *NotificationLog {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationLog{ttl: ttl, now: time.Now, logger: logger}
}

// Notify records a notification.
func (l *NotificationLog) Notify(kind NotificationKind, message string) {
	if kind == NotifyError {
		l.logger.Warn("notification", zap.String("message", message))
	} else {
		l.logger.Info("notification", zap.String("message", message))
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append(l.items, Notification{Kind: kind, Message: message, ExpiresAt: l.now().Add(l.ttl)})
}

// Active returns the notifications that have not expired yet and drops the
// rest.
func (l *NotificationLog) Active() []Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	kept := l.items[:0]
	for _, n := range l.items {
		if now.Before(n.ExpiresAt) {
			kept = append(kept, n)
		}
	}
	l.items = kept
	return append([]Notification(nil), kept...)
}
