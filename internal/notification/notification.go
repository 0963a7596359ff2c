package notification

import (
	"time"

	"github.com/rs/zerolog"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	NotifyAlert NotificationType = "alert"
	NotifyError NotificationType = "error"
	NotifyInfo  NotificationType = "info"
)

// Notification represents a notification message
type Notification struct {
	Type      NotificationType
	Title     string
	Message   string
	Symbol    string
	Timestamp time.Time
}

// Notifier interface for different notification providers
type Notifier interface {
	Send(notification *Notification) error
	Name() string
	IsEnabled() bool
}

// Manager manages multiple notification providers
type Manager struct {
	notifiers []Notifier
	enabled   bool
	log       zerolog.Logger
}

// NewManager creates a new notification manager
func NewManager(enabled bool, logger zerolog.Logger) *Manager {
	return &Manager{
		notifiers: make([]Notifier, 0),
		enabled:   enabled,
		log:       logger.With().Str("component", "notification").Logger(),
	}
}

// AddNotifier adds a notification provider
func (m *Manager) AddNotifier(n Notifier) {
	m.notifiers = append(m.notifiers, n)
}

// Send sends a notification to all enabled providers. Provider failures are
// logged and the last one returned; one broken channel never blocks the rest.
func (m *Manager) Send(notification *Notification) error {
	if !m.enabled {
		return nil
	}

	var lastErr error
	for _, n := range m.notifiers {
		if !n.IsEnabled() {
			continue
		}
		if err := n.Send(notification); err != nil {
			m.log.Error().Err(err).Str("provider", n.Name()).Msg("notification send failed")
			lastErr = err
		}
	}
	return lastErr
}

// SendError sends an error notification
func (m *Manager) SendError(title, message string) error {
	return m.Send(&Notification{
		Type:      NotifyError,
		Title:     "⚠️ " + title,
		Message:   message,
		Timestamp: time.Now(),
	})
}

// SendInfo sends an informational notification
func (m *Manager) SendInfo(title, message string) error {
	return m.Send(&Notification{
		Type:      NotifyInfo,
		Title:     title,
		Message:   message,
		Timestamp: time.Now(),
	})
}
