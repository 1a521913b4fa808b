// Package notifications is the fire-and-forget notification port: it
// persists a feed for later inspection and, if a realtime manager is
// wired in, broadcasts each message to connected websocket clients.
package notifications

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/alexherrero/tradekeeper/models"
	"github.com/alexherrero/tradekeeper/realtime"
	"github.com/alexherrero/tradekeeper/store"
)

// Manager sends notifications. A nil store is a valid null sink: Send
// still broadcasts over websocket (if wired) but does not persist —
// used by tests and CLI one-shot invocations that don't want a feed
// history.
type Manager struct {
	store     *store.NotificationStore
	wsManager *realtime.WebSocketManager
}

// NewManager builds a notification manager. store may be nil for a
// null persistence sink; wsManager may be nil to skip realtime fan-out.
func NewManager(notificationStore *store.NotificationStore, wsManager *realtime.WebSocketManager) *Manager {
	return &Manager{store: notificationStore, wsManager: wsManager}
}

// Send creates, persists (if a store is wired) and broadcasts a
// notification. Failures are logged, never returned: the notification
// port must be non-blocking relative to the trade loop's correctness.
func (m *Manager) Send(kind models.NotificationType, message string, metadata map[string]interface{}) {
	n := models.Notification{
		ID:        uuid.NewString(),
		Type:      kind,
		Message:   message,
		CreatedAt: time.Now(),
		Metadata:  metadata,
	}

	if m.store != nil {
		if err := m.store.Save(n); err != nil {
			log.Error().Err(err).Msg("failed to persist notification")
		}
	}

	if m.wsManager != nil {
		m.wsManager.Broadcast("notification", n)
	}
}

// History returns recent notifications, newest first. Returns an
// error if no store was wired.
func (m *Manager) History(limit, offset int) ([]models.Notification, error) {
	if m.store == nil {
		return nil, fmt.Errorf("no notification store configured")
	}
	return m.store.Recent(limit, offset)
}

func (m *Manager) Info(message string, metadata map[string]interface{}) {
	m.Send(models.NotificationInfo, message, metadata)
}

func (m *Manager) Success(message string, metadata map[string]interface{}) {
	m.Send(models.NotificationSuccess, message, metadata)
}

func (m *Manager) Warning(message string, metadata map[string]interface{}) {
	m.Send(models.NotificationWarning, message, metadata)
}

func (m *Manager) Error(message string, metadata map[string]interface{}) {
	m.Send(models.NotificationError, message, metadata)
}
