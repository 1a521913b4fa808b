package store

import (
	"fmt"
	"time"

	"github.com/alexherrero/tradekeeper/models"
)

// NotificationStore persists the notification feed so an operator can
// read it back after a restart. The notification port itself (see the
// notifications package) is fire-and-forget; this is purely ambient
// convenience.
type NotificationStore struct {
	db *DB
}

// NewNotificationStore builds a NotificationStore over an open connection.
func NewNotificationStore(db *DB) *NotificationStore {
	return &NotificationStore{db: db}
}

// Save persists a notification, serializing its metadata map.
func (s *NotificationStore) Save(n models.Notification) error {
	if err := n.PrepareForSave(); err != nil {
		return fmt.Errorf("metadata serialization failed: %w", err)
	}
	query := `INSERT INTO notifications (id, type, message, created_at, metadata)
		VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.Exec(query, n.ID, n.Type, n.Message, n.CreatedAt, n.MetadataJSON); err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}

// Recent returns the most recent notifications, newest first.
func (s *NotificationStore) Recent(limit, offset int) ([]models.Notification, error) {
	var notifications []models.Notification
	query := `SELECT id, type, message, created_at, metadata
		FROM notifications
		ORDER BY created_at DESC
		LIMIT ? OFFSET ?`
	if err := s.db.Select(&notifications, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}
	for i := range notifications {
		if err := notifications[i].PostLoad(); err != nil {
			notifications[i].Metadata = map[string]interface{}{}
		}
	}
	return notifications, nil
}

// DeleteOlderThan prunes notifications older than d, keeping the feed
// from growing without bound.
func (s *NotificationStore) DeleteOlderThan(d time.Duration) error {
	cutoff := time.Now().Add(-d)
	_, err := s.db.Exec(`DELETE FROM notifications WHERE created_at < ?`, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune notifications: %w", err)
	}
	return nil
}
