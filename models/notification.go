package models

import (
	"encoding/json"
	"time"
)

// NotificationType categorizes a notification for display/filtering.
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

// Notification is one message emitted by the trade manager's notification
// port. The port itself is fire-and-forget (spec §6); persistence is an
// ambient convenience so an operator can read the feed back later.
type Notification struct {
	ID        string           `db:"id"`
	Type      NotificationType `db:"type"`
	Message   string           `db:"message"`
	CreatedAt time.Time        `db:"created_at"`

	Metadata     map[string]interface{} `db:"-"`
	MetadataJSON string                 `db:"metadata"`
}

// PrepareForSave serializes Metadata into MetadataJSON ahead of a write.
func (n *Notification) PrepareForSave() error {
	if n.Metadata == nil {
		n.MetadataJSON = "{}"
		return nil
	}
	b, err := json.Marshal(n.Metadata)
	if err != nil {
		return err
	}
	n.MetadataJSON = string(b)
	return nil
}

// PostLoad deserializes MetadataJSON back into Metadata after a read.
func (n *Notification) PostLoad() error {
	if n.MetadataJSON == "" {
		n.Metadata = map[string]interface{}{}
		return nil
	}
	return json.Unmarshal([]byte(n.MetadataJSON), &n.Metadata)
}
