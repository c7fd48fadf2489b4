package notifications

import (
	"encoding/json"
	"time"
)

// Kind is the notification type reported by the server as notif_type.
type Kind string

const (
	KindNewQuest       Kind = "new_quest"
	KindQuestValidated Kind = "quest_validated"
	KindQuestRejected  Kind = "quest_rejected"
	KindPendingQuest   Kind = "pending_quest" // admin only
)

// Notification is a single record as returned by the list endpoints.
// Records are superseded wholesale on every refresh; the only local
// mutation is flipping Seen from false to true.
type Notification struct {
	ID          int64     `json:"id"`
	Kind        Kind      `json:"notif_type"`
	CreatedAt   time.Time `json:"created_at"`
	Seen        bool      `json:"seen"`
	QuestID     *int64    `json:"quest_id,omitempty"`
	RecipientID int64     `json:"recipient_id"`
	Title       string    `json:"title,omitempty"`
	Message     string    `json:"message,omitempty"`
}

// UnmarshalJSON accepts the recipient under user_id or admin_id, depending
// on which domain the record came from.
func (n *Notification) UnmarshalJSON(data []byte) error {
	type plain Notification
	var wire struct {
		plain
		UserID  *int64 `json:"user_id"`
		AdminID *int64 `json:"admin_id"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*n = Notification(wire.plain)
	switch {
	case wire.UserID != nil:
		n.RecipientID = *wire.UserID
	case wire.AdminID != nil:
		n.RecipientID = *wire.AdminID
	}
	return nil
}

// HasQuest reports whether the notification refers to a quest.
func (n Notification) HasQuest() bool {
	return n.QuestID != nil
}
