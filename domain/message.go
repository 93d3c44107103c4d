package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Message is a persisted chat entry. Sender is nil when the sending
// account has been deleted. A message carries content, a file
// reference, or both; never neither.
type Message struct {
	ID        uuid.UUID
	Room      RoomID
	Sender    *string
	Job       *string
	Content   string
	File      *string
	Timestamp time.Time
	IsEdited  bool
	IsViewed  bool
	ReadBy    []string
}

func (m Message) HasBody() bool {
	return m.Content != "" || m.File != nil
}

func (m Message) IsReadBy(userID string) bool {
	return slices.Contains(m.ReadBy, userID)
}

// IsSentBy reports whether userID authored the message. A message
// whose sender was deleted belongs to nobody.
func (m Message) IsSentBy(userID string) bool {
	return m.Sender != nil && *m.Sender == userID
}
