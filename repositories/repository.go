//go:generate go run go.uber.org/mock/mockgen -source=repository.go -destination=../mocks/mock_repositories.go -package=mocks
package repositories

import (
	"github.com/google/uuid"

	"gridchat/domain"
)

type RoomStore interface {
	StoreRoom(room domain.Room) error
	GetRoom(id domain.RoomID) (domain.Room, error)
}

// MessageStore is the persistence façade the chat core depends on.
// MarkRead is monotonic: re-adding a reader is a no-op and readers are
// never removed. DeleteMessage returns the pre-delete snapshot so the
// deletion event can still carry the full projection.
type MessageStore interface {
	StoreMessage(m domain.Message) error
	GetMessage(id uuid.UUID) (domain.Message, error)
	UpdateMessage(m domain.Message) error
	DeleteMessage(id uuid.UUID) (domain.Message, error)
	MarkRead(id uuid.UUID, userID string) (domain.Message, bool, error)
	ListMessages(room domain.RoomID, cursor *string) ([]domain.Message, *string, error)
}
