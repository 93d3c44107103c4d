// Package event defines the typed notifications fanned out to the
// live connections of a room.
package event

import "gridchat/domain"

type ChatEvent interface {
	RoomID() domain.RoomID
}

type MessageCreated struct {
	Message domain.MessageProjection
}

func (e MessageCreated) RoomID() domain.RoomID {
	return domain.RoomID(e.Message.ChatRoom)
}

type MessageUpdated struct {
	Message domain.MessageProjection
}

func (e MessageUpdated) RoomID() domain.RoomID {
	return domain.RoomID(e.Message.ChatRoom)
}

// MessageDeleted carries the pre-delete snapshot of the message.
type MessageDeleted struct {
	Message domain.MessageProjection
}

func (e MessageDeleted) RoomID() domain.RoomID {
	return domain.RoomID(e.Message.ChatRoom)
}

type MessageRead struct {
	Room      domain.RoomID
	MessageID string
	UserID    string
}

func (e MessageRead) RoomID() domain.RoomID {
	return e.Room
}

// TypingChanged carries the full current typing set of the room, not
// a delta: late or dropped frames then never leave a stale indicator.
type TypingChanged struct {
	Room        domain.RoomID
	TypingUsers []string
}

func (e TypingChanged) RoomID() domain.RoomID {
	return e.Room
}
