package ws

import (
	"encoding/json"
	"fmt"

	"gridchat/domain"
	"gridchat/domain/event"
)

// CloseUnauthorized is the close code sent before any join when the
// handshake token is missing, invalid or expired.
const CloseUnauthorized = 4001

const (
	frameTyping         = "typing"
	frameMessageRead    = "message_read"
	frameMessageCreated = "message_created"
	frameMessageUpdated = "message_updated"
	frameMessageDeleted = "message_deleted"
)

// inboundFrame is the union of everything a client may send. The
// transport does not allow custom headers mid-session, so every
// client signal travels as one of these JSON frames.
type inboundFrame struct {
	Type      string `json:"type"`
	Typing    *bool  `json:"typing,omitempty"`
	MessageID string `json:"message_id,omitempty"`
}

type messageFrame struct {
	Type    string                   `json:"type"`
	Message domain.MessageProjection `json:"message"`
}

type typingFrame struct {
	Type        string   `json:"type"`
	TypingUsers []string `json:"typing_users"`
}

type readFrame struct {
	Type      string `json:"type"`
	MessageID string `json:"message_id"`
	UserID    string `json:"user_id"`
}

type errorFrame struct {
	Error string `json:"error"`
}

// encodeEvent turns a chat event into its wire frame.
func encodeEvent(e event.ChatEvent) ([]byte, error) {
	switch evt := e.(type) {
	case event.MessageCreated:
		return json.Marshal(messageFrame{Type: frameMessageCreated, Message: evt.Message})
	case event.MessageUpdated:
		return json.Marshal(messageFrame{Type: frameMessageUpdated, Message: evt.Message})
	case event.MessageDeleted:
		return json.Marshal(messageFrame{Type: frameMessageDeleted, Message: evt.Message})
	case event.TypingChanged:
		users := evt.TypingUsers
		if users == nil {
			users = []string{}
		}
		return json.Marshal(typingFrame{Type: frameTyping, TypingUsers: users})
	case event.MessageRead:
		return json.Marshal(readFrame{Type: frameMessageRead, MessageID: evt.MessageID, UserID: evt.UserID})
	default:
		return nil, fmt.Errorf("no wire frame for event %T", e)
	}
}
