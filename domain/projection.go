package domain

import "time"

// MessageProjection is the JSON document clients see, both in REST
// responses and inside websocket frames. Field names are part of the
// wire contract and must not change.
type MessageProjection struct {
	UUID      string   `json:"uuid"`
	Sender    *string  `json:"sender"`
	ChatRoom  string   `json:"chat_room"`
	Job       *string  `json:"job"`
	Content   *string  `json:"content"`
	File      *string  `json:"file"`
	Timestamp string   `json:"timestamp"`
	IsEdited  bool     `json:"is_edited"`
	IsViewed  bool     `json:"is_viewed"`
	ReadBy    []string `json:"read_by"`
}

func ToProjection(m Message) MessageProjection {
	var content *string
	if m.Content != "" {
		content = &m.Content
	}
	readBy := m.ReadBy
	if readBy == nil {
		readBy = []string{}
	}
	return MessageProjection{
		UUID:      m.ID.String(),
		Sender:    m.Sender,
		ChatRoom:  string(m.Room),
		Job:       m.Job,
		Content:   content,
		File:      m.File,
		Timestamp: m.Timestamp.UTC().Format(time.RFC3339Nano),
		IsEdited:  m.IsEdited,
		IsViewed:  m.IsViewed,
		ReadBy:    readBy,
	}
}
