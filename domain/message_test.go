package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func TestMessage_HasBody(t *testing.T) {
	req := require.New(t)

	req.False(Message{}.HasBody())
	req.True(Message{Content: "hello"}.HasBody())
	req.True(Message{File: lo.ToPtr("chat_files/a.pdf")}.HasBody())
	req.True(Message{Content: "hello", File: lo.ToPtr("chat_files/a.pdf")}.HasBody())
}

func TestMessage_IsSentBy(t *testing.T) {
	req := require.New(t)

	message := Message{Sender: lo.ToPtr("recruiter-1")}
	req.True(message.IsSentBy("recruiter-1"))
	req.False(message.IsSentBy("candidate-1"))

	// A message whose account was deleted belongs to nobody
	orphan := Message{Sender: nil}
	req.False(orphan.IsSentBy("recruiter-1"))
	req.False(orphan.IsSentBy(""))
}

func TestMessage_IsReadBy(t *testing.T) {
	req := require.New(t)

	message := Message{ReadBy: []string{"candidate-1"}}
	req.True(message.IsReadBy("candidate-1"))
	req.False(message.IsReadBy("recruiter-1"))
	req.False(Message{}.IsReadBy("candidate-1"))
}

func TestToProjection(t *testing.T) {
	req := require.New(t)

	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	message := Message{
		ID:        uuid.New(),
		Room:      "room-42",
		Sender:    lo.ToPtr("recruiter-1"),
		Job:       lo.ToPtr("job-7"),
		Content:   "hello",
		Timestamp: at,
		IsEdited:  true,
		ReadBy:    []string{"candidate-1"},
	}

	p := ToProjection(message)
	req.Equal(message.ID.String(), p.UUID)
	req.Equal("recruiter-1", *p.Sender)
	req.Equal("room-42", p.ChatRoom)
	req.Equal("job-7", *p.Job)
	req.Equal(at.Format(time.RFC3339Nano), p.Timestamp)
	req.True(p.IsEdited)
	req.Equal([]string{"candidate-1"}, p.ReadBy)
}

func TestRoom_IsMember(t *testing.T) {
	req := require.New(t)

	room := Room{ID: "room-42", Recruiter: "recruiter-1", Clients: []string{"recruiter-1", "candidate-1"}}
	req.True(room.IsMember("candidate-1"))
	req.True(room.IsMember("recruiter-1"))
	req.False(room.IsMember("stranger"))
}
