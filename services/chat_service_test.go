package services_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"gridchat/dispatch"
	"gridchat/domain"
	"gridchat/domain/event"
	gcerrors "gridchat/errors"
	"gridchat/mocks"
	"gridchat/moderation"
	"gridchat/services"
)

type serviceFixture struct {
	rooms       *mocks.MockRoomStore
	messages    *mocks.MockMessageStore
	broadcaster *mocks.MockBroadcaster
	service     *services.ChatService
}

func newFixture(t *testing.T) serviceFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	rooms := mocks.NewMockRoomStore(ctrl)
	messages := mocks.NewMockMessageStore(ctrl)
	broadcaster := mocks.NewMockBroadcaster(ctrl)

	moderator, err := moderation.NewModerator([]string{"scam"}, '*')
	require.NoError(t, err)

	log := slog.Default()
	dispatcher := dispatch.NewDispatcher(log, broadcaster, messages)
	return serviceFixture{
		rooms:       rooms,
		messages:    messages,
		broadcaster: broadcaster,
		service:     services.NewChatService(log, rooms, messages, moderator, dispatcher),
	}
}

var testRoom = domain.Room{
	ID:        "room-42",
	Recruiter: "recruiter-1",
	Clients:   []string{"recruiter-1", "candidate-1"},
}

func TestChatService_CreateMessage(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)

	f.rooms.EXPECT().GetRoom(domain.RoomID("room-42")).Return(testRoom, nil)

	var stored domain.Message
	f.messages.EXPECT().StoreMessage(gomock.Any()).
		DoAndReturn(func(m domain.Message) error {
			stored = m
			return nil
		})
	f.broadcaster.EXPECT().Broadcast(ctx, domain.RoomID("room-42"), gomock.Any()).
		Do(func(_ context.Context, _ domain.RoomID, e event.ChatEvent) {
			created, ok := e.(event.MessageCreated)
			req.True(ok)
			req.Equal("hello", *created.Message.Content)
		})

	message, err := f.service.CreateMessage(ctx, services.CreateMessageCommand{
		Room:    "room-42",
		Sender:  "recruiter-1",
		Content: "hello",
		Job:     lo.ToPtr("job-7"),
	})

	req.NoError(err)
	req.Equal(stored.ID, message.ID)
	req.Equal("recruiter-1", *message.Sender)
	req.Equal("job-7", *message.Job)
	req.NotZero(message.Timestamp)
	req.WithinDuration(time.Now().UTC(), message.Timestamp, time.Minute)
	req.NotNil(message.ReadBy)
	req.Empty(message.ReadBy)
}

func TestChatService_CreateMessageCensorsContent(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)

	f.rooms.EXPECT().GetRoom(domain.RoomID("room-42")).Return(testRoom, nil)
	f.messages.EXPECT().StoreMessage(gomock.Any()).Return(nil)
	f.broadcaster.EXPECT().Broadcast(ctx, domain.RoomID("room-42"), gomock.Any())

	message, err := f.service.CreateMessage(ctx, services.CreateMessageCommand{
		Room:    "room-42",
		Sender:  "candidate-1",
		Content: "this looks like a scam",
	})

	req.NoError(err)
	req.Equal("this looks like a ****", message.Content)
}

func TestChatService_CreateMessageRejections(t *testing.T) {
	ctx := context.Background()

	t.Run("Should fail without content or file", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)

		// Nothing stored, nothing broadcast
		_, err := f.service.CreateMessage(ctx, services.CreateMessageCommand{
			Room:   "room-42",
			Sender: "recruiter-1",
		})
		req.ErrorIs(err, gcerrors.ErrEmptyMessage)
	})

	t.Run("Should fail without a sender", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)

		_, err := f.service.CreateMessage(ctx, services.CreateMessageCommand{
			Room:    "room-42",
			Content: "hello",
		})
		req.Error(err)
	})

	t.Run("Should fail when the room does not exist", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)
		f.rooms.EXPECT().GetRoom(domain.RoomID("ghost-room")).
			Return(domain.Room{}, gcerrors.ErrRoomNotFound)

		_, err := f.service.CreateMessage(ctx, services.CreateMessageCommand{
			Room:    "ghost-room",
			Sender:  "recruiter-1",
			Content: "hello",
		})
		req.ErrorIs(err, gcerrors.ErrRoomNotFound)
	})

	t.Run("Should accept a file-only message", func(t *testing.T) {
		req := require.New(t)
		f := newFixture(t)
		f.rooms.EXPECT().GetRoom(domain.RoomID("room-42")).Return(testRoom, nil)
		f.messages.EXPECT().StoreMessage(gomock.Any()).Return(nil)
		f.broadcaster.EXPECT().Broadcast(ctx, domain.RoomID("room-42"), gomock.Any())

		message, err := f.service.CreateMessage(ctx, services.CreateMessageCommand{
			Room:   "room-42",
			Sender: "recruiter-1",
			File:   lo.ToPtr("chat_files/cv.pdf"),
		})
		req.NoError(err)
		req.Equal("chat_files/cv.pdf", *message.File)
	})
}

func TestChatService_EditMessage(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)

	existing := domain.Message{
		ID:      uuid.New(),
		Room:    "room-42",
		Sender:  lo.ToPtr("recruiter-1"),
		Content: "hello",
	}
	f.messages.EXPECT().GetMessage(existing.ID).Return(existing, nil)
	f.messages.EXPECT().UpdateMessage(gomock.Any()).
		DoAndReturn(func(m domain.Message) error {
			req.Equal("updated offer", m.Content)
			req.True(m.IsEdited)
			return nil
		})
	f.broadcaster.EXPECT().Broadcast(ctx, domain.RoomID("room-42"), gomock.Any()).
		Do(func(_ context.Context, _ domain.RoomID, e event.ChatEvent) {
			updated, ok := e.(event.MessageUpdated)
			req.True(ok)
			req.True(updated.Message.IsEdited)
		})

	message, err := f.service.EditMessage(ctx, services.EditMessageCommand{
		Editor:    "recruiter-1",
		MessageID: existing.ID,
		Content:   "updated offer",
	})

	req.NoError(err)
	req.True(message.IsEdited)
}

func TestChatService_EditMessageByNonSender(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)

	existing := domain.Message{ID: uuid.New(), Room: "room-42", Sender: lo.ToPtr("recruiter-1"), Content: "hello"}
	f.messages.EXPECT().GetMessage(existing.ID).Return(existing, nil)

	// No update, no broadcast
	_, err := f.service.EditMessage(ctx, services.EditMessageCommand{
		Editor:    "candidate-1",
		MessageID: existing.ID,
		Content:   "hijacked",
	})
	req.ErrorIs(err, gcerrors.ErrNotSender)
}

func TestChatService_DeleteMessage(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)

	existing := domain.Message{ID: uuid.New(), Room: "room-42", Sender: lo.ToPtr("recruiter-1"), Content: "bye"}
	f.messages.EXPECT().GetMessage(existing.ID).Return(existing, nil)
	f.messages.EXPECT().DeleteMessage(existing.ID).Return(existing, nil)

	// Rooms hear about a deletion exactly once
	f.broadcaster.EXPECT().Broadcast(ctx, domain.RoomID("room-42"), gomock.Any()).
		Do(func(_ context.Context, _ domain.RoomID, e event.ChatEvent) {
			deleted, ok := e.(event.MessageDeleted)
			req.True(ok)
			req.Equal(existing.ID.String(), deleted.Message.UUID)
		}).
		Times(1)

	req.NoError(f.service.DeleteMessage(ctx, "recruiter-1", existing.ID))
}

func TestChatService_DeleteMessageByNonSender(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)

	existing := domain.Message{ID: uuid.New(), Room: "room-42", Sender: lo.ToPtr("recruiter-1"), Content: "bye"}
	f.messages.EXPECT().GetMessage(existing.ID).Return(existing, nil)

	// Neither the store nor the room is touched
	err := f.service.DeleteMessage(ctx, "candidate-1", existing.ID)
	req.ErrorIs(err, gcerrors.ErrNotSender)
}

func TestChatService_DeleteMessageWithDeletedSender(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)

	// A message whose account is gone cannot be deleted by anyone
	orphan := domain.Message{ID: uuid.New(), Room: "room-42", Sender: nil, Content: "bye"}
	f.messages.EXPECT().GetMessage(orphan.ID).Return(orphan, nil)

	err := f.service.DeleteMessage(ctx, "recruiter-1", orphan.ID)
	req.ErrorIs(err, gcerrors.ErrNotSender)
}

func TestChatService_ListMessagesMarksViewed(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	room := domain.RoomID("room-42")

	unseen := domain.Message{ID: uuid.New(), Room: room, Content: "new"}
	unseenRead := unseen
	unseenRead.IsViewed = true
	unseenRead.ReadBy = []string{"candidate-1"}

	f.rooms.EXPECT().GetRoom(room).Return(testRoom, nil)
	f.messages.EXPECT().ListMessages(room, nil).
		Return([]domain.Message{unseen}, lo.ToPtr("cursor-1"), nil)
	f.messages.EXPECT().MarkRead(unseen.ID, "candidate-1").Return(unseenRead, true, nil)
	f.broadcaster.EXPECT().Broadcast(ctx, room,
		event.MessageRead{Room: room, MessageID: unseen.ID.String(), UserID: "candidate-1"})

	messages, cursor, err := f.service.ListMessages(ctx, "candidate-1", room, nil)

	req.NoError(err)
	req.Len(messages, 1)
	req.True(messages[0].IsViewed)
	req.Equal("cursor-1", *cursor)
}

func TestChatService_MarkMessageRead(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	room := domain.RoomID("room-42")

	message := domain.Message{ID: uuid.New(), Room: room, Content: "hello", IsViewed: true, ReadBy: []string{"candidate-1"}}

	// Even an unchanged receipt still notifies the room, matching the
	// live-channel contract
	f.messages.EXPECT().MarkRead(message.ID, "candidate-1").Return(message, false, nil)
	f.broadcaster.EXPECT().Broadcast(ctx, room,
		event.MessageRead{Room: room, MessageID: message.ID.String(), UserID: "candidate-1"})

	req.NoError(f.service.MarkMessageRead(ctx, room, message.ID, "candidate-1"))
}
