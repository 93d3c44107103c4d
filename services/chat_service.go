//go:generate go run go.uber.org/mock/mockgen -source=chat_service.go -destination=../mocks/mock_chat_service.go -package=mocks
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"gridchat/dispatch"
	"gridchat/domain"
	gcerrors "gridchat/errors"
	"gridchat/moderation"
	"gridchat/repositories"
)

type IChatService interface {
	CreateMessage(ctx context.Context, cmd CreateMessageCommand) (domain.Message, error)
	EditMessage(ctx context.Context, cmd EditMessageCommand) (domain.Message, error)
	DeleteMessage(ctx context.Context, requesterID string, messageID uuid.UUID) error
	ListMessages(ctx context.Context, viewerID string, room domain.RoomID, cursor *string) ([]domain.Message, *string, error)
	MarkMessageRead(ctx context.Context, room domain.RoomID, messageID uuid.UUID, userID string) error
}

type CreateMessageCommand struct {
	Room    string `validate:"required"`
	Sender  string `validate:"required"`
	Job     *string
	Content string
	File    *string
}

type EditMessageCommand struct {
	Editor    string    `validate:"required"`
	MessageID uuid.UUID `validate:"required"`
	Content   string    `validate:"required"`
}

// ChatService is the command side invoked by the REST boundary. Every
// mutation persists first and dispatches after: a failed write emits
// nothing. Sender-only rules for edit and delete are enforced here,
// before the dispatcher can be reached.
type ChatService struct {
	log        *slog.Logger
	rooms      repositories.RoomStore
	messages   repositories.MessageStore
	moderator  *moderation.Moderator
	dispatcher *dispatch.Dispatcher
	validate   *validator.Validate
}

func NewChatService(
	log *slog.Logger,
	rooms repositories.RoomStore,
	messages repositories.MessageStore,
	moderator *moderation.Moderator,
	dispatcher *dispatch.Dispatcher,
) *ChatService {
	return &ChatService{
		log:        log,
		rooms:      rooms,
		messages:   messages,
		moderator:  moderator,
		dispatcher: dispatcher,
		validate:   validator.New(),
	}
}

func (s *ChatService) CreateMessage(ctx context.Context, cmd CreateMessageCommand) (domain.Message, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return domain.Message{}, err
	}
	if cmd.Content == "" && cmd.File == nil {
		return domain.Message{}, gcerrors.ErrEmptyMessage
	}
	if _, err := s.rooms.GetRoom(domain.RoomID(cmd.Room)); err != nil {
		return domain.Message{}, err
	}

	sender := cmd.Sender
	message := domain.Message{
		ID:        uuid.New(),
		Room:      domain.RoomID(cmd.Room),
		Sender:    &sender,
		Job:       cmd.Job,
		Content:   s.moderate(cmd.Content),
		File:      cmd.File,
		Timestamp: time.Now().UTC(),
		ReadBy:    []string{},
	}
	if err := s.messages.StoreMessage(message); err != nil {
		return domain.Message{}, err
	}
	s.dispatcher.OnMessageCreated(ctx, message)
	return message, nil
}

func (s *ChatService) EditMessage(ctx context.Context, cmd EditMessageCommand) (domain.Message, error) {
	if err := s.validate.Struct(cmd); err != nil {
		return domain.Message{}, err
	}
	message, err := s.messages.GetMessage(cmd.MessageID)
	if err != nil {
		return domain.Message{}, err
	}
	if !message.IsSentBy(cmd.Editor) {
		return domain.Message{}, gcerrors.ErrNotSender
	}

	message.Content = s.moderate(cmd.Content)
	message.IsEdited = true
	if err := s.messages.UpdateMessage(message); err != nil {
		return domain.Message{}, err
	}
	s.dispatcher.OnMessageUpdated(ctx, message)
	return message, nil
}

func (s *ChatService) DeleteMessage(ctx context.Context, requesterID string, messageID uuid.UUID) error {
	message, err := s.messages.GetMessage(messageID)
	if err != nil {
		return err
	}
	if !message.IsSentBy(requesterID) {
		return gcerrors.ErrNotSender
	}

	snapshot, err := s.messages.DeleteMessage(messageID)
	if err != nil {
		return err
	}
	s.dispatcher.OnMessageDeleted(ctx, snapshot)
	return nil
}

// ListMessages pages through a room newest first. Listing is not a
// pure read: every returned message is marked viewed and read by the
// requester, and rooms get one message_read notification per newly
// read message. Kept for compatibility with the original REST
// contract; clients that want an idempotent listing should migrate to
// the explicit read endpoint.
func (s *ChatService) ListMessages(ctx context.Context, viewerID string, room domain.RoomID, cursor *string) ([]domain.Message, *string, error) {
	if _, err := s.rooms.GetRoom(room); err != nil {
		return nil, nil, err
	}
	messages, next, err := s.messages.ListMessages(room, cursor)
	if err != nil {
		return nil, nil, err
	}
	messages = s.dispatcher.OnMessagesViewed(ctx, room, viewerID, messages)
	return messages, next, nil
}

// MarkMessageRead persists the receipt, then notifies the room. The
// notification is sent even when the reader set already contained the
// user, matching the original live-channel behavior.
func (s *ChatService) MarkMessageRead(ctx context.Context, room domain.RoomID, messageID uuid.UUID, userID string) error {
	updated, _, err := s.messages.MarkRead(messageID, userID)
	if err != nil {
		return err
	}
	if room != "" && updated.Room != room {
		s.log.Warn("Read receipt room mismatch",
			"message_id", messageID, "claimed_room", room, "actual_room", updated.Room)
	}
	s.dispatcher.OnMessageRead(ctx, updated.Room, updated.ID.String(), userID)
	return nil
}

func (s *ChatService) moderate(content string) string {
	if content == "" || s.moderator == nil {
		return content
	}
	sanitized, matched := s.moderator.Censor(content)
	if len(matched) > 0 {
		s.log.Info("Censored message content",
			"matched", len(matched),
			"language", moderation.DetectLanguage(content))
	}
	return sanitized
}
