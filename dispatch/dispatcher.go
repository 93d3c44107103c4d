// Package dispatch translates durable persistence mutations into chat
// events and hands them to the broadcaster. Callers invoke it only
// after the corresponding write has committed: the dispatcher never
// announces state that was not actually persisted.
package dispatch

import (
	"context"
	"log/slog"

	"gridchat/contract"
	"gridchat/domain"
	"gridchat/domain/event"
	"gridchat/repositories"
)

type Dispatcher struct {
	log         *slog.Logger
	broadcaster contract.Broadcaster
	messages    repositories.MessageStore
}

func NewDispatcher(log *slog.Logger, broadcaster contract.Broadcaster, messages repositories.MessageStore) *Dispatcher {
	return &Dispatcher{log: log, broadcaster: broadcaster, messages: messages}
}

// OnMessageCreated fans out a message_created event to the room.
func (d *Dispatcher) OnMessageCreated(ctx context.Context, m domain.Message) {
	d.broadcaster.Broadcast(ctx, m.Room, event.MessageCreated{Message: domain.ToProjection(m)})
}

// OnMessageUpdated fans out a message_updated event. The edited flag
// is confirmed here so a projection can never announce an edit that
// is not stamped.
func (d *Dispatcher) OnMessageUpdated(ctx context.Context, m domain.Message) {
	m.IsEdited = true
	d.broadcaster.Broadcast(ctx, m.Room, event.MessageUpdated{Message: domain.ToProjection(m)})
}

// OnMessageDeleted fans out exactly one message_deleted event carrying
// the pre-delete snapshot.
func (d *Dispatcher) OnMessageDeleted(ctx context.Context, snapshot domain.Message) {
	d.broadcaster.Broadcast(ctx, snapshot.Room, event.MessageDeleted{Message: domain.ToProjection(snapshot)})
}

// OnMessageRead fans out a read receipt notification.
func (d *Dispatcher) OnMessageRead(ctx context.Context, room domain.RoomID, messageID, userID string) {
	d.broadcaster.Broadcast(ctx, room, event.MessageRead{
		Room:      room,
		MessageID: messageID,
		UserID:    userID,
	})
}

// OnMessagesViewed records viewerID as a reader of every message in
// the listing that does not carry them yet, then notifies the room
// once per newly-read message. The reader set only grows, so a second
// listing by the same viewer is a pure read. Messages whose receipt
// write fails are returned unchanged and produce no notification.
func (d *Dispatcher) OnMessagesViewed(ctx context.Context, room domain.RoomID, viewerID string, messages []domain.Message) []domain.Message {
	out := make([]domain.Message, 0, len(messages))
	for _, m := range messages {
		if m.IsReadBy(viewerID) && m.IsViewed {
			out = append(out, m)
			continue
		}
		updated, changed, err := d.messages.MarkRead(m.ID, viewerID)
		if err != nil {
			d.log.Warn("Failed to mark listed message as viewed",
				"message_id", m.ID, "viewer_id", viewerID, "error", err)
			out = append(out, m)
			continue
		}
		out = append(out, updated)
		if changed {
			d.OnMessageRead(ctx, room, updated.ID.String(), viewerID)
		}
	}
	return out
}
