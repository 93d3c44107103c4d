package workers

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"gridchat/contract"
	"gridchat/domain"
)

// Compile-time check of the architectural rule: receipt workers run
// under the supervisor like any other worker.
var _ contract.Worker = (*ReceiptWorker)(nil)

// ReadReceipt is the unit of work a connection enqueues when a client
// reports having read a message.
type ReadReceipt struct {
	Room      domain.RoomID
	MessageID uuid.UUID
	UserID    string
}

// ReceiptApplier persists a read receipt and broadcasts the resulting
// message_read notification. Implemented by the chat service.
type ReceiptApplier interface {
	MarkMessageRead(ctx context.Context, room domain.RoomID, messageID uuid.UUID, userID string) error
}

// ReceiptWorker drains read receipts off the websocket read loops.
// Several workers share one channel, bounding the concurrency of the
// underlying database writes: one slow round trip delays receipts,
// never the socket serving the connection.
type ReceiptWorker struct {
	receipts <-chan ReadReceipt
	applier  ReceiptApplier
	log      *slog.Logger
}

func NewReceiptWorker(receipts <-chan ReadReceipt, applier ReceiptApplier, log *slog.Logger) *ReceiptWorker {
	return &ReceiptWorker{receipts: receipts, applier: applier, log: log}
}

func (w *ReceiptWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping receipt worker")
			return nil
		case receipt, ok := <-w.receipts:
			if !ok {
				return nil
			}
			if err := w.applier.MarkMessageRead(ctx, receipt.Room, receipt.MessageID, receipt.UserID); err != nil {
				w.log.Warn("Failed to apply read receipt",
					"room_id", receipt.Room,
					"message_id", receipt.MessageID,
					"user_id", receipt.UserID,
					"error", err)
			}
		}
	}
}
