package repositories

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"gridchat/domain"
	gcerrors "gridchat/errors"
)

// markReadRetries bounds optimistic retries when concurrent viewers
// touch the same message's reader set.
const markReadRetries = 5

type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) MessageRepository {
	return MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

type diskMessage struct {
	ID        string   `json:"id"`
	Room      string   `json:"room"`
	Sender    *string  `json:"sender"`
	Job       *string  `json:"job"`
	Content   string   `json:"content"`
	File      *string  `json:"file"`
	At        int64    `json:"at"`
	IsEdited  bool     `json:"is_edited"`
	IsViewed  bool     `json:"is_viewed"`
	ReadBy    []string `json:"read_by"`
}

// messageKey formats the primary key as "msg:{room}:{timestamp_padded}:{uuid}":
//  1. 19-digit zero padding keeps chronological order lexicographic.
//  2. The UUID suffix disconnects collisions when two messages land on
//     the same nanosecond.
func messageKey(room domain.RoomID, at time.Time, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%s", room, at.UnixNano(), id))
}

// indexKey maps a message id to its primary key so point lookups do
// not need the room and timestamp.
func indexKey(id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("msgidx:%s", id))
}

func (m MessageRepository) StoreMessage(message domain.Message) error {
	bytes, err := json.Marshal(fromMessage(message))
	if err != nil {
		return err
	}
	key := messageKey(message.Room, message.Timestamp, message.ID)
	return m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, bytes); err != nil {
			return err
		}
		return txn.Set(indexKey(message.ID), key)
	})
}

func (m MessageRepository) GetMessage(id uuid.UUID) (domain.Message, error) {
	var message domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		_, msg, err := getByID(txn, id)
		message = msg
		return err
	})
	return message, err
}

// UpdateMessage rewrites the stored value in place. Room, timestamp
// and id are immutable, so the primary key never moves.
func (m MessageRepository) UpdateMessage(message domain.Message) error {
	bytes, err := json.Marshal(fromMessage(message))
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		primary, _, err := getByID(txn, message.ID)
		if err != nil {
			return err
		}
		return txn.Set(primary, bytes)
	})
}

func (m MessageRepository) DeleteMessage(id uuid.UUID) (domain.Message, error) {
	var snapshot domain.Message
	err := m.db.Update(func(txn *badger.Txn) error {
		primary, msg, err := getByID(txn, id)
		if err != nil {
			return err
		}
		snapshot = msg
		if err := txn.Delete(primary); err != nil {
			return err
		}
		return txn.Delete(indexKey(id))
	})
	return snapshot, err
}

// MarkRead adds userID to the reader set and flips is_viewed. The set
// only grows; marking an already-read message reports changed=false.
// Conflicting viewers are retried optimistically.
func (m MessageRepository) MarkRead(id uuid.UUID, userID string) (domain.Message, bool, error) {
	var (
		message domain.Message
		changed bool
	)
	var err error
	for attempt := 0; attempt < markReadRetries; attempt++ {
		changed = false
		err = m.db.Update(func(txn *badger.Txn) error {
			primary, msg, err := getByID(txn, id)
			if err != nil {
				return err
			}
			if !msg.IsReadBy(userID) {
				msg.ReadBy = append(msg.ReadBy, userID)
				changed = true
			}
			if !msg.IsViewed {
				msg.IsViewed = true
				changed = true
			}
			message = msg
			if !changed {
				return nil
			}
			bytes, err := json.Marshal(fromMessage(msg))
			if err != nil {
				return err
			}
			return txn.Set(primary, bytes)
		})
		if !stderrors.Is(err, badger.ErrConflict) {
			break
		}
		m.log.Debug("Read receipt write conflict, retrying", "message_id", id, "attempt", attempt+1)
	}
	return message, changed, err
}

// ListMessages pages through a room newest first, using a reverse
// prefix scan. The returned cursor is the key remainder after the
// room prefix, to be passed back for the next page.
func (m MessageRepository) ListMessages(room domain.RoomID, cursor *string) ([]domain.Message, *string, error) {
	var messages []domain.Message
	var lastKey string
	err := m.db.View(func(txn *badger.Txn) error {
		prefixStr := fmt.Sprintf("msg:%s:", room)
		prefix := []byte(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Seek past the newest possible timestamp, then walk back.
			seekKey = append(prefix, []byte("9999999999999999999")...)
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}
		it.Seek(seekKey)
		if cursor != nil && it.ValidForPrefix(prefix) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(messages) == *m.limitMessages {
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[len(prefixStr):])
			err := item.Value(func(value []byte) error {
				var disk diskMessage
				if err := json.Unmarshal(value, &disk); err != nil {
					return err
				}
				msg, err := toMessage(disk)
				if err != nil {
					return err
				}
				messages = append(messages, msg)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return messages, &lastKey, nil
}

func getByID(txn *badger.Txn, id uuid.UUID) ([]byte, domain.Message, error) {
	item, err := txn.Get(indexKey(id))
	if err == badger.ErrKeyNotFound {
		return nil, domain.Message{}, gcerrors.ErrMessageNotFound
	}
	if err != nil {
		return nil, domain.Message{}, err
	}
	primary, err := item.ValueCopy(nil)
	if err != nil {
		return nil, domain.Message{}, err
	}
	item, err = txn.Get(primary)
	if err == badger.ErrKeyNotFound {
		return nil, domain.Message{}, gcerrors.ErrMessageNotFound
	}
	if err != nil {
		return nil, domain.Message{}, err
	}
	var disk diskMessage
	if err := item.Value(func(value []byte) error {
		return json.Unmarshal(value, &disk)
	}); err != nil {
		return nil, domain.Message{}, err
	}
	msg, err := toMessage(disk)
	return primary, msg, err
}

func fromMessage(message domain.Message) diskMessage {
	return diskMessage{
		ID:       message.ID.String(),
		Room:     string(message.Room),
		Sender:   message.Sender,
		Job:      message.Job,
		Content:  message.Content,
		File:     message.File,
		At:       message.Timestamp.UnixNano(),
		IsEdited: message.IsEdited,
		IsViewed: message.IsViewed,
		ReadBy:   message.ReadBy,
	}
}

func toMessage(disk diskMessage) (domain.Message, error) {
	parsedID, err := uuid.Parse(disk.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:        parsedID,
		Room:      domain.RoomID(disk.Room),
		Sender:    disk.Sender,
		Job:       disk.Job,
		Content:   disk.Content,
		File:      disk.File,
		Timestamp: time.Unix(0, disk.At).UTC(),
		IsEdited:  disk.IsEdited,
		IsViewed:  disk.IsViewed,
		ReadBy:    disk.ReadBy,
	}, nil
}
