package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"gridchat/domain"
	gcerrors "gridchat/errors"
)

type RoomRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewRoomRepository(db *badger.DB, log *slog.Logger) RoomRepository {
	return RoomRepository{db: db, log: log}
}

type diskRoom struct {
	ID        string   `json:"id"`
	Recruiter string   `json:"recruiter"`
	Clients   []string `json:"clients"`
}

func roomKey(id domain.RoomID) []byte {
	return []byte(fmt.Sprintf("room:%s", id))
}

func (r RoomRepository) StoreRoom(room domain.Room) error {
	bytes, err := json.Marshal(diskRoom{
		ID:        string(room.ID),
		Recruiter: room.Recruiter,
		Clients:   room.Clients,
	})
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(roomKey(room.ID), bytes)
	})
}

func (r RoomRepository) GetRoom(id domain.RoomID) (domain.Room, error) {
	var disk diskRoom
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(roomKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(value []byte) error {
			return json.Unmarshal(value, &disk)
		})
	})
	if err == badger.ErrKeyNotFound {
		return domain.Room{}, gcerrors.ErrRoomNotFound
	}
	if err != nil {
		return domain.Room{}, err
	}
	return domain.Room{
		ID:        domain.RoomID(disk.ID),
		Recruiter: disk.Recruiter,
		Clients:   disk.Clients,
	}, nil
}
