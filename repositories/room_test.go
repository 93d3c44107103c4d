package repositories

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"gridchat/domain"
	gcerrors "gridchat/errors"
)

func TestRoomRepository_StoreAndGet(t *testing.T) {
	req := require.New(t)
	repo := NewRoomRepository(setupDB(t), slog.Default())

	room := domain.Room{
		ID:        "room-42",
		Recruiter: "recruiter-1",
		Clients:   []string{"recruiter-1", "candidate-1"},
	}
	req.NoError(repo.StoreRoom(room))

	fetched, err := repo.GetRoom("room-42")
	req.NoError(err)
	req.Equal(room, fetched)
}

func TestRoomRepository_GetMissing(t *testing.T) {
	req := require.New(t)
	repo := NewRoomRepository(setupDB(t), slog.Default())

	_, err := repo.GetRoom("ghost-room")
	req.ErrorIs(err, gcerrors.ErrRoomNotFound)
}
