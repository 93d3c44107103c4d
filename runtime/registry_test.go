package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"gridchat/domain"
	"gridchat/domain/event"
	"gridchat/mocks"
)

func TestRegistry_BroadcastReachesEveryJoinedConnection(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	registry := NewRegistry(slog.Default())

	room := domain.RoomID("room-42")
	evt := event.TypingChanged{Room: room, TypingUsers: []string{"candidate-1"}}

	// Given two connections in the room and one elsewhere
	first := mocks.NewMockEventSink(ctrl)
	second := mocks.NewMockEventSink(ctrl)
	elsewhere := mocks.NewMockEventSink(ctrl)
	registry.Join(room, "conn-1", first)
	registry.Join(room, "conn-2", second)
	registry.Join("room-other", "conn-3", elsewhere)

	first.EXPECT().Consume(ctx, evt).Return(nil)
	second.EXPECT().Consume(ctx, evt).Return(nil)

	// When broadcasting to the room
	registry.Broadcast(ctx, room, evt)

	// Then only the room's connections were reached (gomock verifies)
	req.Equal(2, registry.Count(room))
	req.Equal(1, registry.Count("room-other"))
}

func TestRegistry_LeaveStopsDelivery(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	registry := NewRegistry(slog.Default())

	room := domain.RoomID("room-42")
	sink := mocks.NewMockEventSink(ctrl)
	registry.Join(room, "conn-1", sink)
	registry.Leave(room, "conn-1")

	// No Consume expectation: delivery after leave would fail the test
	registry.Broadcast(ctx, room, event.TypingChanged{Room: room})
	req.Equal(0, registry.Count(room))
}

func TestRegistry_FailingSinkDoesNotAbortFanout(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	registry := NewRegistry(slog.Default())

	room := domain.RoomID("room-42")
	evt := event.TypingChanged{Room: room}

	broken := mocks.NewMockEventSink(ctrl)
	healthy := mocks.NewMockEventSink(ctrl)
	registry.Join(room, "conn-broken", broken)
	registry.Join(room, "conn-healthy", healthy)

	broken.EXPECT().Consume(ctx, evt).Return(errors.New("buffer gone"))
	healthy.EXPECT().Consume(ctx, evt).Return(nil)

	registry.Broadcast(ctx, room, evt)
	req.Equal(2, registry.Count(room))
}

func TestRegistry_BroadcastToUnknownRoomIsNoop(t *testing.T) {
	registry := NewRegistry(slog.Default())
	registry.Broadcast(context.Background(), "ghost-room", event.TypingChanged{Room: "ghost-room"})
	require.Equal(t, 0, registry.Count("ghost-room"))
}

type countingSink struct {
	delivered atomic.Int32
}

func (s *countingSink) Consume(context.Context, event.ChatEvent) error {
	s.delivered.Add(1)
	return nil
}

// A Join racing the last Leave's room cleanup must still end up
// reachable by Broadcast, never parked on an unlinked room entry.
func TestRegistry_JoinRacingLastLeaveStaysReachable(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	registry := NewRegistry(slog.Default())
	room := domain.RoomID("room-42")
	evt := event.TypingChanged{Room: room}

	for i := 0; i < 500; i++ {
		churnID := fmt.Sprintf("conn-churn-%d", i)
		joined := &countingSink{}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			registry.Join(room, churnID, &countingSink{})
			registry.Leave(room, churnID)
		}()
		go func() {
			defer wg.Done()
			registry.Join(room, "conn-stable", joined)
		}()
		wg.Wait()

		registry.Broadcast(ctx, room, evt)
		req.Equal(int32(1), joined.delivered.Load(), "iteration %d: joined connection missed the broadcast", i)
		registry.Leave(room, "conn-stable")
	}
}
