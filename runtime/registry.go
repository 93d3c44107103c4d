// Package runtime owns the live, in-memory side of the chat: which
// connections are joined to which room and who is typing. Nothing
// here survives a restart.
package runtime

import (
	"context"
	"log/slog"
	"sync"

	"gridchat/contract"
	"gridchat/domain"
	"gridchat/domain/event"
)

// Registry maps rooms to their joined connection sinks and performs
// fan-out. Each room carries its own lock so join/leave/broadcast on
// one room are serialized against each other without unrelated rooms
// contending. The outer mutex only guards the room map itself.
type Registry struct {
	mu    sync.Mutex
	log   *slog.Logger
	rooms map[domain.RoomID]*roomState
}

type roomState struct {
	mu    sync.Mutex
	sinks map[string]contract.EventSink
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		log:   log,
		rooms: make(map[domain.RoomID]*roomState),
	}
}

func (r *Registry) Join(roomID domain.RoomID, connID string, sink contract.EventSink) {
	for {
		state := r.state(roomID, true)
		state.mu.Lock()
		state.sinks[connID] = sink
		state.mu.Unlock()

		// A concurrent last Leave may have unlinked this state between
		// the lookup and the insert, which would leave the sink invisible
		// to Broadcast. Re-register on a live state if so.
		r.mu.Lock()
		registered := r.rooms[roomID] == state
		r.mu.Unlock()
		if registered {
			return
		}
	}
}

// Leave removes a connection and drops the room entry once the last
// connection is gone, so idle rooms do not accumulate.
func (r *Registry) Leave(roomID domain.RoomID, connID string) {
	state := r.state(roomID, false)
	if state == nil {
		return
	}
	state.mu.Lock()
	delete(state.sinks, connID)
	empty := len(state.sinks) == 0
	state.mu.Unlock()

	if empty {
		r.mu.Lock()
		if s, ok := r.rooms[roomID]; ok {
			s.mu.Lock()
			if len(s.sinks) == 0 {
				delete(r.rooms, roomID)
			}
			s.mu.Unlock()
		}
		r.mu.Unlock()
	}
}

// Broadcast delivers e to every connection joined to the room at the
// moment of the call. The room lock is held across delivery: sinks
// must not block, and in exchange every connection observes events in
// the order the broadcaster processed them. A failing sink is logged
// and skipped; it never aborts delivery to the rest of the room.
func (r *Registry) Broadcast(ctx context.Context, roomID domain.RoomID, e event.ChatEvent) {
	state := r.state(roomID, false)
	if state == nil {
		return
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	for connID, sink := range state.sinks {
		if err := sink.Consume(ctx, e); err != nil {
			r.log.Warn("Event delivery failed, skipping subscriber",
				"room_id", roomID, "conn_id", connID, "error", err)
		}
	}
}

// Count reports how many connections are joined to the room.
func (r *Registry) Count(roomID domain.RoomID) int {
	state := r.state(roomID, false)
	if state == nil {
		return 0
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	return len(state.sinks)
}

func (r *Registry) state(roomID domain.RoomID, create bool) *roomState {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.rooms[roomID]
	if !ok && create {
		state = &roomState{sinks: make(map[string]contract.EventSink)}
		r.rooms[roomID] = state
	}
	return state
}
