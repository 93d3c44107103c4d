package runtime

import (
	"sort"
	"sync"

	"gridchat/domain"
)

// Presence tracks which users are composing in each room. Claims are
// reference counted per user: a user with two open tabs stays in the
// typing set until both have stopped. Each room carries its own lock,
// like the registry, so typing churn in one room never contends with
// another; the outer mutex only guards the room map. Room entries
// disappear with their last typer, and the whole structure is empty
// after a restart.
type Presence struct {
	mu    sync.Mutex
	rooms map[domain.RoomID]*typingState
}

type typingState struct {
	mu     sync.Mutex
	claims map[string]int
}

func NewPresence() *Presence {
	return &Presence{rooms: make(map[domain.RoomID]*typingState)}
}

// SetTyping adjusts the user's claim count. Callers must pair every
// typing=true with exactly one typing=false (the gateway tracks the
// per-connection state to guarantee this).
func (p *Presence) SetTyping(roomID domain.RoomID, userID string, typing bool) {
	if typing {
		for {
			state := p.state(roomID, true)
			state.mu.Lock()
			state.claims[userID]++
			state.mu.Unlock()

			// A concurrent last release may have unlinked this state
			// between the lookup and the claim; claim again on a live one.
			p.mu.Lock()
			registered := p.rooms[roomID] == state
			p.mu.Unlock()
			if registered {
				return
			}
		}
	}

	state := p.state(roomID, false)
	if state == nil {
		return
	}
	state.mu.Lock()
	state.claims[userID]--
	if state.claims[userID] <= 0 {
		delete(state.claims, userID)
	}
	empty := len(state.claims) == 0
	state.mu.Unlock()

	if empty {
		p.mu.Lock()
		if s, ok := p.rooms[roomID]; ok {
			s.mu.Lock()
			if len(s.claims) == 0 {
				delete(p.rooms, roomID)
			}
			s.mu.Unlock()
		}
		p.mu.Unlock()
	}
}

// Typers returns the room's current typing users, sorted for stable
// frames.
func (p *Presence) Typers(roomID domain.RoomID) []string {
	state := p.state(roomID, false)
	if state == nil {
		return []string{}
	}
	state.mu.Lock()
	defer state.mu.Unlock()

	users := make([]string, 0, len(state.claims))
	for userID := range state.claims {
		users = append(users, userID)
	}
	sort.Strings(users)
	return users
}

func (p *Presence) state(roomID domain.RoomID, create bool) *typingState {
	p.mu.Lock()
	defer p.mu.Unlock()
	state, ok := p.rooms[roomID]
	if !ok && create {
		state = &typingState{claims: make(map[string]int)}
		p.rooms[roomID] = state
	}
	return state
}
