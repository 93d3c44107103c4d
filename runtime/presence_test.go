package runtime

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"gridchat/domain"
)

func TestPresence_SetTyping(t *testing.T) {
	req := require.New(t)
	presence := NewPresence()
	room := domain.RoomID("room-42")

	req.Empty(presence.Typers(room))

	presence.SetTyping(room, "candidate-1", true)
	presence.SetTyping(room, "recruiter-1", true)
	req.Equal([]string{"candidate-1", "recruiter-1"}, presence.Typers(room))

	presence.SetTyping(room, "candidate-1", false)
	req.Equal([]string{"recruiter-1"}, presence.Typers(room))

	presence.SetTyping(room, "recruiter-1", false)
	req.Empty(presence.Typers(room))
}

// A user with two open tabs stays in the typing set until both have
// stopped.
func TestPresence_ReferenceCounting(t *testing.T) {
	req := require.New(t)
	presence := NewPresence()
	room := domain.RoomID("room-42")

	presence.SetTyping(room, "candidate-1", true)
	presence.SetTyping(room, "candidate-1", true)

	presence.SetTyping(room, "candidate-1", false)
	req.Equal([]string{"candidate-1"}, presence.Typers(room))

	presence.SetTyping(room, "candidate-1", false)
	req.Empty(presence.Typers(room))
}

func TestPresence_StopWithoutStartIsNoop(t *testing.T) {
	req := require.New(t)
	presence := NewPresence()
	room := domain.RoomID("room-42")

	presence.SetTyping(room, "candidate-1", false)
	req.Empty(presence.Typers(room))
}

func TestPresence_RoomsAreIndependent(t *testing.T) {
	req := require.New(t)
	presence := NewPresence()

	presence.SetTyping("room-1", "candidate-1", true)
	req.Equal([]string{"candidate-1"}, presence.Typers("room-1"))
	req.Empty(presence.Typers("room-2"))
}

// A claim racing the last release's room cleanup must still land in
// the live typing set, never on an unlinked room entry.
func TestPresence_ClaimRacingLastReleaseStaysVisible(t *testing.T) {
	req := require.New(t)
	presence := NewPresence()
	room := domain.RoomID("room-42")

	for i := 0; i < 500; i++ {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			presence.SetTyping(room, "candidate-1", true)
			presence.SetTyping(room, "candidate-1", false)
		}()
		go func() {
			defer wg.Done()
			presence.SetTyping(room, "recruiter-1", true)
		}()
		wg.Wait()

		req.Contains(presence.Typers(room), "recruiter-1", "iteration %d: claim lost to room cleanup", i)
		presence.SetTyping(room, "recruiter-1", false)
	}
}
