//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"gridchat/domain"
	"gridchat/domain/event"
)

// EventSink receives one event for one connection. Consume must never
// block on a slow transport; implementations buffer or drop.
type EventSink interface {
	Consume(ctx context.Context, e event.ChatEvent) error
}

// Broadcaster is the live room registry. Broadcast delivers to every
// sink joined at the moment of the call; late joiners miss the event.
type Broadcaster interface {
	Join(roomID domain.RoomID, connID string, sink EventSink)
	Leave(roomID domain.RoomID, connID string)
	Broadcast(ctx context.Context, roomID domain.RoomID, e event.ChatEvent)
}

// Presence tracks which users are composing in a room. Claims are
// reference counted so one tab of a user closing does not clear an
// indicator owned by another tab.
type Presence interface {
	SetTyping(roomID domain.RoomID, userID string, typing bool)
	Typers(roomID domain.RoomID) []string
}

// IdentityValidator checks a bearer token and resolves the user it
// belongs to. Implementations may call out to an identity service and
// must honor ctx cancellation.
type IdentityValidator interface {
	Validate(ctx context.Context, token string) (userID string, err error)
}

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself; the supervisor recovers its panics.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker
// for logging, avoiding manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
