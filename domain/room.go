// Package domain contains core concepts of the recruiting chat.
// No runtime, network, or storage logic should be added here.
package domain

import "slices"

type RoomID string

// Room links one recruiter to the client companies of an engagement.
// Membership of a Room determines who may join its live channel.
type Room struct {
	ID        RoomID
	Recruiter string
	Clients   []string
}

func NewRoom(id RoomID, recruiter string, clients []string) Room {
	return Room{ID: id, Recruiter: recruiter, Clients: clients}
}

func (r Room) IsMember(userID string) bool {
	return r.Recruiter == userID || slices.Contains(r.Clients, userID)
}
