// Package relay fans document events out to every member of a document room.
// Each room keeps the authoritative document so late joiners get a replay.
package relay

import (
	"cmp"
	"slices"
	"sync"

	"github.com/golang/glog"

	"SharedBoard/internal/identity"
	"SharedBoard/internal/state"
)

type Relay struct {
	mu      sync.RWMutex
	rooms   map[string]*Room
	canvas  state.Size
	metrics *Metrics
}

func New(canvas state.Size, metrics *Metrics) *Relay {
	if metrics == nil {
		metrics = NewMetrics()
	}
	return &Relay{
		rooms:   make(map[string]*Room),
		canvas:  canvas,
		metrics: metrics,
	}
}

func (r *Relay) Metrics() *Metrics {
	return r.metrics
}

// Room returns the room for a document if anyone has joined it.
func (r *Relay) Room(documentID string) (*Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[documentID]
	return room, ok
}

// Join adds a member to the document's room, creating the room on first use.
// The member receives the replay once it sends join.
func (r *Relay) Join(documentID string, user identity.Identity) *Client {
	return r.room(documentID).join(user)
}

func (r *Relay) room(documentID string) *Room {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[documentID]
	if !ok {
		room = newRoom(documentID, r.canvas, r.metrics)
		r.rooms[documentID] = room
		r.metrics.Rooms.Inc()
		glog.Infof("[RELAY] created room %s", documentID)
	}
	return room
}

func sortPresence(users []state.Presence) {
	slices.SortFunc(users, func(a, b state.Presence) int {
		return cmp.Compare(a.UserID, b.UserID)
	})
}
