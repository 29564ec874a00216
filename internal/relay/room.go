package relay

import (
	"sync"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"SharedBoard/internal/identity"
	"SharedBoard/internal/state"
)

// ClientBufferSize bounds each member's outbound queue. A member that falls
// this far behind is disconnected and converges again through a replay.
const ClientBufferSize = 256

// Client is one room membership, i.e. one connection.
type Client struct {
	ID   string
	User identity.Identity

	room      *Room
	out       chan state.Event
	closeOnce sync.Once
	closed    bool
}

// Events delivers everything the relay sends to this member, in order. The
// channel is closed when the member leaves or is dropped for lagging.
func (c *Client) Events() <-chan state.Event {
	return c.out
}

// Handle processes one event received from this member.
func (c *Client) Handle(ev state.Event) {
	c.room.handle(c, ev)
}

// Close leaves the room and tells the remaining members.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.room.leave(c)
	})
}

// Room is the authoritative copy of one document plus its members.
type Room struct {
	ID string

	mu      sync.Mutex
	doc     *state.Document
	clients map[*Client]struct{}
	// strokes holds, per user, the ids of their strokes in commit order so
	// undoStroke can find the most recent one.
	strokes map[string][]string

	metrics *Metrics
}

func newRoom(id string, canvas state.Size, metrics *Metrics) *Room {
	return &Room{
		ID:      id,
		doc:     state.NewDocument(id, canvas),
		clients: make(map[*Client]struct{}),
		strokes: make(map[string][]string),
		metrics: metrics,
	}
}

// Snapshot returns the room's current document.
func (r *Room) Snapshot() state.Snapshot {
	return r.doc.Snapshot()
}

func (r *Room) Members() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

func (r *Room) join(user identity.Identity) *Client {
	c := &Client{
		ID:   uuid.NewString(),
		User: user,
		room: r,
		out:  make(chan state.Event, ClientBufferSize),
	}
	r.mu.Lock()
	r.clients[c] = struct{}{}
	r.mu.Unlock()

	r.metrics.Connections.Inc()
	glog.Infof("[RELAY] %s (%s) joined room %s", user.UserID, c.ID, r.ID)
	return c
}

func (r *Room) leave(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[c]; !ok {
		return
	}
	r.drop(c)
	glog.Infof("[RELAY] %s (%s) left room %s", c.User.UserID, c.ID, r.ID)
	r.broadcast(state.Event{Type: state.EventPresence, DocumentID: r.ID, Users: r.roster()})
}

// drop removes a member and closes its queue. Callers hold r.mu.
func (r *Room) drop(c *Client) {
	delete(r.clients, c)
	if !c.closed {
		c.closed = true
		close(c.out)
	}
	r.metrics.Connections.Dec()
}

func (r *Room) handle(c *Client, ev state.Event) {
	if ev.DocumentID != "" && ev.DocumentID != r.ID {
		glog.Warningf("[RELAY] %s sent %s for %s inside room %s", c.User.UserID, ev.Type, ev.DocumentID, r.ID)
		return
	}
	ev.DocumentID = r.ID
	r.metrics.Events.WithLabelValues(eventLabel(ev.Type)).Inc()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[c]; !ok {
		return
	}
	if glog.V(2) {
		glog.Infof("[RELAY] %s <- %s %s id=%s", r.ID, c.User.UserID, ev.Type, ev.EntityID())
	}

	switch ev.Type {
	case state.EventJoin:
		if !r.send(c, state.ReplayEvent(r.ID, r.doc.Snapshot())) {
			r.broadcast(r.presence())
		}
	case state.EventPresence:
		r.adoptGuest(c, ev)
		r.broadcast(r.presence())
	case state.EventUndoStroke:
		r.undoStroke(c.User.UserID)
	case state.EventDrawStroke, state.EventAddTextBox, state.EventAddImage, state.EventAddShape:
		r.add(c, ev)
	case state.EventUpdateTextBox, state.EventUpdateImage, state.EventUpdateShape,
		state.EventRemoveStroke, state.EventRemoveTextBox, state.EventRemoveImage, state.EventRemoveShape:
		ev.ID = r.doc.Resolve(ev.EntityID())
		if r.doc.ApplyEvent(ev) {
			r.broadcast(ev)
		}
	case state.EventSetBackground, state.EventResizeCanvas:
		if r.doc.ApplyEvent(ev) {
			r.broadcast(ev)
		}
	case state.EventClearBoard:
		r.doc.ApplyEvent(ev)
		clear(r.strokes)
		glog.Infof("[RELAY] room %s cleared by %s", r.ID, c.User.UserID)
		r.broadcast(ev)
	default:
		glog.Warningf("[RELAY] %s sent unsupported %q", c.User.UserID, ev.Type)
	}
}

// add assigns the authoritative id and stamps the connection's identity as
// the owner. The provisional id travels along so the author can reconcile.
func (r *Room) add(c *Client, ev state.Event) {
	if ev.TempID == "" {
		ev.TempID = ev.EntityID()
	}
	if r.doc.Known(ev.TempID) {
		// redelivery of an add the room already assigned an id to
		glog.V(2).Infof("[RELAY] %s repeated add %s", c.User.UserID, ev.TempID)
		return
	}
	ev = ev.WithID(state.NewServerID())
	ev.OwnerID = c.User.UserID
	switch {
	case ev.Stroke != nil:
		ev.Stroke.OwnerID = c.User.UserID
	case ev.TextBox != nil:
		ev.TextBox.OwnerID = c.User.UserID
	case ev.Shape != nil:
		ev.Shape.OwnerID = c.User.UserID
	case ev.Image != nil:
		ev.Image.OwnerID = c.User.UserID
	}
	if !r.doc.ApplyEvent(ev) {
		return
	}
	if ev.Type == state.EventDrawStroke {
		r.strokes[c.User.UserID] = append(r.strokes[c.User.UserID], ev.ID)
	}
	r.broadcast(ev)
}

// undoStroke removes the user's most recent stroke that is still on the board.
func (r *Room) undoStroke(userID string) {
	stack := r.strokes[userID]
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		ev := state.RemoveStrokeEvent(r.ID, id)
		if r.doc.ApplyEvent(ev) {
			r.strokes[userID] = stack
			r.broadcast(ev)
			return
		}
	}
	r.strokes[userID] = stack
}

// adoptGuest lets an anonymous connection keep the guest id its client
// generated, so ownership matches what the client shows. Callers hold r.mu.
func (r *Room) adoptGuest(c *Client, ev state.Event) {
	claimed := identity.Identity{UserID: ev.UserID, Username: ev.Username}
	if !c.User.Guest() || !claimed.Guest() || claimed == c.User {
		return
	}
	if r.inUse(c, claimed.UserID) {
		glog.Warningf("[RELAY] %s (%s) claimed guest id %s which is taken", c.User.UserID, c.ID, claimed.UserID)
		return
	}
	if claimed.Username == "" {
		claimed.Username = claimed.UserID
	}
	c.User = claimed
}

// inUse reports whether userID belongs to another member or already owns
// strokes in this room. Callers hold r.mu.
func (r *Room) inUse(c *Client, userID string) bool {
	if _, ok := r.strokes[userID]; ok {
		return true
	}
	for other := range r.clients {
		if other != c && other.User.UserID == userID {
			return true
		}
	}
	return false
}

func (r *Room) presence() state.Event {
	return state.Event{Type: state.EventPresence, DocumentID: r.ID, Users: r.roster()}
}

// roster lists connected users once each. Callers hold r.mu.
func (r *Room) roster() []state.Presence {
	seen := make(map[string]bool)
	users := []state.Presence{}
	for c := range r.clients {
		if seen[c.User.UserID] {
			continue
		}
		seen[c.User.UserID] = true
		users = append(users, state.Presence{UserID: c.User.UserID, Username: c.User.Username})
	}
	sortPresence(users)
	return users
}

// broadcast queues ev for every member, the sender included. Members dropped
// for lagging are announced with a fresh roster. Callers hold r.mu.
func (r *Room) broadcast(ev state.Event) {
	lagging := false
	for c := range r.clients {
		if !r.send(c, ev) {
			lagging = true
		}
	}
	if lagging {
		r.broadcast(r.presence())
	}
}

// send queues ev for c and reports false if c had to be dropped.
func (r *Room) send(c *Client, ev state.Event) bool {
	select {
	case c.out <- ev:
		return true
	default:
		glog.Warningf("[RELAY] %s (%s) is lagging in room %s, disconnecting", c.User.UserID, c.ID, r.ID)
		r.metrics.Dropped.Inc()
		r.drop(c)
		return false
	}
}

var relayedTypes = map[state.EventType]bool{
	state.EventJoin: true, state.EventPresence: true, state.EventUndoStroke: true,
	state.EventDrawStroke: true, state.EventRemoveStroke: true,
	state.EventAddTextBox: true, state.EventUpdateTextBox: true, state.EventRemoveTextBox: true,
	state.EventAddImage: true, state.EventUpdateImage: true, state.EventRemoveImage: true,
	state.EventAddShape: true, state.EventUpdateShape: true, state.EventRemoveShape: true,
	state.EventSetBackground: true, state.EventResizeCanvas: true, state.EventClearBoard: true,
}

// eventLabel keeps the metric's label set bounded whatever members send.
func eventLabel(t state.EventType) string {
	if relayedTypes[t] {
		return string(t)
	}
	return "unknown"
}
