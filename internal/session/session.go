// Package session is one connected client: its copy of the document, its
// private undo history, its edit pipeline and viewport, and the room roster.
package session

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/golang/glog"

	"SharedBoard/internal/edit"
	"SharedBoard/internal/identity"
	"SharedBoard/internal/state"
	"SharedBoard/internal/undo"
	"SharedBoard/internal/viewport"
)

// ErrDisconnected is returned by commits attempted while the relay is unreachable.
var ErrDisconnected = errors.New("session: disconnected")

// Channel is the outbound side of a relay connection.
type Channel interface {
	Send(ev state.Event) error
}

type Config struct {
	DocumentID string
	Canvas     state.Size
	Viewport   viewport.Config
	Minimap    viewport.Minimap
	UndoLimit  int
}

type Session struct {
	mu sync.Mutex

	cfg      Config
	user     identity.Identity
	doc      *state.Document
	history  *undo.Manager
	view     *viewport.Manager
	pipeline *edit.Pipeline

	ch        Channel
	connected bool
	roster    []state.Presence

	// OnEvent sees every inbound event after it was applied.
	OnEvent func(ev state.Event, changed bool)
	// OnRoster fires whenever the relay sends a new membership list.
	OnRoster func(users []state.Presence)
	// OnConnectivityLost fires once per transport drop.
	OnConnectivityLost func(err error)
}

// committer is the commit path the pipeline and undo manager emit through.
// Callers already hold s.mu.
type committer struct {
	s *Session
}

func (c committer) Emit(ev state.Event) error {
	return c.s.emit(ev)
}

func New(cfg Config, user identity.Identity) *Session {
	s := &Session{cfg: cfg, user: user}
	s.doc = state.NewDocument(cfg.DocumentID, cfg.Canvas)
	s.history = undo.NewManager(cfg.DocumentID, cfg.UndoLimit, committer{s})
	s.view = viewport.NewManager(cfg.Viewport, s.doc)
	s.view.OnGrow = s.grow
	s.pipeline = edit.NewPipeline(s.doc, user.UserID, committer{s}, s.history, s.view)
	return s
}

// Connect attaches a relay channel and announces this client to the room.
// The relay answers with a replay that replaces the local document.
func (s *Session) Connect(ch Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ch.Send(state.JoinEvent(s.cfg.DocumentID)); err != nil {
		return fmt.Errorf("join %s: %w", s.cfg.DocumentID, err)
	}
	if err := ch.Send(state.PresenceEvent(s.cfg.DocumentID, s.user.UserID, s.user.Username)); err != nil {
		return fmt.Errorf("presence %s: %w", s.cfg.DocumentID, err)
	}
	s.ch = ch
	s.connected = true
	glog.Infof("[SESSION] %s joined %s", s.user.UserID, s.cfg.DocumentID)
	return nil
}

// Rejoin reattaches after a drop. Undo history survives; nothing attempted
// while offline is replayed.
func (s *Session) Rejoin(ch Channel) error {
	return s.Connect(ch)
}

// Lost is called by the transport when the connection drops. The draft is
// discarded and further commits fail until Rejoin.
func (s *Session) Lost(err error) {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return
	}
	s.connected = false
	s.ch = nil
	s.roster = nil
	s.pipeline.Abort()
	cb := s.OnConnectivityLost
	s.mu.Unlock()

	glog.Infof("[SESSION] %s lost %s: %v", s.user.UserID, s.cfg.DocumentID, err)
	if cb != nil {
		cb(err)
	}
}

func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Receive applies one inbound event from the relay. Own echoes and peer edits
// are treated alike; the undo stacks are never touched here.
func (s *Session) Receive(ev state.Event) {
	if ev.DocumentID != "" && ev.DocumentID != s.cfg.DocumentID {
		glog.Warningf("[SESSION] dropping %s for document %s", ev.Type, ev.DocumentID)
		return
	}

	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return
	}
	var roster []state.Presence
	changed := false
	if ev.Type == state.EventPresence {
		s.roster = slices.Clone(ev.Users)
		roster = slices.Clone(ev.Users)
	} else if ev.Mutates() {
		changed = s.doc.ApplyEvent(ev)
	}
	onEvent, onRoster := s.OnEvent, s.OnRoster
	s.mu.Unlock()

	if glog.V(2) {
		glog.Infof("[SESSION] %s <- %s id=%s", s.user.UserID, ev.Type, ev.EntityID())
	}
	if roster != nil && onRoster != nil {
		onRoster(roster)
	}
	if onEvent != nil {
		onEvent(ev, changed)
	}
}

// emit sends ev and, once it is on its way, applies it locally. A failed send
// leaves the document untouched.
func (s *Session) emit(ev state.Event) error {
	if !s.connected {
		return ErrDisconnected
	}
	if err := s.ch.Send(ev); err != nil {
		return fmt.Errorf("send %s: %w", ev.Type, err)
	}
	if ev.Mutates() {
		s.doc.ApplyEvent(ev)
	}
	if glog.V(2) {
		glog.Infof("[SESSION] %s -> %s id=%s", s.user.UserID, ev.Type, ev.EntityID())
	}
	return nil
}

// grow commits a canvas resize computed by the viewport manager.
func (s *Session) grow(size state.Size) {
	if err := s.emit(state.ResizeCanvasEvent(s.cfg.DocumentID, size)); err != nil {
		glog.Errorf("[SESSION] resize %s: %v", s.cfg.DocumentID, err)
	}
}

func (s *Session) Identity() identity.Identity {
	return s.user
}

func (s *Session) DocumentID() string {
	return s.cfg.DocumentID
}

func (s *Session) Snapshot() state.Snapshot {
	return s.doc.Snapshot()
}

func (s *Session) Layers() []state.Layer {
	return s.doc.Snapshot().Layers()
}

func (s *Session) Roster() []state.Presence {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.roster)
}
