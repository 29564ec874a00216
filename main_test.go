package main

import (
	"errors"
	"testing"

	"github.com/go-playground/assert/v2"

	"SharedBoard/internal/identity"
	"SharedBoard/internal/session"
	"SharedBoard/internal/state"
	"SharedBoard/internal/viewport"
)

type flakyConn struct {
	err    error
	sent   []state.Event
	closed bool
}

func (c *flakyConn) Send(ev state.Event) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, ev)
	return nil
}

func (c *flakyConn) Close() error {
	c.closed = true
	return nil
}

func newTestSession() *session.Session {
	return session.New(session.Config{
		DocumentID: "wb",
		Canvas:     state.Size{Width: 2000, Height: 1500},
		Viewport:   viewport.DefaultConfig(),
	}, identity.Identity{UserID: "alice", Username: "Alice"})
}

func TestRejoinClosesConnectionOnFailure(t *testing.T) {
	s := newTestSession()
	bad := &flakyConn{err: errors.New("queue full")}
	assert.NotEqual(t, nil, rejoin(s, bad))
	assert.Equal(t, true, bad.closed)
	assert.Equal(t, false, s.Connected())

	good := &flakyConn{}
	assert.Equal(t, nil, rejoin(s, good))
	assert.Equal(t, false, good.closed)
	assert.Equal(t, true, s.Connected())
	assert.Equal(t, state.EventJoin, good.sent[0].Type)
}

func TestParsePoints(t *testing.T) {
	pts, err := parsePoints([]string{"10,20", "30.5,-4"})
	assert.Equal(t, nil, err)
	assert.Equal(t, []state.Point{{X: 10, Y: 20}, {X: 30.5, Y: -4}}, pts)

	_, err = parsePoints([]string{"10;20"})
	assert.NotEqual(t, nil, err)
}
