package net

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
	"github.com/gorilla/websocket"

	"SharedBoard/internal/state"
)

// startRelay runs a websocket endpoint that writes frames to each client and
// then waits for it to hang up.
func startRelay(t *testing.T, frames ...string) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ws, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		for _, f := range frames {
			ws.WriteMessage(websocket.TextMessage, []byte(f))
		}
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	url, err := RoomURL(srv.URL, "wb")
	assert.Equal(t, nil, err)
	return url
}

func TestMalformedFrameIsDropped(t *testing.T) {
	url := startRelay(t,
		`{"type":"replay","replay":"oops"}`,
		`{"type":"drawStroke","stroke":{"points":"oops"}}`,
		`not json`,
		`{"type":"presence","documentId":"wb","users":[{"userId":"alice","username":"Alice"}]}`,
	)
	conn, err := Dial(context.Background(), url, "")
	assert.Equal(t, nil, err)

	received := make(chan state.Event, 4)
	done := make(chan error, 1)
	go func() { done <- conn.Run(func(ev state.Event) { received <- ev }) }()

	select {
	case ev := <-received:
		assert.Equal(t, state.EventPresence, ev.Type)
		assert.Equal(t, []state.Presence{{UserID: "alice", Username: "Alice"}}, ev.Users)
	case <-time.After(3 * time.Second):
		t.Fatal("valid frame after malformed ones never arrived")
	}
	assert.Equal(t, nil, conn.Err())

	conn.Close()
	select {
	case err := <-done:
		assert.Equal(t, ErrClosed, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return after Close")
	}
}

func TestSendAfterCloseFails(t *testing.T) {
	conn, err := Dial(context.Background(), startRelay(t), "")
	assert.Equal(t, nil, err)
	conn.Close()
	assert.Equal(t, ErrClosed, conn.Send(state.JoinEvent("wb")))
}
