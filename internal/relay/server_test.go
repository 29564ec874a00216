package relay_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/assert/v2"
	"github.com/gorilla/websocket"

	"SharedBoard/internal/edit"
	"SharedBoard/internal/identity"
	boardnet "SharedBoard/internal/net"
	"SharedBoard/internal/relay"
	"SharedBoard/internal/session"
	"SharedBoard/internal/state"
	"SharedBoard/internal/viewport"
)

func startServer(t *testing.T, secret string) (*httptest.Server, *relay.Relay) {
	t.Helper()
	r := relay.New(canvas, nil)
	router := chi.NewRouter()
	relay.NewServer(r, identity.NewVerifier(secret)).Routes(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, r
}

func dialSession(t *testing.T, srv *httptest.Server, token string) *session.Session {
	t.Helper()
	url, err := boardnet.RoomURL(srv.URL, docID)
	assert.Equal(t, nil, err)
	conn, err := boardnet.Dial(context.Background(), url, token)
	assert.Equal(t, nil, err)
	t.Cleanup(func() { conn.Close() })

	s := session.New(session.Config{
		DocumentID: docID,
		Canvas:     canvas,
		Viewport:   viewport.DefaultConfig(),
	}, identity.OrGuest(token))
	assert.Equal(t, nil, s.Connect(conn))
	go func() {
		s.Lost(conn.Run(s.Receive))
	}()
	return s
}

func TestWebsocketRoundTrip(t *testing.T) {
	srv, r := startServer(t, "")
	alice := dialSession(t, srv, "")
	bob := dialSession(t, srv, "")

	assert.Equal(t, nil, alice.PointerDown(state.Point{X: 10, Y: 10}))
	alice.PointerMove(state.Point{X: 30, Y: 30})
	assert.Equal(t, nil, alice.PointerUp(state.Point{X: 30, Y: 30}))

	waitFor(t, "stroke on bob", func() bool { return len(bob.Snapshot().Strokes) == 1 })
	room, _ := r.Room(docID)
	waitFor(t, "alice reconciled", func() bool {
		return alice.Snapshot().Strokes[0].ID == room.Snapshot().Strokes[0].ID
	})
	assert.Equal(t, alice.Identity().UserID, bob.Snapshot().Strokes[0].OwnerID)
	assert.Equal(t, true, alice.Identity().Guest())

	assert.Equal(t, nil, alice.Undo())
	waitFor(t, "stroke undone on bob", func() bool { return len(bob.Snapshot().Strokes) == 0 })
	waitFor(t, "roster", func() bool { return len(bob.Roster()) == 2 })
}

func TestWebsocketRequiresValidCredential(t *testing.T) {
	srv, _ := startServer(t, "secret")
	url, _ := boardnet.RoomURL(srv.URL, docID)

	_, err := boardnet.Dial(context.Background(), url, "garbage")
	assert.NotEqual(t, nil, err)

	token, _ := identity.NewVerifier("secret").Issue(identity.Identity{UserID: "carol", Username: "Carol"})
	carol := dialSession(t, srv, token)
	assert.Equal(t, nil, carol.SetTool(edit.Fill()))
	assert.Equal(t, "carol", carol.Identity().UserID)
}

func TestDroppedConnectionIsReported(t *testing.T) {
	srv, _ := startServer(t, "")
	url, _ := boardnet.RoomURL(srv.URL, docID)
	conn, err := boardnet.Dial(context.Background(), url, "")
	assert.Equal(t, nil, err)

	s := session.New(session.Config{DocumentID: docID, Canvas: canvas, Viewport: viewport.DefaultConfig()}, identity.NewGuest())
	lost := make(chan error, 1)
	s.OnConnectivityLost = func(err error) { lost <- err }
	assert.Equal(t, nil, s.Connect(conn))
	go func() { s.Lost(conn.Run(s.Receive)) }()

	conn.Close()
	assert.Equal(t, boardnet.ErrClosed, <-lost)
	assert.Equal(t, session.ErrDisconnected, s.ClearBoard())
}

func TestMalformedFrameKeepsMemberConnected(t *testing.T) {
	srv, r := startServer(t, "")
	url, _ := boardnet.RoomURL(srv.URL, docID)
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	assert.Equal(t, nil, err)
	defer ws.Close()

	assert.Equal(t, nil, ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"drawStroke","documentId":"wb","stroke":{"points":"oops"}}`)))
	assert.Equal(t, nil, ws.WriteMessage(websocket.TextMessage, []byte(`{"type":`)))
	assert.Equal(t, nil, ws.WriteJSON(state.JoinEvent(docID)))

	ws.SetReadDeadline(time.Now().Add(3 * time.Second))
	var ev state.Event
	assert.Equal(t, nil, ws.ReadJSON(&ev))
	assert.Equal(t, state.EventReplay, ev.Type)

	room, _ := r.Room(docID)
	assert.Equal(t, 1, room.Members())
	assert.Equal(t, 0, len(room.Snapshot().Strokes))
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := startServer(t, "")
	s := dialSession(t, srv, "")
	waitFor(t, "joined", func() bool { return len(s.Roster()) == 1 })

	res, err := http.Get(srv.URL + "/metrics")
	assert.Equal(t, nil, err)
	defer res.Body.Close()
	body, _ := io.ReadAll(res.Body)
	assert.Equal(t, true, strings.Contains(string(body), "sharedboard_relay_connections 1"))
	assert.Equal(t, true, strings.Contains(string(body), `sharedboard_relay_events_total{type="join"} 1`))
}

func TestRoomURL(t *testing.T) {
	got, err := boardnet.RoomURL("http://10.0.0.5:8888/", "team board")
	assert.Equal(t, nil, err)
	assert.Equal(t, "ws://10.0.0.5:8888/ws/team%20board", got)

	_, err = boardnet.RoomURL("ftp://x", "wb")
	assert.NotEqual(t, nil, err)
}
