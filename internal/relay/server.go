package relay

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang/glog"
	"github.com/gorilla/websocket"

	"SharedBoard/internal/identity"
	"SharedBoard/internal/state"
)

const (
	writeTimeout = 10 * time.Second
	pongTimeout  = 60 * time.Second
	pingInterval = 25 * time.Second
)

// Server exposes a relay over websockets.
type Server struct {
	relay    *Relay
	verifier *identity.Verifier
	upgrader websocket.Upgrader
}

func NewServer(relay *Relay, verifier *identity.Verifier) *Server {
	return &Server{
		relay:    relay,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Routes mounts the room endpoint and metrics.
func (s *Server) Routes(r chi.Router) {
	r.Get("/ws/{document}", s.serveRoom)
	r.Handle("/metrics", s.relay.Metrics().Handler())
}

func (s *Server) serveRoom(w http.ResponseWriter, req *http.Request) {
	documentID, err := url.PathUnescape(chi.URLParam(req, "document"))
	if err != nil || documentID == "" {
		http.Error(w, "bad document id", http.StatusBadRequest)
		return
	}
	user, err := s.verifier.Authenticate(req)
	if err != nil {
		glog.Warningf("[RELAY] rejected connection to %s: %v", documentID, err)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ws, err := s.upgrader.Upgrade(w, req, nil)
	if err != nil {
		glog.Errorf("[RELAY] upgrade %s: %v", req.RemoteAddr, err)
		return
	}
	client := s.relay.Join(documentID, user)
	go s.writeLoop(ws, client)
	s.readLoop(ws, client)
}

func (s *Server) readLoop(ws *websocket.Conn, client *Client) {
	defer client.Close()
	ws.SetReadDeadline(time.Now().Add(pongTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongTimeout))
	})
	for {
		_, r, err := ws.NextReader()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				glog.Infof("[RELAY] %s read error = %v", client.ID, err)
			}
			return
		}
		var ev state.Event
		if err := json.NewDecoder(r).Decode(&ev); err != nil {
			// a broken transport resurfaces on the next NextReader
			glog.Warningf("[RELAY] %s sent a malformed frame: %v", client.ID, err)
			continue
		}
		client.Handle(ev)
	}
}

func (s *Server) writeLoop(ws *websocket.Conn, client *Client) {
	defer ws.Close()
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-client.Events():
			ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := ws.WriteJSON(ev); err != nil {
				glog.Infof("[RELAY] %s write error = %v", client.ID, err)
				client.Close()
				return
			}
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				client.Close()
				return
			}
		}
	}
}
