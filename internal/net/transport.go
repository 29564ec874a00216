package net

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"

	"SharedBoard/internal/state"
)

var ErrClosed = errors.New("net: connection closed")

const (
	SendBufferSize = 256
	writeTimeout   = 10 * time.Second
	readTimeout    = 60 * time.Second
	pingInterval   = 25 * time.Second
)

// RoomURL builds the websocket address of a document room from a relay base
// address such as ws://host:8888 or http://host:8888.
func RoomURL(base, documentID string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("relay url %q: %w", base, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("relay url %q: unsupported scheme", base)
	}
	prefix := strings.TrimSuffix(u.Path, "/") + "/ws/"
	u.Path = prefix + documentID
	u.RawPath = prefix + url.PathEscape(documentID)
	return u.String(), nil
}

// Conn is a client connection to a relay room. Sends never block the caller;
// they are queued and written by a background goroutine.
type Conn struct {
	ws   *websocket.Conn
	send chan state.Event

	ctx    context.Context
	cancel context.CancelFunc

	mu  sync.Mutex
	err error
}

// Dial connects to a room. token may be empty for a guest.
func Dial(ctx context.Context, roomURL, token string) (*Conn, error) {
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, roomURL, header)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", roomURL, err)
	}
	cancelCtx, cancel := context.WithCancel(context.Background())
	c := &Conn{
		ws:     ws,
		send:   make(chan state.Event, SendBufferSize),
		ctx:    cancelCtx,
		cancel: cancel,
	}
	go c.writeLoop()
	return c, nil
}

// Send queues ev for the relay.
func (c *Conn) Send(ev state.Event) error {
	select {
	case <-c.ctx.Done():
		return c.Err()
	default:
	}
	select {
	case c.send <- ev:
		return nil
	default:
		return fmt.Errorf("send %s: queue full", ev.Type)
	}
}

// Run reads events until the connection drops, handing each to receive. It
// returns the reason the connection ended.
func (c *Conn) Run(receive func(state.Event)) error {
	defer c.fail(ErrClosed)
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(readTimeout))
	})
	for {
		c.ws.SetReadDeadline(time.Now().Add(readTimeout))
		_, r, err := c.ws.NextReader()
		if err != nil {
			select {
			case <-c.ctx.Done():
				return c.Err()
			default:
			}
			c.fail(err)
			return err
		}
		var ev state.Event
		if err := json.NewDecoder(r).Decode(&ev); err != nil {
			glog.Warningf("[NET] dropped malformed frame: %v", err)
			continue
		}
		receive(ev)
	}
}

// Close ends the connection. Run returns ErrClosed.
func (c *Conn) Close() error {
	c.fail(ErrClosed)
	return nil
}

// Err reports why the connection ended, or nil while it is open.
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Conn) fail(err error) {
	c.mu.Lock()
	if c.err == nil {
		c.err = err
	}
	c.mu.Unlock()
	c.cancel()
}

func (c *Conn) writeLoop() {
	defer c.ws.Close()
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case ev := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.ws.WriteJSON(ev); err != nil {
				glog.Infof("[NET] write %s error = %v", ev.Type, err)
				c.fail(err)
				return
			}
			glog.V(2).Infof("[NET] -> %s", ev.Type)
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.fail(err)
				return
			}
		}
	}
}
