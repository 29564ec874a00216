package relay

import (
	"errors"
	"sync"

	"SharedBoard/internal/identity"
	"SharedBoard/internal/state"
)

var ErrPipeClosed = errors.New("relay: pipe closed")

// Pipe is an in-process connection to a room. It queues and delivers events
// exactly like a websocket member, which makes it handy for embedding the
// relay and for tests.
type Pipe struct {
	client *Client

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// Pipe joins documentID as user. receive is called from a separate goroutine
// for every event, in order; closed runs once the member is gone.
func (r *Relay) Pipe(documentID string, user identity.Identity, receive func(state.Event), closed func(error)) *Pipe {
	p := &Pipe{client: r.Join(documentID, user), done: make(chan struct{})}
	go func() {
		defer close(p.done)
		for ev := range p.client.Events() {
			receive(ev)
		}
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		if closed != nil {
			closed(ErrPipeClosed)
		}
	}()
	return p
}

func (p *Pipe) Send(ev state.Event) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrPipeClosed
	}
	p.client.Handle(ev)
	return nil
}

// Close leaves the room and waits for pending deliveries to finish.
func (p *Pipe) Close() {
	p.client.Close()
	<-p.done
}
