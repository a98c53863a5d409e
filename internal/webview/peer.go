package webview

import (
	"sync"
	"time"

	"github.com/bethropolis/hubmark/internal/logger"
	"github.com/bethropolis/hubmark/internal/surface"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 << 20
	sendBuffer     = 1024

	// closeSuperseded tells a page that a newer page took over, so it must
	// not reconnect.
	closeSuperseded = 4000
)

type pendingExec struct {
	script   string
	onResult surface.ResultFunc
}

// peer is one connected page.
type peer struct {
	conn   *websocket.Conn
	remote string
	send   chan []byte
	done   chan struct{}

	mu         sync.Mutex
	closed     bool
	superseded bool
	results    map[uint64]pendingExec
}

func newPeer(conn *websocket.Conn, remote string) *peer {
	return &peer{
		conn:    conn,
		remote:  remote,
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
		results: make(map[uint64]pendingExec),
	}
}

// enqueue queues a message without blocking. A page that cannot keep up is
// dropped; it reconnects and the host re-pushes its state.
func (p *peer) enqueue(msg []byte) bool {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}
	select {
	case p.send <- msg:
		p.mu.Unlock()
		return true
	default:
		p.mu.Unlock()
		logger.Warnf("webview: page %s is not reading, dropping it", p.remote)
		p.close()
		return false
	}
}

// expect registers a result callback for id. It fails if the peer is gone.
func (p *peer) expect(id uint64, e pendingExec) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	p.results[id] = e
	return true
}

func (p *peer) resolve(id uint64) (pendingExec, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.results[id]
	delete(p.results, id)
	return e, ok
}

// supersede closes the peer because a newer page connected.
func (p *peer) supersede() {
	p.mu.Lock()
	p.superseded = true
	p.mu.Unlock()
	p.close()
}

// close fails every outstanding result and tells the write pump to hang up.
func (p *peer) close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	pending := p.results
	p.results = nil
	close(p.done)
	p.mu.Unlock()

	for _, e := range pending {
		e.onResult(nil, surface.ErrPeerGone)
	}
}

// writePump is the only writer on the connection, which keeps frames in
// the order they were queued.
func (p *peer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		p.close()
		p.conn.Close()
	}()

	for {
		select {
		case msg := <-p.send:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.DebugTagf("webview", "write to %s: %v", p.remote, err)
				return
			}
		case <-ticker.C:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-p.done:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
			p.mu.Lock()
			if p.superseded {
				msg = websocket.FormatCloseMessage(closeSuperseded, "superseded")
			}
			p.mu.Unlock()
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			p.conn.WriteMessage(websocket.CloseMessage, msg)
			return
		}
	}
}
