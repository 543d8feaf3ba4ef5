// Package monitorstream broadcasts a Decoder's monitor grid snapshots to
// connected websocket viewers, so the scope display can live in a
// separate process (or browser) from the decode loop.
package monitorstream

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1 << 16,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server polls a snapshot source on a fixed interval and pushes each new
// frame to every connected websocket client as a binary message.
type Server struct {
	addr   string
	source func() []byte

	mu    sync.Mutex
	conns map[*websocket.Conn]chan []byte
}

// NewServer returns a Server that listens on addr and serves frames
// produced by source, called once per broadcast tick.
func NewServer(addr string, source func() []byte) *Server {
	return &Server{
		addr:   addr,
		source: source,
		conns:  make(map[*websocket.Conn]chan []byte),
	}
}

// Run serves the websocket endpoint and broadcasts a frame roughly 20
// times per second until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/monitor", s.handleConn)

	server := &http.Server{Addr: s.addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			server.Close()
			return nil
		case err := <-errCh:
			if err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("monitorstream: listen on %s: %w", s.addr, err)
			}
			return nil
		case <-ticker.C:
			s.broadcast(s.source())
		}
	}
}

func (s *Server) handleConn(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	out := make(chan []byte, 4)
	s.mu.Lock()
	s.conns[conn] = out
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	for frame := range out {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			return
		}
	}
}

// broadcast queues frame for every connected client, dropping it for any
// client whose outbound buffer is still full rather than blocking the
// poll loop on a slow viewer.
func (s *Server) broadcast(frame []byte) {
	if frame == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, out := range s.conns {
		select {
		case out <- frame:
		default:
		}
	}
}
