package monitorstream

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestServerBroadcastsFrames(t *testing.T) {
	frame := []byte{1, 2, 3, 4}

	s := NewServer("", func() []byte { return frame })

	mux := httptest.NewServer(http.HandlerFunc(s.handleConn))
	defer mux.Close()

	wsURL := "ws" + mux.URL[len("http"):]
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	s.broadcast(frame)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, got, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if string(got) != string(frame) {
		t.Fatalf("got %v, want %v", got, frame)
	}
}

func TestServerDropsFrameForSlowClient(t *testing.T) {
	s := NewServer("", func() []byte { return nil })

	out := make(chan []byte, 1)
	out <- []byte{9}
	conn := (*websocket.Conn)(nil)
	s.mu.Lock()
	s.conns[conn] = out
	s.mu.Unlock()

	s.broadcast([]byte{1, 2})
	select {
	case <-out:
	default:
		t.Fatal("expected the buffered frame to still be present")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	s := NewServer(addr, func() []byte { return nil })

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := s.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
