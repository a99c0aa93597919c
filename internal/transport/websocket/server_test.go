package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func startHub(t *testing.T) (*Hub, *httptest.Server, context.CancelFunc) {
	t.Helper()

	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.HandleWebSocket(w, r)
	}))
	t.Cleanup(server.Close)

	return hub, server, cancel
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := "ws" + server.URL[4:]
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	return conn
}

func TestHub_RegisterAndUnregister(t *testing.T) {
	hub, server, cancel := startHub(t)
	defer cancel()

	conn := dial(t, server)
	defer conn.Close()

	time.Sleep(100 * time.Millisecond)

	hub.mu.RLock()
	count := len(hub.connections)
	hub.mu.RUnlock()
	if count != 1 {
		t.Fatalf("Expected 1 connection, got %d", count)
	}

	conn.Close()
	time.Sleep(100 * time.Millisecond)

	hub.mu.RLock()
	count = len(hub.connections)
	hub.mu.RUnlock()
	if count != 0 {
		t.Fatalf("Connection should be unregistered, got %d", count)
	}
}

func TestHub_Broadcast(t *testing.T) {
	hub, server, cancel := startHub(t)
	defer cancel()

	conn := dial(t, server)
	defer conn.Close()

	time.Sleep(100 * time.Millisecond)

	hub.Broadcast(&Message{
		Type:    "sync_progress",
		Channel: "sync",
		Data:    map[string]interface{}{"processed": 10},
	})

	conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	var received Message
	if err := conn.ReadJSON(&received); err != nil {
		t.Fatalf("Failed to read message: %v", err)
	}

	if received.Type != "sync_progress" {
		t.Errorf("Expected type 'sync_progress', got '%s'", received.Type)
	}
	if received.Channel != "sync" {
		t.Errorf("Expected channel 'sync', got '%s'", received.Channel)
	}
}

func TestHub_BroadcastReachesAllConnections(t *testing.T) {
	hub, server, cancel := startHub(t)
	defer cancel()

	var conns []*websocket.Conn
	for i := 0; i < 3; i++ {
		conn := dial(t, server)
		conns = append(conns, conn)
		defer conn.Close()
	}

	time.Sleep(100 * time.Millisecond)

	hub.mu.RLock()
	count := len(hub.connections)
	hub.mu.RUnlock()
	if count != 3 {
		t.Fatalf("Expected 3 connections, got %d", count)
	}

	hub.Broadcast(&Message{
		Type: "sync_complete",
		Data: map[string]interface{}{"created": 5},
	})

	var wg sync.WaitGroup
	for i, conn := range conns {
		wg.Add(1)
		go func(idx int, c *websocket.Conn) {
			defer wg.Done()
			c.SetReadDeadline(time.Now().Add(1 * time.Second))
			var received Message
			if err := c.ReadJSON(&received); err != nil {
				t.Errorf("Connection %d failed to read message: %v", idx, err)
				return
			}
			if received.Type != "sync_complete" {
				t.Errorf("Connection %d: Expected type 'sync_complete', got '%s'", idx, received.Type)
			}
		}(i, conn)
	}

	wg.Wait()
}

func TestHub_BroadcastChannelFull(t *testing.T) {
	hub := NewHub()
	hub.broadcast = make(chan *Message, 1)

	hub.broadcast <- &Message{Type: "fill"}

	hub.Broadcast(&Message{Type: "dropped"})

	select {
	case msg := <-hub.broadcast:
		if msg.Type == "dropped" {
			t.Error("Message should be dropped when channel is full")
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("Expected the fill message to remain in the channel")
	}
}

func TestHub_ShutdownClosesConnections(t *testing.T) {
	hub, server, cancel := startHub(t)
	_ = hub

	conn := dial(t, server)

	time.Sleep(50 * time.Millisecond)

	cancel()
	time.Sleep(100 * time.Millisecond)

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("Expected connection to be closed after hub shutdown")
	}

	conn.Close()
}
