package clients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	ws "pipedrive-sync/internal/transport/websocket"

	"github.com/gorilla/websocket"
)

func startHubServer(t *testing.T) (*ws.Hub, *websocket.Conn) {
	t.Helper()

	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.HandleWebSocket(w, r)
	}))
	t.Cleanup(server.Close)

	wsURL := "ws" + server.URL[4:]
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	time.Sleep(100 * time.Millisecond)
	return hub, conn
}

func readData(t *testing.T, conn *websocket.Conn) (ws.Message, map[string]interface{}) {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	var received ws.Message
	if err := conn.ReadJSON(&received); err != nil {
		t.Fatalf("Failed to read message: %v", err)
	}

	dataBytes, err := json.Marshal(received.Data)
	if err != nil {
		t.Fatalf("Failed to marshal data: %v", err)
	}
	var data map[string]interface{}
	if err := json.Unmarshal(dataBytes, &data); err != nil {
		t.Fatalf("Failed to unmarshal data: %v", err)
	}
	return received, data
}

func TestWebSocketClient_NotifySyncProgress(t *testing.T) {
	hub, conn := startHubServer(t)
	client := NewWebSocketClient(hub)

	if err := client.NotifySyncProgress(context.Background(), "runs:abc", 25, 100, "sincronizando"); err != nil {
		t.Fatalf("Failed to notify progress: %v", err)
	}

	received, data := readData(t, conn)
	if received.Type != "sync_progress" {
		t.Errorf("Expected type 'sync_progress', got '%s'", received.Type)
	}
	if received.Channel != "sync_runs" {
		t.Errorf("Expected channel 'sync_runs', got '%s'", received.Channel)
	}
	if data["id"] != "runs:abc" {
		t.Errorf("Expected id 'runs:abc', got '%v'", data["id"])
	}
	if data["processed"].(float64) != 25 {
		t.Errorf("Expected processed 25, got %v", data["processed"])
	}
	if data["stage"] != "sincronizando" {
		t.Errorf("Expected stage 'sincronizando', got '%v'", data["stage"])
	}
}

func TestWebSocketClient_NotifySyncComplete(t *testing.T) {
	hub, conn := startHubServer(t)
	client := NewWebSocketClient(hub)

	stats := map[string]int{"persons_created": 3}
	if err := client.NotifySyncComplete(context.Background(), "runs:abc", stats); err != nil {
		t.Fatalf("Failed to notify complete: %v", err)
	}

	received, data := readData(t, conn)
	if received.Type != "sync_complete" {
		t.Errorf("Expected type 'sync_complete', got '%s'", received.Type)
	}
	if data["id"] != "runs:abc" {
		t.Errorf("Expected id 'runs:abc', got '%v'", data["id"])
	}
}

func TestWebSocketClient_NotifyExportComplete(t *testing.T) {
	hub, conn := startHubServer(t)
	client := NewWebSocketClient(hub)

	err := client.NotifyExportComplete(context.Background(), "exports:1", "https://example.com/file.xlsx", "entidades_20260801.xlsx")
	if err != nil {
		t.Fatalf("Failed to notify complete: %v", err)
	}

	received, data := readData(t, conn)
	if received.Type != "export_complete" {
		t.Errorf("Expected type 'export_complete', got '%s'", received.Type)
	}
	if data["url"] != "https://example.com/file.xlsx" {
		t.Errorf("Expected url, got '%v'", data["url"])
	}
	if data["filename"] != "entidades_20260801.xlsx" {
		t.Errorf("Expected filename, got '%v'", data["filename"])
	}
}

func TestWebSocketClient_NilHub(t *testing.T) {
	client := NewWebSocketClient(nil)

	if err := client.NotifySyncProgress(context.Background(), "runs:abc", 1, 2, ""); err != nil {
		t.Errorf("Should not return error with nil hub, got: %v", err)
	}
	if err := client.NotifyExportFailed(context.Background(), "exports:1", "upload failed"); err != nil {
		t.Errorf("Should not return error with nil hub, got: %v", err)
	}
}
