package clients

import (
	"context"

	ws "pipedrive-sync/internal/transport/websocket"
)

type WebSocketClient struct {
	hub *ws.Hub
}

func NewWebSocketClient(hub *ws.Hub) *WebSocketClient {
	return &WebSocketClient{
		hub: hub,
	}
}

func (c *WebSocketClient) notify(msgType, channel string, data map[string]interface{}) error {
	if c.hub == nil {
		return nil
	}
	c.hub.Broadcast(&ws.Message{
		Type:    msgType,
		Channel: channel,
		Data:    data,
	})
	return nil
}

// NotifySyncProgress reports how far a sync run got.
func (c *WebSocketClient) NotifySyncProgress(ctx context.Context, runKey string, processed, total int, stage string) error {
	data := map[string]interface{}{
		"id":        runKey,
		"processed": processed,
		"total":     total,
	}
	if stage != "" {
		data["stage"] = stage
	}
	return c.notify("sync_progress", "sync_runs", data)
}

// NotifySyncComplete publishes the final counters of a run.
func (c *WebSocketClient) NotifySyncComplete(ctx context.Context, runKey string, stats interface{}) error {
	return c.notify("sync_complete", "sync_runs", map[string]interface{}{
		"id":    runKey,
		"stats": stats,
	})
}

func (c *WebSocketClient) NotifySyncFailed(ctx context.Context, runKey string, errMsg string) error {
	return c.notify("sync_failed", "sync_runs", map[string]interface{}{
		"id":      runKey,
		"message": errMsg,
	})
}

func (c *WebSocketClient) NotifyExportProgress(ctx context.Context, exportID string, progress float64, stage string) error {
	data := map[string]interface{}{
		"id":       exportID,
		"progress": progress,
	}
	if stage != "" {
		data["stage"] = stage
	}
	return c.notify("export_progress", "exports", data)
}

func (c *WebSocketClient) NotifyExportComplete(ctx context.Context, exportID string, url string, filename string) error {
	return c.notify("export_complete", "exports", map[string]interface{}{
		"id":       exportID,
		"url":      url,
		"filename": filename,
	})
}

// NotifyExportFailed reports a failed export with the error message.
func (c *WebSocketClient) NotifyExportFailed(ctx context.Context, exportID string, errMsg string) error {
	return c.notify("export_failed", "exports", map[string]interface{}{
		"id":      exportID,
		"message": errMsg,
	})
}
