package engine

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"

	"clipstudio/internal/reconcile"
)

// NewDialer returns a reconcile.Dialer that opens the engine's websocket
// event endpoint. The coordinator owns retry; a dialer attempt either
// succeeds or fails once.
func NewDialer(eventsURL string) reconcile.Dialer {
	return func(ctx context.Context) (reconcile.Conn, error) {
		ws, resp, err := websocket.DefaultDialer.DialContext(ctx, eventsURL, nil)
		if err != nil {
			if resp != nil {
				return nil, fmt.Errorf("engine: dial %s: status %d: %w", eventsURL, resp.StatusCode, err)
			}
			return nil, fmt.Errorf("engine: dial %s: %w", eventsURL, err)
		}
		return &wsConn{ws: ws}, nil
	}
}

type wsConn struct {
	ws *websocket.Conn
}

func (c *wsConn) Read() ([]byte, error) {
	_, data, err := c.ws.ReadMessage()
	return data, err
}

func (c *wsConn) Close() error {
	return c.ws.Close()
}
