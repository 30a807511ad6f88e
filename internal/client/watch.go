package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"task_manager/internal/domain"

	"github.com/gorilla/websocket"
)

// wsURL turns http(s)://host into ws(s)://host/ws?token=...
func (c *Client) wsURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	u.RawQuery = url.Values{"token": {c.Token()}}.Encode()
	return u.String(), nil
}

// Watch streams the owner's task events to fn until ctx is done or the
// connection fails. It returns nil when ctx ends the stream.
func (c *Client) Watch(ctx context.Context, fn func(domain.TaskEvent)) error {
	if c.Token() == "" {
		return ErrNoToken
	}
	target, err := c.wsURL()
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, resp, err := dialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil {
			return &APIError{Status: resp.StatusCode, Message: "event stream rejected"}
		}
		return fmt.Errorf("dial events: %w", err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}

		var ev domain.TaskEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			continue
		}
		if !strings.HasPrefix(ev.Type, "task.") {
			continue
		}
		fn(ev)
	}
}
