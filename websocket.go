package freeathome

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// EventPayload is the per-SysAP body of a push notification: the inner
// mapping nested under the system identifier, not the outer envelope.
type EventPayload struct {
	// Datapoints maps "serial/channel/datapoint" identifiers to their new
	// string values.
	Datapoints map[string]string `json:"datapoints"`

	Devices         json.RawMessage `json:"devices,omitempty"`
	DevicesAdded    []string        `json:"devicesAdded,omitempty"`
	DevicesRemoved  []string        `json:"devicesRemoved,omitempty"`
	ScenesTriggered json.RawMessage `json:"scenesTriggered,omitempty"`
}

// EventHandler consumes one event payload. Handlers run synchronously on
// the caller's receive loop; spawn a goroutine inside the handler if
// processing must not block the stream.
type EventHandler func(payload *EventPayload)

// wsChannel holds the client's single WebSocket connection. The
// connection handle is replaced wholesale on each successful connect and
// never aliased elsewhere.
type wsChannel struct {
	mu    sync.Mutex
	conn  *websocket.Conn
	alive bool
}

// connected reports whether a connection handle exists and has not been
// marked dead by a read failure or disconnect.
func (w *wsChannel) connected() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn != nil && w.alive
}

// current returns the live connection handle, or nil.
func (w *wsChannel) current() *websocket.Conn {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.alive {
		return nil
	}
	return w.conn
}

// markDead flags conn as no longer usable. A newer connection that has
// already replaced conn is left untouched.
func (w *wsChannel) markDead(conn *websocket.Conn) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn == conn {
		w.alive = false
	}
}

// receiveOutcome classifies one pass of the receive loop. Expected
// transient failures are an outcome, not an error; only fatal conditions
// surface as errors.
type receiveOutcome int

const (
	// outcomeDelivered: a payload was extracted and handed to the handler.
	outcomeDelivered receiveOutcome = iota
	// outcomeNoop: nothing to deliver (control frame, foreign envelope
	// key, unhandled frame type). No backoff.
	outcomeNoop
	// outcomeRetryAfter: transient transport failure; pause before the
	// next attempt.
	outcomeRetryAfter
)

// WebSocketConnected reports whether the client holds an open WebSocket
// connection.
func (c *Client) WebSocketConnected() bool {
	return c.ws.connected()
}

// ConnectWebSocket opens the authenticated WebSocket connection to the
// SysAP. A no-op while already connected. TLS failures are returned as
// ErrSSL; all other dial failures as ErrClientConnection.
func (c *Client) ConnectWebSocket(ctx context.Context) error {
	c.ws.mu.Lock()
	defer c.ws.mu.Unlock()

	if c.ws.conn != nil && c.ws.alive {
		return nil
	}

	wsURL, err := c.websocketURL()
	if err != nil {
		return err
	}

	tlsCfg, err := c.session.tlsConfig()
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 45 * time.Second,
		TLSClientConfig:  tlsCfg,
	}

	header := http.Header{}
	header.Set("Authorization", "Basic "+basicAuth(c.username, c.password))

	if c.logger != nil {
		c.logger.LogAttrs(ctx, slog.LevelInfo, "websocket_connecting",
			slog.String("url", wsURL))
	}

	conn, resp, err := dialer.DialContext(ctx, wsURL, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		if isTLSError(err) {
			return fmt.Errorf("%w: host %s", ErrSSL, c.host)
		}
		return fmt.Errorf("%w: %s: %v", ErrClientConnection, c.host, err)
	}

	c.ws.conn = conn
	c.ws.alive = true

	if c.logger != nil {
		c.logger.LogAttrs(ctx, slog.LevelInfo, "websocket_connected",
			slog.String("url", wsURL))
	}

	return nil
}

// DisconnectWebSocket closes the WebSocket connection if one is open.
// A no-op otherwise, including when no connection was ever established.
func (c *Client) DisconnectWebSocket() {
	c.ws.mu.Lock()
	conn := c.ws.conn
	c.ws.conn = nil
	c.ws.alive = false
	c.ws.mu.Unlock()

	if conn == nil {
		return
	}

	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	_ = conn.Close()
}

// CloseWebSocket closes the WebSocket connection. It delegates to
// DisconnectWebSocket; present for symmetry with Close.
func (c *Client) CloseWebSocket() {
	c.DisconnectWebSocket()
}

// Receive runs a single pass of the event loop: ensure connectivity, wait
// for the next frame, and dispatch its payload to handler (which may be
// nil to drain frames). Transient connection failures are swallowed after
// a fixed pause so the caller's loop can retry; TLS failures and context
// cancellation are returned. Most callers want Listen instead.
func (c *Client) Receive(ctx context.Context, handler EventHandler) error {
	outcome, err := c.receiveOnce(ctx, handler)
	if err != nil {
		return err
	}
	if outcome == outcomeRetryAfter {
		return c.retryBackoff(ctx)
	}
	return nil
}

// Listen drives Receive until the context ends or a fatal error surfaces.
func (c *Client) Listen(ctx context.Context, handler EventHandler) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.Receive(ctx, handler); err != nil {
			return err
		}
	}
}

// receiveOnce ensures connectivity and classifies the next inbound frame.
func (c *Client) receiveOnce(ctx context.Context, handler EventHandler) (receiveOutcome, error) {
	if !c.ws.connected() {
		if err := c.ConnectWebSocket(ctx); err != nil {
			// Certificate problems never self-heal; transient network
			// loss does.
			if IsSSLError(err) || IsInvalidHost(err) {
				return outcomeNoop, err
			}
			if c.logger != nil {
				c.logger.LogAttrs(ctx, slog.LevelWarn, "websocket_connect_failed",
					slog.String("error", err.Error()))
			}
			return outcomeRetryAfter, nil
		}
	}

	conn := c.ws.current()
	if conn == nil {
		return outcomeRetryAfter, nil
	}

	msgType, data, err := conn.ReadMessage()
	if err != nil {
		c.ws.markDead(conn)
		if isCleanClose(err) {
			if c.logger != nil {
				c.logger.LogAttrs(ctx, slog.LevelWarn, "websocket_closed")
			}
			return outcomeNoop, nil
		}
		if c.logger != nil {
			c.logger.LogAttrs(ctx, slog.LevelError, "websocket_receive_error",
				slog.String("error", err.Error()))
		}
		return outcomeRetryAfter, nil
	}

	if msgType != websocket.TextMessage {
		return outcomeNoop, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		if c.logger != nil {
			c.logger.LogAttrs(ctx, slog.LevelDebug, "websocket_invalid_frame",
				slog.String("error", err.Error()))
		}
		return outcomeNoop, nil
	}

	raw, ok := envelope[c.sysAPUUID]
	if !ok {
		return outcomeNoop, nil
	}

	payload, err := unmarshalResponse[EventPayload](raw, "event payload")
	if err != nil {
		return outcomeNoop, nil
	}

	if c.logger != nil {
		c.logger.LogAttrs(ctx, slog.LevelDebug, "websocket_event",
			slog.Int("datapoints", len(payload.Datapoints)))
	}

	if handler != nil {
		handler(payload)
	}

	return outcomeDelivered, nil
}

// retryBackoff pauses for the configured retry interval, honoring context
// cancellation.
func (c *Client) retryBackoff(ctx context.Context) error {
	timer := time.NewTimer(c.retryInterval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// websocketURL derives the WebSocket endpoint from the configured host.
func (c *Client) websocketURL() (string, error) {
	u, err := url.Parse(c.host)
	if err != nil || u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidHost, c.host)
	}

	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}

	return scheme + "://" + u.Host + apiPathPrefix + "/api/ws", nil
}

// isCleanClose reports whether a read failure represents an orderly
// shutdown rather than an abnormal transport error. Every close frame
// from the peer counts, whatever its status code; 1006 and 1015 are
// excluded because no close frame can carry them on the wire, they are
// synthesized locally when the peer drops the stream without a close
// handshake.
func isCleanClose(err error) bool {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return closeErr.Code != websocket.CloseAbnormalClosure &&
			closeErr.Code != websocket.CloseTLSHandshake
	}
	// A connection torn down locally via DisconnectWebSocket surfaces as
	// a use-of-closed-network error on a blocked read.
	return errors.Is(err, net.ErrClosed)
}

// basicAuth encodes credentials for an Authorization header.
func basicAuth(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}
