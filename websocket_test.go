package freeathome

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var wsTestUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// wsTestServer upgrades incoming connections after checking path and
// credentials, then hands the server side of the socket to handle.
func wsTestServer(t *testing.T, handle func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/fhapi/v1/api/ws" {
			t.Errorf("path = %q, want /fhapi/v1/api/ws", r.URL.Path)
		}
		if got, want := r.Header.Get("Authorization"), "Basic "+basicAuth("installer", "secret"); got != want {
			t.Errorf("Authorization = %q, want %q", got, want)
		}
		conn, err := wsTestUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		handle(conn)
	}))
}

func wsTestClient(t *testing.T, serverURL string, opts ...Option) *Client {
	t.Helper()
	client, err := NewClient(serverURL, "installer", "secret", opts...)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(client.Close)
	return client
}

func TestClient_Receive(t *testing.T) {
	t.Run("text frame delivers the inner payload once", func(t *testing.T) {
		frame := `{"` + DefaultSysAPUUID + `": {"datapoints": {"ABB700000000/ch0000/idp0000": "1"}}}`
		server := wsTestServer(t, func(conn *websocket.Conn) {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
			conn.ReadMessage() // hold the connection open
		})
		defer server.Close()

		client := wsTestClient(t, server.URL)

		var calls int
		var got *EventPayload
		err := client.Receive(context.Background(), func(payload *EventPayload) {
			calls++
			got = payload
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 1 {
			t.Fatalf("handler calls = %d, want 1", calls)
		}
		if got.Datapoints["ABB700000000/ch0000/idp0000"] != "1" {
			t.Errorf("datapoints = %v", got.Datapoints)
		}
	})

	t.Run("frame for a foreign system is dropped", func(t *testing.T) {
		frame := `{"11111111-2222-3333-4444-555555555555": {"datapoints": {"X/c/d": "1"}}}`
		server := wsTestServer(t, func(conn *websocket.Conn) {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
			conn.ReadMessage()
		})
		defer server.Close()

		client := wsTestClient(t, server.URL, WithRetryInterval(2*time.Second))

		start := time.Now()
		err := client.Receive(context.Background(), func(*EventPayload) {
			t.Error("handler must not run for a foreign envelope key")
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Errorf("dropped frame triggered backoff (took %v)", elapsed)
		}
	})

	t.Run("close frame is clean and skips backoff", func(t *testing.T) {
		server := wsTestServer(t, func(conn *websocket.Conn) {
			deadline := time.Now().Add(time.Second)
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), deadline)
			conn.ReadMessage() // wait for the client's close response
		})
		defer server.Close()

		client := wsTestClient(t, server.URL, WithRetryInterval(2*time.Second))

		start := time.Now()
		err := client.Receive(context.Background(), func(*EventPayload) {
			t.Error("handler must not run for a close frame")
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Errorf("clean close triggered backoff (took %v)", elapsed)
		}
		if client.WebSocketConnected() {
			t.Error("connection should be marked dead after a close frame")
		}
	})

	t.Run("close frame with an unlisted code is still clean", func(t *testing.T) {
		server := wsTestServer(t, func(conn *websocket.Conn) {
			deadline := time.Now().Add(time.Second)
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "server going down"), deadline)
			conn.ReadMessage()
		})
		defer server.Close()

		client := wsTestClient(t, server.URL, WithRetryInterval(2*time.Second))

		start := time.Now()
		err := client.Receive(context.Background(), func(*EventPayload) {
			t.Error("handler must not run for a close frame")
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if elapsed := time.Since(start); elapsed > time.Second {
			t.Errorf("close frame (code 1011) triggered backoff (took %v)", elapsed)
		}
	})

	t.Run("abnormal disconnect backs off before returning", func(t *testing.T) {
		server := wsTestServer(t, func(conn *websocket.Conn) {
			// Return without a close handshake; the deferred Close tears
			// down the TCP stream and the client sees an abnormal closure.
		})
		defer server.Close()

		interval := 50 * time.Millisecond
		client := wsTestClient(t, server.URL, WithRetryInterval(interval))

		start := time.Now()
		err := client.Receive(context.Background(), func(*EventPayload) {
			t.Error("handler must not run for a transport error")
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if elapsed := time.Since(start); elapsed < interval {
			t.Errorf("abnormal disconnect skipped backoff (took %v)", elapsed)
		}
	})

	t.Run("unreachable host retries instead of failing", func(t *testing.T) {
		client := wsTestClient(t, "http://127.0.0.1:1", WithRetryInterval(10*time.Millisecond))

		err := client.Receive(context.Background(), nil)
		if err != nil {
			t.Fatalf("transient connect failure must be swallowed, got: %v", err)
		}
	})

	t.Run("tls failure is fatal", func(t *testing.T) {
		server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer server.Close()

		client := wsTestClient(t, server.URL)

		err := client.Receive(context.Background(), nil)
		if !IsSSLError(err) {
			t.Fatalf("expected ssl error, got: %v", err)
		}
	})

	t.Run("host without scheme is fatal", func(t *testing.T) {
		client := wsTestClient(t, "192.168.1.1")

		err := client.Receive(context.Background(), nil)
		if !IsInvalidHost(err) {
			t.Fatalf("expected invalid host error, got: %v", err)
		}
	})

	t.Run("backoff honors context cancellation", func(t *testing.T) {
		client := wsTestClient(t, "http://127.0.0.1:1", WithRetryInterval(time.Minute))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		err := client.Receive(ctx, nil)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected deadline exceeded, got: %v", err)
		}
	})
}

func TestClient_Listen(t *testing.T) {
	frame := `{"` + DefaultSysAPUUID + `": {"datapoints": {"ABB700000000/ch0000/odp0000": "35"}}}`
	server := wsTestServer(t, func(conn *websocket.Conn) {
		for {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	})
	defer server.Close()

	client := wsTestClient(t, server.URL, WithRetryInterval(10*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	var events atomic.Int64
	err := client.Listen(ctx, func(*EventPayload) {
		events.Add(1)
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got: %v", err)
	}
	if events.Load() == 0 {
		t.Error("expected at least one delivered event")
	}
}

func TestClient_ConnectWebSocket(t *testing.T) {
	t.Run("second connect is a no-op", func(t *testing.T) {
		var upgrades atomic.Int64
		server := wsTestServer(t, func(conn *websocket.Conn) {
			upgrades.Add(1)
			conn.ReadMessage()
		})
		defer server.Close()

		client := wsTestClient(t, server.URL)

		if err := client.ConnectWebSocket(context.Background()); err != nil {
			t.Fatalf("first connect: %v", err)
		}
		if err := client.ConnectWebSocket(context.Background()); err != nil {
			t.Fatalf("second connect: %v", err)
		}
		if !client.WebSocketConnected() {
			t.Error("expected connected state")
		}
		// Give the server goroutines a moment to record the upgrade.
		time.Sleep(50 * time.Millisecond)
		if n := upgrades.Load(); n != 1 {
			t.Errorf("upgrades = %d, want 1", n)
		}
	})

	t.Run("refused connection is a client connection error", func(t *testing.T) {
		client := wsTestClient(t, "http://127.0.0.1:1")

		err := client.ConnectWebSocket(context.Background())
		if !IsClientConnection(err) {
			t.Fatalf("expected client connection error, got: %v", err)
		}
	})
}

func TestClient_DisconnectWebSocket(t *testing.T) {
	server := wsTestServer(t, func(conn *websocket.Conn) {
		conn.ReadMessage()
	})
	defer server.Close()

	client := wsTestClient(t, server.URL)

	// Disconnecting before any connection exists is a no-op.
	client.DisconnectWebSocket()

	if err := client.ConnectWebSocket(context.Background()); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if !client.WebSocketConnected() {
		t.Fatal("expected connected state")
	}

	client.DisconnectWebSocket()
	if client.WebSocketConnected() {
		t.Error("expected disconnected state")
	}

	// Idempotent.
	client.DisconnectWebSocket()
}
