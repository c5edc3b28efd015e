package realtime

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/traitforge-backend/internal/platform/logger"
)

func mustTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

func recvMessage(t *testing.T, ch <-chan SSEMessage, timeout time.Duration) SSEMessage {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for SSE message")
	}
	return SSEMessage{}
}

func TestSSEHubOrderingAndReconnect(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	channel := RunChannel(uuid.New())

	clientA := hub.NewSSEClient(uuid.New())
	hub.AddChannel(clientA, channel)

	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventGenerationStarted})
	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventGenerationItem, Data: map[string]any{"index": 0}})

	if got := recvMessage(t, clientA.Outbound, time.Second); got.Event != SSEEventGenerationStarted {
		t.Fatalf("first event: got=%s", got.Event)
	}
	if got := recvMessage(t, clientA.Outbound, time.Second); got.Event != SSEEventGenerationItem {
		t.Fatalf("second event: got=%s", got.Event)
	}

	hub.CloseClient(clientA)
	if _, ok := <-clientA.Outbound; ok {
		t.Fatalf("clientA outbound should be closed after disconnect")
	}
	if n := hub.Subscribers(channel); n != 0 {
		t.Fatalf("subscribers after close: %d", n)
	}

	clientB := hub.NewSSEClient(uuid.New())
	hub.AddChannel(clientB, channel)
	hub.Broadcast(SSEMessage{Channel: channel, Event: SSEEventGenerationDone})
	if got := recvMessage(t, clientB.Outbound, time.Second); got.Event != SSEEventGenerationDone {
		t.Fatalf("reconnect event: got=%s", got.Event)
	}
}

func TestSSEHubDropsWhenBufferFull(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, "run:x")
	for i := 0; i < outboundBuffer+5; i++ {
		hub.Broadcast(SSEMessage{Channel: "run:x", Event: SSEEventGenerationItem})
	}
	if len(client.Outbound) != outboundBuffer {
		t.Fatalf("buffer: got=%d want=%d", len(client.Outbound), outboundBuffer)
	}
}

func TestSSEHubRemoveChannel(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, "a")
	hub.AddChannel(client, "b")
	hub.RemoveChannel(client, "a")
	hub.Broadcast(SSEMessage{Channel: "a", Event: SSEEventGenerationItem})
	hub.Broadcast(SSEMessage{Channel: "b", Event: SSEEventGenerationDone})
	if got := recvMessage(t, client.Outbound, time.Second); got.Event != SSEEventGenerationDone {
		t.Fatalf("expected only channel b message, got=%s", got.Event)
	}
}

func TestSSEHubServeHTTPWritesEvents(t *testing.T) {
	hub := NewSSEHub(mustTestLogger(t))
	client := hub.NewSSEClient(uuid.New())
	hub.AddChannel(client, "run:x")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeHTTP(w, r, client)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type: %s", ct)
	}

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read preamble: %v", err)
	}
	if strings.TrimSpace(line) != ": connected" {
		t.Fatalf("preamble: %q", line)
	}

	hub.Broadcast(SSEMessage{Channel: "run:x", Event: SSEEventGenerationDone, Data: map[string]any{"count": 3}})
	for {
		line, err = reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if strings.TrimSpace(line) != "" {
			break
		}
	}
	if strings.TrimSpace(line) != "event: GenerationDone" {
		t.Fatalf("event line: %q", line)
	}
	line, _ = reader.ReadString('\n')
	if !strings.HasPrefix(line, "data: ") || !strings.Contains(line, `"count":3`) {
		t.Fatalf("data line: %q", line)
	}
}
