package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// pushServer upgrades one connection, acks subscriptions with a text frame
// and then pushes the given binary payloads.
func pushServer(t *testing.T, subscriptions int, payloads [][]byte) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()
		for i := 0; i < subscriptions; i++ {
			var msg map[string]string
			if err := conn.ReadJSON(&msg); err != nil {
				t.Errorf("read subscribe: %v", err)
				return
			}
			if msg["type"] != "subscribe" {
				t.Errorf("unexpected message type %q", msg["type"])
			}
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ack"}`))
		}
		for _, p := range payloads {
			if err := conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
				return
			}
		}
		// keep the connection open until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func TestStreamReadDeliversBinaryFrames(t *testing.T) {
	want := []byte("raw-update-payload")
	srv := pushServer(t, 1, [][]byte{want})
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	s := NewStream(url, []string{"aa"}, time.Millisecond, 50*time.Millisecond).(*Stream)
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if !s.IsConnected() {
		t.Fatalf("expected connected state after connect")
	}
	if err := s.Subscribe(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	payloads, errs := s.Read(ctx)
	select {
	case p := <-payloads:
		if string(p) != string(want) {
			t.Fatalf("payload = %q, want %q", p, want)
		}
	case err := <-errs:
		t.Fatalf("read: %v", err)
	case <-ctx.Done():
		t.Fatalf("timed out waiting for payload")
	}
}

func TestStreamSubscribeRequiresConnection(t *testing.T) {
	s := NewStream("ws://unused", []string{"aa"}, time.Millisecond, time.Minute).(*Stream)
	if err := s.Subscribe(context.Background()); err == nil {
		t.Fatalf("expected error subscribing before connect")
	}
	if s.IsConnected() {
		t.Fatalf("expected disconnected state")
	}
}

func TestStreamConcurrentStateAccess(t *testing.T) {
	srv := pushServer(t, 0, nil)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	s := NewStream(url, nil, time.Millisecond, time.Millisecond).(*Stream)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Connect(ctx); err != nil {
		t.Fatalf("connect: %v", err)
	}
	_, _ = s.Read(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = s.IsConnected()
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.Close()
	}()
	wg.Wait()
	if s.IsConnected() {
		t.Fatalf("expected disconnected state after close")
	}
}
