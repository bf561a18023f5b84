package provider

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	drepo "PriceGate/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Stream implements an UpdateStream backed by the provider's WebSocket push
// channel. Each binary frame is one raw update payload, framed exactly like
// payloads submitted over HTTP or Kafka.
type Stream struct {
	websocketURL   string
	feedIDs        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	// mu guards conn and connected against the ping and read goroutines,
	// and serializes writes (gorilla allows one concurrent writer).
	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

// NewStream creates a provider UpdateStream for the given hex feed ids.
func NewStream(websocketURL string, feedIDs []string, reconnectDelay, pingInterval time.Duration) drepo.UpdateStream {
	return &Stream{
		websocketURL:   websocketURL,
		feedIDs:        feedIDs,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the WebSocket connection.
func (s *Stream) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.websocketURL, nil)
	if err != nil {
		return fmt.Errorf("provider stream connect: %w", err)
	}
	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.mu.Unlock()
	log.Printf("provider stream: connected")
	return nil
}

func (s *Stream) current() *websocket.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

// Subscribe subscribes to the configured feed ids.
func (s *Stream) Subscribe(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil || !s.connected {
		return fmt.Errorf("provider stream not connected")
	}
	for _, id := range s.feedIDs {
		msg := map[string]string{"type": "subscribe", "feed_id": id}
		if err := s.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", id, err)
		}
		log.Printf("provider stream: subscribed %s", id)
	}
	return nil
}

// Read streams raw payloads and errors.
func (s *Stream) Read(ctx context.Context) (<-chan []byte, <-chan error) {
	payloads := make(chan []byte, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.mu.Lock()
				if s.conn != nil {
					_ = s.conn.WriteMessage(websocket.PingMessage, nil)
				}
				s.mu.Unlock()
			}
		}
	}()

	// read loop
	go func() {
		defer close(payloads)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				conn := s.current()
				if conn == nil {
					errs <- fmt.Errorf("provider stream conn nil")
					return
				}
				mt, b, err := conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("provider stream read: %w", err)
					return
				}
				// text frames are subscription acks, only binary carries payloads
				if mt != websocket.BinaryMessage {
					continue
				}
				select {
				case payloads <- b:
				default:
					log.Printf("provider stream: payload buffer full, dropping frame")
				}
			}
		}
	}()

	return payloads, errs
}

// Reconnect closes and re-establishes the connection after a delay.
func (s *Stream) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	s.connected = false
	if s.conn != nil {
		_ = s.conn.Close()
	}
	s.mu.Unlock()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.reconnectDelay):
	}
	if err := s.Connect(ctx); err != nil {
		return err
	}
	return s.Subscribe(ctx)
}

// Close closes the connection.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// IsConnected reports the connection state.
func (s *Stream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}
