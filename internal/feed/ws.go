package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quantfold/ebbtide/internal/contracts"
	"github.com/quantfold/ebbtide/pkg/logger"
)

const (
	reconnectDelay    = 5 * time.Second
	maxReconnectDelay = 5 * time.Minute

	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second
)

// BarHandler receives one end-of-day batch. Handlers run on the stream's
// read goroutine, so the engine sees events strictly in arrival order.
type BarHandler func(ctx context.Context, asOf time.Time, batch []contracts.DailyBar) error

// barMessage is the wire format pushed by the platform's bar stream
type barMessage struct {
	Type string               `json:"type"`
	AsOf time.Time            `json:"as_of"`
	Bars []contracts.DailyBar `json:"bars"`
}

// BarStream consumes daily bar batches over WebSocket and hands them to a
// single handler. Reconnects with exponential backoff on any read failure.
type BarStream struct {
	url     string
	handler BarHandler
	logger  *logger.Logger

	conn   *websocket.Conn
	connMu sync.Mutex

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewBarStream creates a stream client for the given endpoint
func NewBarStream(url string, handler BarHandler, log *logger.Logger) *BarStream {
	return &BarStream{
		url:     url,
		handler: handler,
		logger:  log,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Start connects and launches the read and ping loops
func (s *BarStream) Start(ctx context.Context) error {
	if err := s.connect(ctx); err != nil {
		return fmt.Errorf("initial connection failed: %w", err)
	}

	go s.readLoop(ctx)
	go s.pingLoop()

	return nil
}

// Stop closes the connection and waits for the read loop to exit
func (s *BarStream) Stop() {
	s.logger.Info("Stopping bar stream")

	close(s.stopCh)

	s.connMu.Lock()
	if s.conn != nil {
		s.conn.Close()
	}
	s.connMu.Unlock()

	<-s.doneCh
}

func (s *BarStream) connect(ctx context.Context) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	s.logger.WithField("url", s.url).Debug("Connecting to bar stream")

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	s.conn = conn
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	s.logger.Info("Connected to bar stream")
	return nil
}

func (s *BarStream) readLoop(ctx context.Context) {
	defer close(s.doneCh)

	delay := reconnectDelay
	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		default:
		}

		s.connMu.Lock()
		conn := s.conn
		s.connMu.Unlock()

		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
			}

			s.logger.WithError(err).WithField("delay", delay).Warn("Bar stream read failed, reconnecting")
			time.Sleep(delay)
			delay *= 2
			if delay > maxReconnectDelay {
				delay = maxReconnectDelay
			}

			if err := s.connect(ctx); err != nil {
				s.logger.WithError(err).Warn("Reconnect failed")
			}
			continue
		}
		delay = reconnectDelay

		if err := s.dispatch(ctx, data); err != nil {
			s.logger.WithError(err).Error("Bar batch handling failed")
		}
	}
}

// dispatch parses one frame and invokes the handler for bar batches.
// Unknown message types are ignored.
func (s *BarStream) dispatch(ctx context.Context, data []byte) error {
	var msg barMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("decode bar message: %w", err)
	}

	if msg.Type != "daily_bars" {
		s.logger.WithField("type", msg.Type).Debug("Ignoring stream message")
		return nil
	}

	s.logger.WithFields(map[string]interface{}{
		"as_of": msg.AsOf,
		"bars":  len(msg.Bars),
	}).Debug("Daily bar batch received")

	return s.handler(ctx, msg.AsOf, msg.Bars)
}

func (s *BarStream) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.connMu.Lock()
			conn := s.conn
			s.connMu.Unlock()
			if conn == nil {
				continue
			}
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				s.logger.WithError(err).Debug("Ping failed")
			}
		}
	}
}
