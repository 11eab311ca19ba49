package hub

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/3bebepapa/agentforge-v2.0/internal/metrics"
	"github.com/3bebepapa/agentforge-v2.0/internal/protocol"
)

const (
	writeDeadline     = 5 * time.Second
	messageBufferSize = 16
)

// clientWriter owns the outbound side of one WebSocket connection: a buffered
// send channel drained by a dedicated goroutine, plus the per-connection
// heartbeat schedule. The hub stops it synchronously during the disconnect
// procedure, so the heartbeat can never outlive its connection by a tick.
type clientWriter struct {
	connection *websocket.Conn
	clock      clockwork.Clock
	pingEvery  time.Duration
	sendCh     chan []byte
	doneCh     chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

func newClientWriter(connection *websocket.Conn, clock clockwork.Clock, pingEvery time.Duration) *clientWriter {
	cw := &clientWriter{
		connection: connection,
		clock:      clock,
		pingEvery:  pingEvery,
		sendCh:     make(chan []byte, messageBufferSize),
		doneCh:     make(chan struct{}),
	}
	cw.wg.Add(1)
	go cw.run()
	return cw
}

func (cw *clientWriter) run() {
	ticker := cw.clock.NewTicker(cw.pingEvery)
	defer ticker.Stop()
	defer cw.wg.Done()

	for {
		select {
		case msg, ok := <-cw.sendCh:
			if !ok {
				return
			}
			start := cw.clock.Now()
			cw.updateWriteDeadline()
			if err := cw.connection.WriteMessage(websocket.TextMessage, msg); err != nil {
				// Write failure counts as a disconnect; the read pump
				// observes the closed connection and runs the procedure.
				_ = cw.connection.Close()
				return
			}
			metrics.WebSocketMessageSendDuration.Observe(cw.clock.Since(start).Seconds())
		case <-ticker.Chan():
			ping, err := protocol.NewHeartbeatPing(cw.clock.Now())
			if err != nil {
				slog.Error("Failed to build heartbeat ping", "error", err)
				continue
			}
			cw.updateWriteDeadline()
			if err := cw.connection.WriteMessage(websocket.TextMessage, ping); err != nil {
				_ = cw.connection.Close()
				return
			}
		case <-cw.doneCh:
			return
		}
	}
}

// trySend enqueues without blocking. False means the buffer is full — the
// client is too slow and the caller must evict it.
func (cw *clientWriter) trySend(data []byte) bool {
	select {
	case cw.sendCh <- data:
		return true
	default:
		return false
	}
}

func (cw *clientWriter) stop() {
	cw.stopOnce.Do(func() {
		close(cw.doneCh)
		_ = cw.connection.Close()
	})
	cw.wg.Wait()
}

// stopGraceful sends a WebSocket close frame with reason before closing.
func (cw *clientWriter) stopGraceful(reason string) {
	cw.stopOnce.Do(func() {
		close(cw.doneCh)

		// Wait for the run goroutine so the close frame is not written
		// concurrently with a regular message.
		cw.wg.Wait()

		closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason)
		cw.updateWriteDeadline()
		_ = cw.connection.WriteMessage(websocket.CloseMessage, closeMsg)
		_ = cw.connection.Close()
	})
	cw.wg.Wait()
}

func (cw *clientWriter) updateWriteDeadline() {
	_ = cw.connection.SetWriteDeadline(cw.clock.Now().Add(writeDeadline))
}
