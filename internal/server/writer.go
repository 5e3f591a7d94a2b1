package server

import (
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"roomrelay/internal/queue"
)

const writeWait = 10 * time.Second

// writeLoop implements the Writer task: it drains OutboundQ and writes each
// frame as a binary WebSocket message. It returns when the queue is closed
// (connection teardown in progress) or a write fails.
func (c *Connection) writeLoop(outbound *queue.Unbounded[[]byte]) {
	for {
		frame, ok := outbound.Pop()
		if !ok {
			return
		}
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			c.logger.Warn("server: write failed, closing connection", slog.String("error", err.Error()))
			return
		}
	}
}
