package server

import (
	"context"
	"log/slog"

	"github.com/gorilla/websocket"

	"roomrelay/internal/protocol"
	"roomrelay/internal/wire"
)

// readLoop implements the Reader task: it blocks on ReadMessage, rejects
// non-binary frames, decodes binary ones, and runs them through the
// Protocol Engine synchronously. A malformed frame is logged and skipped —
// it never terminates the connection. Only a transport error or a fatal
// Engine error (failed room-change) ends the loop.
func (c *Connection) readLoop(ctx context.Context, engine *protocol.Engine) {
	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.BinaryMessage {
			c.logger.Warn("server: ignoring non-binary frame", slog.Int("message_type", messageType))
			continue
		}

		ev, err := wire.Decode(data)
		if err != nil {
			c.logger.Warn("server: dropping malformed frame", slog.String("error", err.Error()))
			continue
		}

		if err := engine.Handle(ctx, ev); err != nil {
			c.logger.Error("server: fatal protocol error, closing connection", slog.String("error", err.Error()))
			return
		}
	}
}
