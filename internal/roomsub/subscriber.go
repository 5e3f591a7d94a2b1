// Package roomsub drives a single connection's Room Subscriber task: it
// serializes subscribe/unsubscribe requests against one dedicated cluster
// pub/sub connection and forwards delivered payloads onward as outbound
// frames.
package roomsub

import (
	"context"
	"log/slog"

	"roomrelay/internal/domain"
	"roomrelay/internal/queue"
)

// ChangeRequest is a single room-change request queued on RoomChangeQ: the
// target room plus a one-shot acknowledgement signal.
type ChangeRequest struct {
	Room domain.RoomId
	Ack  chan error
}

// Subscriber owns one domain.RoomSubscription (and therefore one exclusive
// cluster pub/sub connection) for the lifetime of a single client
// connection. It runs two loops concurrently: Control consumes RoomChangeQ
// and drives Subscribe calls; Delivery drains the subscription's message
// channel onto OutboundQ. The two loops share only sub, which Control alone
// mutates — Delivery never inspects the current room, because the
// subscription itself is the filter.
type Subscriber struct {
	sub        domain.RoomSubscription
	roomChange *queue.Unbounded[ChangeRequest]
	outbound   *queue.Unbounded[[]byte]
	logger     *slog.Logger

	current *domain.RoomId
}

// New creates a Subscriber bound to sub, draining roomChange and writing to
// outbound. Run must be called to start its loops.
func New(sub domain.RoomSubscription, roomChange *queue.Unbounded[ChangeRequest], outbound *queue.Unbounded[[]byte], logger *slog.Logger) *Subscriber {
	return &Subscriber{
		sub:        sub,
		roomChange: roomChange,
		outbound:   outbound,
		logger:     logger,
	}
}

// Run starts the control and delivery loops and blocks until both have
// stopped: the control loop when roomChange is closed or a Subscribe call
// fails, the delivery loop when ctx is cancelled or the message channel is
// closed. It always closes the underlying subscription before returning.
func (s *Subscriber) Run(ctx context.Context) error {
	defer func() {
		if err := s.sub.Close(); err != nil {
			s.logger.Warn("roomsub: close subscription", slog.String("error", err.Error()))
		}
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.deliveryLoop(ctx)
	}()

	err := s.controlLoop(ctx)

	<-done
	return err
}

// controlLoop acks immediately if already subscribed to the requested room,
// otherwise unsubscribes-then-subscribes (folded into a single
// domain.RoomSubscription Subscribe call) before acking.
func (s *Subscriber) controlLoop(ctx context.Context) error {
	for {
		req, ok := s.roomChange.Pop()
		if !ok {
			return nil
		}

		if s.current != nil && *s.current == req.Room {
			req.Ack <- nil
			continue
		}

		if err := s.sub.Subscribe(ctx, req.Room); err != nil {
			s.logger.Error("roomsub: subscribe failed",
				slog.Int("room", int(req.Room)),
				slog.String("error", err.Error()),
			)
			req.Ack <- err
			return err
		}

		room := req.Room
		s.current = &room
		s.logger.Info("roomsub: subscription changed", slog.Int("room", int(room)))
		req.Ack <- nil
	}
}

// deliveryLoop forwards every payload the subscription delivers onto
// OutboundQ as an outbound binary frame. The payload is already
// wire-encoded by the publisher, so no re-encoding is needed here — it is
// pushed through unchanged.
func (s *Subscriber) deliveryLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-s.sub.Messages():
			if !ok {
				return
			}
			s.outbound.Push(payload)
		}
	}
}
