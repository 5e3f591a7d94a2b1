package redis

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	"roomrelay/internal/domain"
)

// rdbCommander adapts *redis.ClusterClient to the clusterCommander interface
// the Publisher depends on.
type rdbCommander struct {
	rdb *goredis.ClusterClient
}

func (r rdbCommander) spublish(ctx context.Context, channel string, payload []byte) error {
	return r.rdb.SPublish(ctx, channel, payload).Err()
}

// pubsubConn is the subset of *redis.PubSub the Room Subscriber drives;
// narrowed so tests can supply a fake that records the literal command
// sequence instead of talking to a cluster.
type pubsubConn interface {
	SSubscribe(ctx context.Context, channels ...string) error
	SUnsubscribe(ctx context.Context, channels ...string) error
	Channel(opts ...goredis.ChannelOption) <-chan *goredis.Message
	Close() error
}

var _ pubsubConn = (*goredis.PubSub)(nil)

// subscriptionFactory builds RoomSubscriptions against a shared cluster
// Client. Each RoomSubscription it hands out owns its own long-lived
// *redis.PubSub — the factory itself holds no connection.
type subscriptionFactory struct {
	rdb *goredis.ClusterClient
}

// NewSubscriptionFactory returns a domain.SubscriptionFactory backed by c.
func NewSubscriptionFactory(c *Client) domain.SubscriptionFactory {
	return &subscriptionFactory{rdb: c.rdb}
}

// NewSubscription opens one sharded pub/sub connection for the lifetime of
// the caller (a single Connection Handler) and starts its delivery loop.
// The connection itself is not yet subscribed to any channel — Subscribe
// drives its subscription set from here on.
func (f *subscriptionFactory) NewSubscription(ctx context.Context) domain.RoomSubscription {
	ps := f.rdb.SSubscribe(ctx)
	return newRoomSubscription(ps)
}

// roomSubscription implements domain.RoomSubscription on top of one
// long-lived pubsubConn, switched between rooms with SUnsubscribe/SSubscribe
// rather than closing and reopening the connection. It is exclusive to one
// Connection Handler and is never shared.
type roomSubscription struct {
	ps      pubsubConn
	out     chan []byte
	current *string

	deliveryCancel context.CancelFunc
	wg             sync.WaitGroup
}

func newRoomSubscription(ps pubsubConn) *roomSubscription {
	s := &roomSubscription{ps: ps, out: make(chan []byte, 128)}

	deliveryCtx, cancel := context.WithCancel(context.Background())
	s.deliveryCancel = cancel
	s.wg.Add(1)
	go s.deliver(deliveryCtx)

	return s
}

// Subscribe switches the subscription to room: if it already holds a
// different channel, it sharded-unsubscribes from that channel first, then
// sharded-subscribes to room, on the same underlying connection — matching
// spec.md §4.5's "maintains a single local variable current" and "issue
// sharded-unsubscribe for old" / "issue sharded-subscribe for room" steps.
// It returns once both commands have been written to the connection; it
// does not wait for the cluster's subscribe confirmation.
func (s *roomSubscription) Subscribe(ctx context.Context, room domain.RoomId) error {
	channel := strconv.Itoa(int(room))

	if s.current != nil {
		if err := s.ps.SUnsubscribe(ctx, *s.current); err != nil {
			return fmt.Errorf("%w: sunsubscribe %s: %v", domain.ErrSubscribe, *s.current, err)
		}
	}

	if err := s.ps.SSubscribe(ctx, channel); err != nil {
		return fmt.Errorf("%w: ssubscribe %s: %v", domain.ErrSubscribe, channel, err)
	}

	s.current = &channel
	return nil
}

// deliver is the delivery loop: it drains the pub/sub connection's push
// channel, extracts the binary payload, and forwards it on out. Non-message
// push kinds (subscribe/unsubscribe confirmations) never reach this channel
// — the go-redis client itself filters them out of PubSub.Channel().
func (s *roomSubscription) deliver(ctx context.Context) {
	defer s.wg.Done()
	ch := s.ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			select {
			case s.out <- []byte(msg.Payload):
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *roomSubscription) Messages() <-chan []byte {
	return s.out
}

func (s *roomSubscription) Close() error {
	if s.deliveryCancel != nil {
		s.deliveryCancel()
		s.wg.Wait()
		s.deliveryCancel = nil
		close(s.out)
	}
	if err := s.ps.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", domain.ErrSubscribe, err)
	}
	return nil
}

var _ domain.RoomSubscription = (*roomSubscription)(nil)
var _ domain.SubscriptionFactory = (*subscriptionFactory)(nil)
