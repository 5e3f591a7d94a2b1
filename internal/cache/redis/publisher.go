package redis

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"roomrelay/internal/domain"
	"roomrelay/internal/wire"
)

// Publisher is the process-wide façade over the single shared cluster
// command connection. The mutex is held only for the duration of the
// sharded-publish call — no other suspension point is reached while it is
// held.
type Publisher struct {
	mu  sync.Mutex
	rdb clusterCommander
}

// clusterCommander is the subset of *redis.ClusterClient the Publisher
// needs; narrowed so tests can supply a fake.
type clusterCommander interface {
	spublish(ctx context.Context, channel string, payload []byte) error
}

// NewPublisher creates a Publisher backed by the given cluster Client.
func NewPublisher(c *Client) *Publisher {
	return &Publisher{rdb: rdbCommander{c.rdb}}
}

// Publish encodes event and issues a sharded-publish to the channel named
// by room's decimal representation.
func (p *Publisher) Publish(ctx context.Context, room domain.RoomId, event domain.Event) error {
	frame, err := wire.Encode(event)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", domain.ErrPublish, event.Kind, err)
	}

	channel := strconv.Itoa(int(room))

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.rdb.spublish(ctx, channel, frame); err != nil {
		return fmt.Errorf("%w: spublish %s: %v", domain.ErrPublish, channel, err)
	}
	return nil
}

var _ domain.Publisher = (*Publisher)(nil)
