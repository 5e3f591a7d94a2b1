package redis

import (
	"context"
	"sync"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomrelay/internal/domain"
)

// opRecorder records every cluster command issued by the fakes below, in
// call order, so tests can assert the literal SSUBSCRIBE/SUNSUBSCRIBE/
// SPUBLISH sequence spec.md's S2 scenario requires.
type opRecorder struct {
	mu  sync.Mutex
	ops []string
}

func (r *opRecorder) add(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

func (r *opRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.ops))
	copy(out, r.ops)
	return out
}

// fakePubsubConn implements pubsubConn, recording every SSubscribe/
// SUnsubscribe call against a single long-lived connection instead of
// talking to a real cluster.
type fakePubsubConn struct {
	rec *opRecorder
	ch  chan *goredis.Message
}

func newFakePubsubConn(rec *opRecorder) *fakePubsubConn {
	return &fakePubsubConn{rec: rec, ch: make(chan *goredis.Message, 1)}
}

func (f *fakePubsubConn) SSubscribe(ctx context.Context, channels ...string) error {
	for _, c := range channels {
		f.rec.add("ssubscribe:" + c)
	}
	return nil
}

func (f *fakePubsubConn) SUnsubscribe(ctx context.Context, channels ...string) error {
	for _, c := range channels {
		f.rec.add("sunsubscribe:" + c)
	}
	return nil
}

func (f *fakePubsubConn) Channel(opts ...goredis.ChannelOption) <-chan *goredis.Message {
	return f.ch
}

func (f *fakePubsubConn) Close() error { return nil }

// fakeCommanderRec implements clusterCommander, recording every SPublish
// call onto the same opRecorder a fakePubsubConn uses, so a test can assert
// the interleaved subscribe/publish order across both seams.
type fakeCommanderRec struct {
	rec *opRecorder
}

func (f *fakeCommanderRec) spublish(ctx context.Context, channel string, payload []byte) error {
	f.rec.add("spublish:" + channel)
	return nil
}

func TestRoomSubscriptionSwitchIssuesUnsubscribeBeforeResubscribe(t *testing.T) {
	rec := &opRecorder{}
	sub := newRoomSubscription(newFakePubsubConn(rec))
	defer sub.Close()

	require.NoError(t, sub.Subscribe(context.Background(), 1))
	require.NoError(t, sub.Subscribe(context.Background(), 2))

	assert.Equal(t, []string{"ssubscribe:1", "sunsubscribe:1", "ssubscribe:2"}, rec.all())
}

func TestRoomSubscriptionFirstJoinIssuesNoUnsubscribe(t *testing.T) {
	rec := &opRecorder{}
	sub := newRoomSubscription(newFakePubsubConn(rec))
	defer sub.Close()

	require.NoError(t, sub.Subscribe(context.Background(), 7))

	assert.Equal(t, []string{"ssubscribe:7"}, rec.all())
}

// TestRoomSwitchFullCommandOrderMatchesS2 reproduces spec.md's S2 scenario:
// SSUBSCRIBE(1), SPUBLISH(1, UserJoined), SUNSUBSCRIBE(1), SSUBSCRIBE(2),
// SPUBLISH(2, UserJoined) — in that order, across the Room Subscriber and
// Publisher seams together.
func TestRoomSwitchFullCommandOrderMatchesS2(t *testing.T) {
	rec := &opRecorder{}
	sub := newRoomSubscription(newFakePubsubConn(rec))
	defer sub.Close()
	pub := &Publisher{rdb: &fakeCommanderRec{rec: rec}}

	ctx := context.Background()
	require.NoError(t, sub.Subscribe(ctx, 1))
	require.NoError(t, pub.Publish(ctx, 1, domain.NewUserJoined(domain.UserJoined{Room: 1})))
	require.NoError(t, sub.Subscribe(ctx, 2))
	require.NoError(t, pub.Publish(ctx, 2, domain.NewUserJoined(domain.UserJoined{Room: 2})))

	assert.Equal(t, []string{
		"ssubscribe:1",
		"spublish:1",
		"sunsubscribe:1",
		"ssubscribe:2",
		"spublish:2",
	}, rec.all())
}
