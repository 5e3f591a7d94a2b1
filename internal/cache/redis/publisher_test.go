package redis

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomrelay/internal/domain"
	"roomrelay/internal/wire"
)

type recordingCommander struct {
	mu       sync.Mutex
	channels []string
	payloads [][]byte
	err      error
}

func (r *recordingCommander) spublish(ctx context.Context, channel string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.channels = append(r.channels, channel)
	r.payloads = append(r.payloads, payload)
	return nil
}

func TestPublisherEncodesAndPublishesToDecimalRoomChannel(t *testing.T) {
	cmd := &recordingCommander{}
	p := &Publisher{rdb: cmd}

	ev := domain.NewUserJoined(domain.UserJoined{Room: 42, User: uuid.New(), Username: "ada", Ts: 7})
	err := p.Publish(context.Background(), 42, ev)
	require.NoError(t, err)

	require.Len(t, cmd.channels, 1)
	assert.Equal(t, "42", cmd.channels[0])

	decoded, err := wire.Decode(cmd.payloads[0])
	require.NoError(t, err)
	assert.Equal(t, domain.KindUserJoined, decoded.Kind)
	require.NotNil(t, decoded.UserJoined)
	assert.Equal(t, domain.Username("ada"), decoded.UserJoined.Username)
}

func TestPublisherWrapsTransportErrorWithErrPublish(t *testing.T) {
	cmd := &recordingCommander{err: errors.New("cluster unavailable")}
	p := &Publisher{rdb: cmd}

	ev := domain.NewUserLeft(domain.UserLeft{Room: 1, User: uuid.New(), Username: "bob", Ts: 1})
	err := p.Publish(context.Background(), 1, ev)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPublish)
}
