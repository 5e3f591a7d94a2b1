package wire

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomrelay/internal/domain"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	user := uuid.New()

	cases := []domain.Event{
		domain.NewJoinRoom(domain.JoinRoom{Room: 7, User: user, Username: "alice", Ts: 100}),
		domain.NewLeaveRoom(domain.LeaveRoom{Room: 7, User: user, Username: "alice", Ts: 102}),
		domain.NewChangeName(domain.ChangeName{User: user, NewUsername: "bob", OldUsername: "alice", Ts: 105}),
		domain.NewFetch(domain.Fetch{Room: 5, Limit: 10, FetchBefore: 50}),
		domain.NewPostMessage(domain.PostMessage{Message: domain.Message{User: user, Username: "alice", Text: "hi", Room: 7, Ts: 101}}),
		domain.NewUserJoined(domain.UserJoined{User: user, Username: "alice", Room: 7, Ts: 100}),
		domain.NewError("E_PUBLISH", "redis unavailable"),
		domain.NewHistory(domain.History{Events: []domain.Event{
			domain.NewUserJoined(domain.UserJoined{User: user, Username: "alice", Room: 7, Ts: 100}),
		}}),
	}

	for _, want := range cases {
		t.Run(want.Kind.String(), func(t *testing.T) {
			frame, err := Encode(want)
			require.NoError(t, err)
			require.NotEmpty(t, frame)

			got, err := Decode(frame)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestDecodeMalformedFrame(t *testing.T) {
	_, err := Decode([]byte{0xff, 0x00, 0x01, 0x02})
	require.Error(t, err)
}
