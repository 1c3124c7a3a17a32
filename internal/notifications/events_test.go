package notifications

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomAndChannelNames(t *testing.T) {
	assert.Equal(t, "user_42", Room(42))
	assert.Equal(t, "notifications:user_42", Channel(Room(42)))

	room, ok := RoomFromChannel("notifications:user_42")
	require.True(t, ok)
	id, ok := ParseRoom(room)
	require.True(t, ok)
	assert.Equal(t, uint(42), id)

	for _, bad := range []string{"user_", "user_x", "room_1", "user_0", ""} {
		_, ok := ParseRoom(bad)
		assert.False(t, ok, bad)
	}
	_, ok = RoomFromChannel("chat:user_1")
	assert.False(t, ok)
}

func TestNewNotificationEvent(t *testing.T) {
	at := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	raw, err := NewNotificationEvent(7, "New message from bob", at)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))

	want := map[string]any{
		"type": "notification",
		"room": "user_7",
		"payload": map[string]any{
			"content":   "New message from bob",
			"timestamp": "2024-03-09 14:05:07",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("event mismatch (-want +got):\n%s", diff)
	}
}
