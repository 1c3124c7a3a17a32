// Package notifications delivers live notification events to websocket clients,
// fanning out through Redis pub/sub when it is available.
package notifications

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the format of the timestamp carried in notification events.
const TimestampLayout = "2006-01-02 15:04:05"

const (
	roomPrefix    = "user_"
	channelPrefix = "notifications:"

	// ChannelPattern matches every per-room notification channel.
	ChannelPattern = channelPrefix + "*"
)

// EventNotification is the event type of a pushed notification.
const EventNotification = "notification"

// Event is the envelope written to websocket clients.
type Event struct {
	Type    string          `json:"type"`
	Room    string          `json:"room"`
	Payload json.RawMessage `json:"payload"`
}

// NotificationPayload is the body of a notification event.
type NotificationPayload struct {
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

// Room names the live-update destination of a user.
func Room(userID uint) string {
	return roomPrefix + strconv.FormatUint(uint64(userID), 10)
}

// ParseRoom extracts the user ID from a room name.
func ParseRoom(room string) (uint, bool) {
	raw, ok := strings.CutPrefix(room, roomPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// Channel derives the Redis channel for a room.
func Channel(room string) string {
	return channelPrefix + room
}

// RoomFromChannel is the inverse of Channel.
func RoomFromChannel(channel string) (string, bool) {
	return strings.CutPrefix(channel, channelPrefix)
}

// NewNotificationEvent encodes the event pushed to userID for a notification created at at.
func NewNotificationEvent(userID uint, content string, at time.Time) ([]byte, error) {
	payload, err := json.Marshal(NotificationPayload{
		Content:   content,
		Timestamp: at.Format(TimestampLayout),
	})
	if err != nil {
		return nil, err
	}
	return json.Marshal(Event{
		Type:    EventNotification,
		Room:    Room(userID),
		Payload: payload,
	})
}
