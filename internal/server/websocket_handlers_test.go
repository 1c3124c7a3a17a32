package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"inertus/internal/notifications"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serve starts the app on a random local port and returns its websocket base URL.
func serve(t *testing.T, s *Server) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() { _ = s.App().Listener(ln) }()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return "ws://" + ln.Addr().String()
}

func readEvent(t *testing.T, conn *gws.Conn) notifications.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var ev notifications.Event
	require.NoError(t, json.Unmarshal(raw, &ev))
	return ev
}

func TestWebsocket_RequiresUpgrade(t *testing.T) {
	s, _ := newTestServer(t, true)
	_, token := signup(t, s, "alice")

	resp := doJSON(t, s, http.MethodGet, "/ws", token, nil)
	assert.Equal(t, http.StatusUpgradeRequired, resp.StatusCode)
}

func TestWebsocket_InvalidTicket(t *testing.T) {
	s, _ := newTestServer(t, true)
	resp := doJSON(t, s, http.MethodGet, "/ws?ticket=not-a-ticket", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebsocket_LocalHubDelivery(t *testing.T) {
	s, _ := newTestServer(t, false)
	alice, aliceToken := signup(t, s, "alice")
	_, bobToken := signup(t, s, "bob")

	base := serve(t, s)
	header := http.Header{"Authorization": {"Bearer " + aliceToken}}
	conn, resp, err := gws.DefaultDialer.Dial(base+"/ws", header)
	require.NoError(t, err)
	_ = resp.Body.Close()
	defer func() { _ = conn.Close() }()

	require.Eventually(t, func() bool { return s.hub.Connections(alice.ID) == 1 },
		2*time.Second, 10*time.Millisecond)

	sent := doJSON(t, s, http.MethodPost, fmt.Sprintf("/messages/send/%d", alice.ID), bobToken,
		map[string]string{"content": "Are you around?"})
	require.Equal(t, http.StatusCreated, sent.StatusCode)

	ev := readEvent(t, conn)
	assert.Equal(t, notifications.EventNotification, ev.Type)
	assert.Equal(t, notifications.Room(alice.ID), ev.Room)

	var payload notifications.NotificationPayload
	require.NoError(t, json.Unmarshal(ev.Payload, &payload))
	assert.Equal(t, "New message from bob", payload.Content)
	_, err = time.Parse(notifications.TimestampLayout, payload.Timestamp)
	assert.NoError(t, err)
}

func TestWebsocket_RedisFanOutWithTicket(t *testing.T) {
	s, mr := newTestServer(t, true)
	alice, aliceToken := signup(t, s, "alice")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.hub.Run(ctx, s.notifier)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	require.Eventually(t, func() bool { return mr.PubSubNumPat() > 0 },
		2*time.Second, 10*time.Millisecond)

	base := serve(t, s)

	resp := doJSON(t, s, http.MethodPost, "/ws/ticket", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ticket struct {
		Ticket string `json:"ticket"`
	}
	decode(t, resp, &ticket)

	conn, wsResp, err := gws.DefaultDialer.Dial(base+"/ws?ticket="+ticket.Ticket, nil)
	require.NoError(t, err)
	_ = wsResp.Body.Close()
	defer func() { _ = conn.Close() }()

	require.Eventually(t, func() bool { return s.hub.Connections(alice.ID) == 1 },
		2*time.Second, 10*time.Millisecond)

	_, err = s.notificationService.CreateNotification(context.Background(), alice.ID, "Welcome back", "")
	require.NoError(t, err)

	ev := readEvent(t, conn)
	assert.Equal(t, notifications.Room(alice.ID), ev.Room)

	var payload notifications.NotificationPayload
	require.NoError(t, json.Unmarshal(ev.Payload, &payload))
	assert.Equal(t, "Welcome back", payload.Content)

	// The ticket was consumed by the handshake.
	_, _, err = gws.DefaultDialer.Dial(base+"/ws?ticket="+ticket.Ticket, nil)
	assert.Error(t, err)
}
