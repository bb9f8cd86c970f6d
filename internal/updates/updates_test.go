package updates_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digiplay/digiplay-server/internal/updates"
	"github.com/digiplay/digiplay-server/internal/utils"
)

func startHub(t *testing.T) *updates.Hub {
	t.Helper()
	hub := updates.NewHub(utils.NopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub
}

// dial connects a client for the owner named in the "owner" query parameter
func dial(t *testing.T, hub *updates.Hub, owner string) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = updates.ServeWs(hub, w, r, r.URL.Query().Get("owner"))
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?owner=" + owner
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) updates.Event {
	t.Helper()
	var event updates.Event
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&event))
	return event
}

func TestReleasesBroadcast(t *testing.T) {
	hub := startHub(t)
	releases := updates.NewReleases("1.0.0", time.Hour, hub)

	alice := dial(t, hub, "alice")
	bob := dial(t, hub, "bob")
	require.Eventually(t, func() bool { return hub.ClientCount("") == 2 }, 2*time.Second, 10*time.Millisecond)

	releases.Publish("1.1.0")

	for _, conn := range []*websocket.Conn{alice, bob} {
		event := readEvent(t, conn)
		assert.Equal(t, updates.EventUpdateAvailable, event.Type)
		assert.Equal(t, "1.1.0", event.Version)
	}

	// Owner scoped events reach only that owner
	releases.OfflineReady("alice")
	require.NoError(t, releases.Apply("alice", "1.1.0"))

	assert.Equal(t, updates.EventOfflineReady, readEvent(t, alice).Type)
	assert.Equal(t, updates.EventUpdateApplied, readEvent(t, alice).Type)

	require.NoError(t, bob.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := bob.ReadMessage()
	assert.Error(t, err)
}

func TestReleasesVersion(t *testing.T) {
	hub := startHub(t)
	releases := updates.NewReleases("1.0.0", time.Hour, hub)

	v := releases.Version("alice", "1.0.0")
	assert.Equal(t, "1.0.0", v.Version)
	assert.False(t, v.NeedRefresh)
	assert.Equal(t, 3600, v.PollInterval)

	releases.Publish("1.1.0")
	assert.True(t, releases.Version("alice", "1.0.0").NeedRefresh)
	// Nothing applied and nothing reported: no opinion
	assert.False(t, releases.Version("alice", "").NeedRefresh)

	assert.ErrorIs(t, releases.Apply("alice", "9.9.9"), updates.ErrUnknownVersion)
	require.NoError(t, releases.Apply("alice", "1.1.0"))
	assert.False(t, releases.Version("alice", "").NeedRefresh)
	assert.False(t, releases.Version("alice", "1.1.0").NeedRefresh)

	releases.Publish("1.2.0")
	assert.True(t, releases.Version("alice", "").NeedRefresh)
}

func TestHubDropsClientsOnShutdown(t *testing.T) {
	hub := updates.NewHub(utils.NopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	conn := dial(t, hub, "alice")
	require.Eventually(t, func() bool { return hub.ClientCount("alice") == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
	assert.Equal(t, 0, hub.ClientCount(""))
}
