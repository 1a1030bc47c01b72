package ws_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/race-bet-platform/internal/race-status/ws"
	"github.com/radieske/race-bet-platform/pkg/contracts/events"
)

func dial(t *testing.T, hub *ws.Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// roundTrip envia um ping e espera o pong; mensagens anteriores já foram processadas
func roundTrip(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(ws.ClientMsg{Type: "ping"}))
	var pong map[string]string
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&pong))
	require.Equal(t, "pong", pong["type"])
}

func allowAll(*http.Request) bool { return true }

func TestHubDeliversToSubscribers(t *testing.T) {
	hub := ws.NewHub(zap.NewNop(), allowAll)
	conn := dial(t, hub)

	require.NoError(t, conn.WriteJSON(ws.ClientMsg{Type: "subscribe", RaceID: "r1"}))
	roundTrip(t, conn)
	assert.Equal(t, 1, hub.Subscribers("r1"))

	// outra corrida não chega
	hub.Broadcast(events.RaceUpdate{RaceID: "r2", Kind: events.RaceClosed})
	ws.Relay(zap.NewNop(), hub, []byte(`{"raceId":"r1","kind":"BROADCAST","payouts":[{"type":"win","combinations":[{"numbers":[4],"payout":350}]}]}`))

	var got events.RaceUpdate
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "r1", got.RaceID)
	assert.Equal(t, events.RaceBroadcast, got.Kind)
	require.Len(t, got.Payouts, 1)
	assert.Equal(t, int64(350), got.Payouts[0].Combinations[0].Payout)
}

func TestHubUnsubscribe(t *testing.T) {
	hub := ws.NewHub(zap.NewNop(), allowAll)
	conn := dial(t, hub)

	require.NoError(t, conn.WriteJSON(ws.ClientMsg{Type: "subscribe", RaceID: "r1"}))
	require.NoError(t, conn.WriteJSON(ws.ClientMsg{Type: "unsubscribe", RaceID: "r1"}))
	roundTrip(t, conn)

	assert.Zero(t, hub.Subscribers("r1"))
}

func TestRelayIgnoresInvalidPayload(t *testing.T) {
	hub := ws.NewHub(zap.NewNop(), allowAll)
	assert.NotPanics(t, func() {
		ws.Relay(zap.NewNop(), hub, []byte("garbage"))
		ws.Relay(zap.NewNop(), hub, []byte(`{"kind":"CLOSED"}`))
	})
}
