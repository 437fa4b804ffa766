package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"forklifttracker/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticMembers struct {
	ids []uuid.UUID
	err error
}

func (s staticMembers) ActiveUserIDs(context.Context, uuid.UUID) ([]uuid.UUID, error) {
	return s.ids, s.err
}

func startHub(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := uuid.MustParse(r.URL.Query().Get("user"))
		_ = hub.Serve(w, r, userID)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, hub *Hub, userID uuid.UUID) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?user=" + userID.String()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Eventually(t, func() bool { return hub.Connected(userID) == 1 }, time.Second, 10*time.Millisecond)
	return conn
}

func TestPublishReachesActiveMembers(t *testing.T) {
	member := uuid.New()
	outsider := uuid.New()
	hub := NewHub(staticMembers{ids: []uuid.UUID{member}})
	srv := startHub(t, hub)

	memberConn := dial(t, srv, hub, member)
	outsiderConn := dial(t, srv, hub, outsider)

	event := models.NewEvent(models.EventForkliftCreated, uuid.New())
	require.NoError(t, hub.Publish(context.Background(), event))

	_ = memberConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := memberConn.ReadMessage()
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, models.EventForkliftCreated, got["type"])
	assert.Equal(t, event.CompanyID.String(), got["company_id"])

	_ = outsiderConn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err = outsiderConn.ReadMessage()
	assert.Error(t, err)
}

func TestPublishUsesExplicitRecipients(t *testing.T) {
	former := uuid.New()
	hub := NewHub(staticMembers{err: errors.New("company is gone")})
	srv := startHub(t, hub)
	conn := dial(t, srv, hub, former)

	event := models.NewEvent(models.EventCompanyDeleted, uuid.New())
	event.Recipients = []uuid.UUID{former}
	require.NoError(t, hub.Publish(context.Background(), event))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), models.EventCompanyDeleted)
}

func TestPublishLookupFailure(t *testing.T) {
	hub := NewHub(staticMembers{err: errors.New("db down")})
	err := hub.Publish(context.Background(), models.NewEvent(models.EventForkliftUpdated, uuid.New()))
	assert.Error(t, err)
}

func TestDisconnectUnregisters(t *testing.T) {
	userID := uuid.New()
	hub := NewHub(staticMembers{})
	srv := startHub(t, hub)
	conn := dial(t, srv, hub, userID)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Connected(userID) == 0 }, 2*time.Second, 10*time.Millisecond)
}
