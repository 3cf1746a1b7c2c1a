package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transfer-studio/backend/internal/models"
)

func dialEvents(t *testing.T, srv *httptest.Server, id string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/sessions/" + id
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// readUntil skips messages until match returns true. Snapshots are
// coalesced, so intermediate states may never arrive.
func readUntil(t *testing.T, conn *websocket.Conn, match func(WSMessage) bool) WSMessage {
	t.Helper()
	for i := 0; i < 10; i++ {
		msg := readMessage(t, conn)
		if match(msg) {
			return msg
		}
	}
	t.Fatal("expected message never arrived")
	return WSMessage{}
}

func sessionPayload(t *testing.T, msg WSMessage) models.Session {
	t.Helper()
	var snap models.Session
	require.NoError(t, json.Unmarshal(msg.Payload, &snap))
	return snap
}

func TestWebSocket_SessionEvents(t *testing.T) {
	s := newTestServer(t, 0)
	srv := httptest.NewServer(s.e)
	defer srv.Close()

	id := s.createSession(t)
	conn := dialEvents(t, srv, id)

	msg := readMessage(t, conn)
	assert.Equal(t, MsgTypeConnected, msg.Type)
	assert.Equal(t, id, msg.ID)

	msg = readMessage(t, conn)
	require.Equal(t, MsgTypeSession, msg.Type)
	assert.Equal(t, models.SessionStatusEmpty, sessionPayload(t, msg).Status)

	require.NoError(t, conn.WriteJSON(WSMessage{Type: MsgTypePing}))
	assert.Equal(t, MsgTypePong, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteJSON(WSMessage{Type: "bogus"}))
	msg = readMessage(t, conn)
	require.Equal(t, MsgTypeError, msg.Type)
	assert.Contains(t, string(msg.Payload), "INVALID_TYPE")

	require.Equal(t, http.StatusCreated, s.upload(t, id, "fox.txt", "text/plain", []byte("The fox.")).Code)
	msg = readUntil(t, conn, func(m WSMessage) bool {
		return m.Type == MsgTypeSession && sessionPayload(t, m).Status == models.SessionStatusReady
	})
	snap := sessionPayload(t, msg)
	require.NotNil(t, snap.File)
	assert.Equal(t, "fox.txt", snap.File.Name)

	require.Equal(t, http.StatusOK, s.request(http.MethodPost, "/api/sessions/"+id+"/analyze?wait=true", nil).Code)
	msg = readUntil(t, conn, func(m WSMessage) bool {
		return m.Type == MsgTypeSession && sessionPayload(t, m).Status == models.SessionStatusComplete
	})
	assert.Equal(t, "Technology", sessionPayload(t, msg).Result.Predictions[0].Class)

	require.Equal(t, http.StatusNoContent, s.request(http.MethodDelete, "/api/sessions/"+id, nil).Code)
	readUntil(t, conn, func(m WSMessage) bool { return m.Type == MsgTypeDeleted })
}

func TestWebSocket_UnknownSession(t *testing.T) {
	s := newTestServer(t, 0)
	srv := httptest.NewServer(s.e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/sessions/missing"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
