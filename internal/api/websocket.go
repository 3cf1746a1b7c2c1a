package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// WebSocket message types for the session event stream
const (
	// Client -> Server messages
	MsgTypePing = "ping"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypeSession   = "session"
	MsgTypeDeleted   = "deleted"
	MsgTypePong      = "pong"
	MsgTypeError     = "error"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

// WSMessage is the envelope of every WebSocket frame
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// WebSocketHandler streams session snapshots to browser clients
type WebSocketHandler struct {
	sessions       SessionManager
	upgrader       websocket.Upgrader
	maxMessageSize int64
	logger         *zap.Logger
}

// NewWebSocketHandler creates a new WebSocket event handler
func NewWebSocketHandler(sessions SessionManager, maxMessageKB int, logger *zap.Logger) *WebSocketHandler {
	if maxMessageKB <= 0 {
		maxMessageKB = 64
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocketHandler{
		sessions: sessions,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from dev server
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
		},
		maxMessageSize: int64(maxMessageKB) * 1024,
		logger:         logger,
	}
}

// HandleSessionEvents upgrades the connection and pushes every published
// snapshot of the session until the client leaves or the session is deleted.
func (wsh *WebSocketHandler) HandleSessionEvents(c echo.Context) error {
	id := c.Param("id")

	updates, unsubscribe, err := wsh.sessions.Subscribe(id)
	if err != nil {
		return mapError(err)
	}
	defer unsubscribe()

	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	log := wsh.logger.With(zap.String("session", id))
	log.Debug("websocket client connected")

	// Reader: answers pings and detects the client going away
	clientMsgs := make(chan WSMessage, 4)
	done := make(chan struct{})
	defer close(done)
	go func() {
		defer close(clientMsgs)
		ws.SetReadLimit(wsh.maxMessageSize)
		_ = ws.SetReadDeadline(time.Now().Add(wsPongWait))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			var msg WSMessage
			if err := ws.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Debug("websocket read error", zap.Error(err))
				}
				return
			}
			_ = ws.SetReadDeadline(time.Now().Add(wsPongWait))
			select {
			case clientMsgs <- msg:
			case <-done:
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	if err := wsh.send(ws, WSMessage{Type: MsgTypeConnected, ID: id}); err != nil {
		return nil
	}

	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				_ = wsh.send(ws, WSMessage{Type: MsgTypeDeleted, ID: id})
				_ = ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session deleted"),
					time.Now().Add(wsWriteWait))
				return nil
			}
			payload, err := json.Marshal(snap)
			if err != nil {
				log.Error("failed to encode snapshot", zap.Error(err))
				continue
			}
			if err := wsh.send(ws, WSMessage{Type: MsgTypeSession, ID: id, Payload: payload}); err != nil {
				return nil
			}

		case msg, ok := <-clientMsgs:
			if !ok {
				log.Debug("websocket client disconnected")
				return nil
			}
			switch msg.Type {
			case MsgTypePing:
				if err := wsh.send(ws, WSMessage{Type: MsgTypePong, ID: id}); err != nil {
					return nil
				}
			default:
				errPayload, _ := json.Marshal(map[string]string{
					"message": "Unknown message type: " + msg.Type,
					"code":    "INVALID_TYPE",
				})
				if err := wsh.send(ws, WSMessage{Type: MsgTypeError, ID: id, Payload: errPayload}); err != nil {
					return nil
				}
			}

		case <-ping.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return nil
			}
		}
	}
}

func (wsh *WebSocketHandler) send(ws *websocket.Conn, msg WSMessage) error {
	msg.Timestamp = time.Now().UnixMilli()
	_ = ws.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return ws.WriteJSON(msg)
}
