package hub

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/coscribe/coscribe/pkg/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// same policy as the HTTP CORS middleware: wide open for dev
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// inbound message shapes:
//
//	{"type":"join-note","noteId":...,"userId":...}
//	{"type":"note-change","noteId":...,"title":...,"content":...,"userId":...}
type wsMessage struct {
	Type    string `json:"type"`
	NoteID  string `json:"noteId"`
	Title   string `json:"title"`
	Content string `json:"content"`
	UserID  string `json:"userId"`
}

// HandleWS upgrades the connection and runs the session until the client
// disconnects. Joining a different note leaves the previous group.
func HandleWS(h *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warnf("websocket upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		sessionID := uuid.NewString()
		s := h.Register(sessionID)
		defer h.Unregister(c.Request.Context(), sessionID)

		// write pump; exits when Unregister closes the channel
		done := make(chan struct{})
		go func() {
			defer close(done)
			for msg := range s.Receive() {
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			}
		}()

		logger.Debugf("ws session %s connected", sessionID)
		for {
			_, buf, err := conn.ReadMessage()
			if err != nil {
				logger.Debugf("ws session %s disconnected: %v", sessionID, err)
				break
			}
			var msg wsMessage
			if err := json.Unmarshal(buf, &msg); err != nil {
				logger.Warnf("ws session %s sent malformed message: %v", sessionID, err)
				continue
			}
			switch msg.Type {
			case "join-note":
				h.Join(c.Request.Context(), sessionID, msg.NoteID, msg.UserID)
			case "leave-note":
				h.Leave(c.Request.Context(), sessionID)
			case "note-change":
				h.Broadcast(msg.NoteID, Event{
					Title:   msg.Title,
					Content: msg.Content,
					UserID:  msg.UserID,
				}, sessionID)
			default:
				logger.Debugf("ws session %s: unknown message type %q", sessionID, msg.Type)
			}
		}

		h.Unregister(c.Request.Context(), sessionID)
		<-done
	}
}
