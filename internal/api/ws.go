package api

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/wuwenbin0122/flexchat/internal/models"
)

const wsWriteTimeout = 10 * time.Second

var chatUpgrader = websocket.Upgrader{
	ReadBufferSize:  4 * 1024,
	WriteBufferSize: 16 * 1024,
	CheckOrigin:     sameOrigin,
}

// sameOrigin accepts requests without an Origin header (non-browser clients)
// and browser requests whose origin host matches the request host.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

type wsClientFrame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

type wsServerFrame struct {
	Type  string        `json:"type"`
	Turns []models.Turn `json:"turns,omitempty"`
	Error string        `json:"error,omitempty"`
}

// handleWebsocket pushes a fresh snapshot after every append. The session
// must already exist because cookies cannot be set on an upgraded response.
func (h *Handler) handleWebsocket(c *gin.Context) {
	id, ok := h.verifiedSession(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "session required", errors.New("missing or invalid session cookie"))
		return
	}

	conn, err := chatUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warnf("chat websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()

	send := func(frame wsServerFrame) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(frame); err != nil {
			h.logger.Warnf("chat websocket write failed: %v", err)
			return false
		}
		return true
	}
	sendSnapshot := func(turns []models.Turn) {
		send(wsServerFrame{Type: "snapshot", Turns: turns})
	}

	if !send(wsServerFrame{Type: "snapshot", Turns: h.registry.Get(id).Snapshot()}) {
		return
	}

	for {
		var frame wsClientFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warnf("chat websocket closed unexpectedly: %v", err)
			}
			return
		}

		switch strings.ToLower(strings.TrimSpace(frame.Type)) {
		case "message":
			// Resolved per frame: resets from other tabs apply here and the
			// session's lastSeen keeps moving.
			conv := h.registry.Get(id)
			if _, err := h.exchange(ctx, conv, frame.Content, sendSnapshot); err != nil {
				if !send(wsServerFrame{Type: "error", Error: err.Error()}) {
					return
				}
			}
		case "reset":
			h.registry.Reset(id)
			if !send(wsServerFrame{Type: "snapshot", Turns: h.registry.Get(id).Snapshot()}) {
				return
			}
		default:
			if !send(wsServerFrame{Type: "error", Error: "unsupported frame type: " + frame.Type}) {
				return
			}
		}
	}
}
