package realtime

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/appetiteclub/tableside/internal/auth"
	"github.com/appetiteclub/tableside/pkg/event"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	ActionSubscribe   = "subscribe"
	ActionUnsubscribe = "unsubscribe"
)

// ClientFrame is what an observer sends to change its subscriptions.
type ClientFrame struct {
	Action string `json:"action"`
	Room   string `json:"room"`
}

// AckFrame confirms a subscription change.
type AckFrame struct {
	Ack  string `json:"ack"`
	Room string `json:"room"`
}

type ErrorFrame struct {
	Error string `json:"error"`
	Room  string `json:"room,omitempty"`
}

// WSHandler upgrades observers to WebSocket and lets them pick rooms.
// Order rooms are open to anyone holding the id. Restaurant rooms need a
// staff token for that restaurant, presented on the upgrade request.
type WSHandler struct {
	hub      *Hub
	auth     *auth.Authenticator
	upgrader websocket.Upgrader
	logger   apt.Logger
}

func NewWSHandler(hub *Hub, authn *auth.Authenticator, logger apt.Logger) *WSHandler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &WSHandler{
		hub:  hub,
		auth: authn,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
	}
}

func (h *WSHandler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.Serve)
}

// connection is the per-socket state shared by the read and write pumps.
type connection struct {
	conn     *websocket.Conn
	client   *Client
	identity *auth.Identity
	logger   apt.Logger
}

func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	log := h.logger.With("request_id", apt.RequestIDFrom(r.Context()))

	var identity *auth.Identity
	if token := auth.SocketToken(r); token != "" {
		id, err := h.auth.Parse(token)
		if err != nil {
			log.Debug("websocket token rejected", "error", err)
			apt.RespondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		identity = &id
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug("websocket upgrade failed", "error", err)
		return
	}

	c := &connection{
		conn:     conn,
		client:   h.hub.Connect(),
		identity: identity,
		logger:   log,
	}
	log.Debug("websocket connected", "client_id", c.client.ID, "staff", identity != nil)

	go h.writePump(c)
	h.readPump(c)
}

func (h *WSHandler) readPump(c *connection) {
	defer func() {
		h.hub.Drop(c.client)
		c.logger.Debug("websocket disconnected", "client_id", c.client.ID)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read error", "client_id", c.client.ID, "error", err)
			}
			return
		}

		var frame ClientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			h.reply(c, ErrorFrame{Error: "invalid frame"})
			continue
		}
		h.handleFrame(c, frame)
	}
}

func (h *WSHandler) handleFrame(c *connection, frame ClientFrame) {
	switch frame.Action {
	case ActionSubscribe:
		if msg := h.authorize(c, frame.Room); msg != "" {
			h.reply(c, ErrorFrame{Error: msg, Room: frame.Room})
			return
		}
		h.hub.Join(c.client, frame.Room)
		h.reply(c, AckFrame{Ack: ActionSubscribe, Room: frame.Room})
	case ActionUnsubscribe:
		h.hub.Leave(c.client, frame.Room)
		h.reply(c, AckFrame{Ack: ActionUnsubscribe, Room: frame.Room})
	default:
		h.reply(c, ErrorFrame{Error: "unknown action", Room: frame.Room})
	}
}

// authorize returns an error message when the connection may not join room.
func (h *WSHandler) authorize(c *connection, room string) string {
	kind, id, err := event.ParseRoom(room)
	if err != nil {
		return "unknown room"
	}
	if kind == event.RoomRestaurant {
		if c.identity == nil || c.identity.RestaurantID != id {
			return "forbidden"
		}
	}
	return ""
}

func (h *WSHandler) reply(c *connection, v any) {
	frame, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("cannot encode websocket reply", "error", err)
		return
	}
	if !h.hub.Deliver(c.client, frame) {
		c.logger.Debug("client queue full, dropping reply", "client_id", c.client.ID)
	}
}

func (h *WSHandler) writePump(c *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.client.Send():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Debug("websocket write failed", "client_id", c.client.ID, "error", err)
				h.hub.Drop(c.client)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.hub.Drop(c.client)
				return
			}
		}
	}
}
