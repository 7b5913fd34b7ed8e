package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/appetiteclub/tableside/internal/auth"
	"github.com/appetiteclub/tableside/pkg/enums/staffrole"
	"github.com/appetiteclub/tableside/pkg/event"
)

const testSecret = "realtime-test-secret"

type wsFixture struct {
	hub    *Hub
	authn  *auth.Authenticator
	server *httptest.Server
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	f := &wsFixture{
		hub:   NewHub(8, nil),
		authn: auth.NewAuthenticator(testSecret, nil),
	}
	r := chi.NewRouter()
	NewWSHandler(f.hub, f.authn, nil).RegisterRoutes(r)
	f.server = httptest.NewServer(r)
	t.Cleanup(func() {
		f.hub.Close()
		f.server.Close()
	})
	return f
}

func (f *wsFixture) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws"
	if token != "" {
		url += "?token=" + token
	}
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("Dial() error = %v (status %d)", err, status)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

type serverFrame struct {
	Ack   string `json:"ack"`
	Error string `json:"error"`
	Room  string `json:"room"`
	Data  any    `json:"data"`
}

func send(t *testing.T, conn *websocket.Conn, action, room string) serverFrame {
	t.Helper()
	if err := conn.WriteJSON(ClientFrame{Action: action, Room: room}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	return receive(t, conn)
}

func receive(t *testing.T, conn *websocket.Conn) serverFrame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var frame serverFrame
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return frame
}

func TestWSOrderRoomIsOpen(t *testing.T) {
	f := newWSFixture(t)
	conn := f.dial(t, "")
	room := event.OrderRoom(uuid.New())

	ack := send(t, conn, ActionSubscribe, room)
	if ack.Ack != ActionSubscribe || ack.Room != room {
		t.Fatalf("ack = %+v", ack)
	}

	if err := f.hub.Publish(context.Background(), room, []byte(`{"status":"READY"}`)); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	frame := receive(t, conn)
	if frame.Room != room {
		t.Errorf("frame room = %s, want %s", frame.Room, room)
	}
	data, ok := frame.Data.(map[string]any)
	if !ok || data["status"] != "READY" {
		t.Errorf("frame data = %v", frame.Data)
	}
}

func TestWSRestaurantRoomAuthorization(t *testing.T) {
	f := newWSFixture(t)
	restaurantID := uuid.New()
	room := event.RestaurantRoom(restaurantID)

	own, err := f.authn.Issue(restaurantID, uuid.New(), staffrole.Roles.Kitchen, time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	foreign, err := f.authn.Issue(uuid.New(), uuid.New(), staffrole.Roles.Waiter, time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	tests := []struct {
		name      string
		token     string
		wantAck   bool
		wantError string
	}{
		{name: "anonymous", token: "", wantError: "forbidden"},
		{name: "otherRestaurant", token: foreign, wantError: "forbidden"},
		{name: "sameRestaurant", token: own, wantAck: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := f.dial(t, tt.token)
			frame := send(t, conn, ActionSubscribe, room)
			if tt.wantAck && frame.Ack != ActionSubscribe {
				t.Errorf("frame = %+v, want ack", frame)
			}
			if !tt.wantAck && frame.Error != tt.wantError {
				t.Errorf("frame error = %q, want %q", frame.Error, tt.wantError)
			}
		})
	}
}

func TestWSFrameErrors(t *testing.T) {
	f := newWSFixture(t)
	conn := f.dial(t, "")

	if frame := send(t, conn, "shout", event.OrderRoom(uuid.New())); frame.Error != "unknown action" {
		t.Errorf("frame = %+v, want unknown action", frame)
	}
	if frame := send(t, conn, ActionSubscribe, "lobby"); frame.Error != "unknown room" {
		t.Errorf("frame = %+v, want unknown room", frame)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte("{")); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}
	if frame := receive(t, conn); frame.Error != "invalid frame" {
		t.Errorf("frame = %+v, want invalid frame", frame)
	}
}

func TestWSUnsubscribeStopsDelivery(t *testing.T) {
	f := newWSFixture(t)
	conn := f.dial(t, "")
	room := event.OrderRoom(uuid.New())

	send(t, conn, ActionSubscribe, room)
	if ack := send(t, conn, ActionUnsubscribe, room); ack.Ack != ActionUnsubscribe {
		t.Fatalf("ack = %+v", ack)
	}
	if f.hub.Members(room) != 0 {
		t.Errorf("Members() = %d after unsubscribe", f.hub.Members(room))
	}
}

func TestWSInvalidTokenRejectsUpgrade(t *testing.T) {
	f := newWSFixture(t)
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws?token=garbage"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("Dial() error = nil, want handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("handshake status = %v, want 401", resp)
	}
}

func TestWSDisconnectDropsClient(t *testing.T) {
	f := newWSFixture(t)
	conn := f.dial(t, "")
	send(t, conn, ActionSubscribe, event.OrderRoom(uuid.New()))

	_ = conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for f.hub.Connections() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if f.hub.Connections() != 0 {
		t.Errorf("Connections() = %d after disconnect", f.hub.Connections())
	}
}
