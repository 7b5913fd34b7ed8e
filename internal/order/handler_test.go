package order

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/appetiteclub/tableside/internal/auth"
	"github.com/appetiteclub/tableside/internal/session"
	"github.com/appetiteclub/tableside/pkg/enums/orderstatus"
	"github.com/appetiteclub/tableside/pkg/enums/staffrole"
	"github.com/appetiteclub/tableside/pkg/event"
)

const (
	testSecret = "order-test-secret"
	guestToken = "valid-qr-token"
)

type handlerFixture struct {
	*fixture
	svc      *Service
	pub      *MockPublisher
	router   http.Handler
	authn    *auth.Authenticator
	sessions *MockSessions
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	f := newFixture()
	hf := &handlerFixture{
		fixture: f,
		svc:     f.service(""),
		pub:     &MockPublisher{},
		authn:   auth.NewAuthenticator(testSecret, nil),
	}
	hf.sessions = &MockSessions{sessions: map[string]*session.Info{
		guestToken: {
			Token:        guestToken,
			ExpiresAt:    time.Now().Add(time.Minute),
			TableID:      f.table.ID,
			TableNumber:  f.table.Number,
			RestaurantID: f.restaurant.ID,
		},
	}}

	h := NewHandler(HandlerDeps{
		Service:       hf.svc,
		Sessions:      hf.sessions,
		Authenticator: hf.authn,
		Publisher:     hf.pub,
	}, nil)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	hf.router = r
	return hf
}

func (hf *handlerFixture) token(t *testing.T, staffID uuid.UUID, role staffrole.Role) string {
	t.Helper()
	tok, err := hf.authn.Issue(hf.restaurant.ID, staffID, role, time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	return tok
}

func (hf *handlerFixture) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	hf.router.ServeHTTP(w, req)
	return w
}

type orderEnvelope struct {
	Data Order `json:"data"`
}

func TestHandlerCreateOrder(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		wantStatus int
	}{
		{
			name: "validOrder",
			body: func(f *fixture) OrderCreateRequest {
				return OrderCreateRequest{Token: guestToken, Items: []OrderLineRequest{{MenuItemID: f.pizza.ID, Quantity: 2}}}
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "expiredSession",
			body: func(f *fixture) OrderCreateRequest {
				return OrderCreateRequest{Token: "stale", Items: []OrderLineRequest{{MenuItemID: f.pizza.ID, Quantity: 1}}}
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "unavailableItem",
			body: func(f *fixture) OrderCreateRequest {
				return OrderCreateRequest{Token: guestToken, Items: []OrderLineRequest{{MenuItemID: f.soldOut.ID, Quantity: 1}}}
			},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "invalidQuantity",
			body: func(f *fixture) OrderCreateRequest {
				return OrderCreateRequest{Token: guestToken, Items: []OrderLineRequest{{MenuItemID: f.pizza.ID, Quantity: 21}}}
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformedBody",
			body:       "not-json",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hf := newHandlerFixture(t)

			var body any = tt.body
			if build, ok := tt.body.(func(*fixture) OrderCreateRequest); ok {
				body = build(hf.fixture)
			}
			w := hf.do(http.MethodPost, "/orders/", body, "")

			if w.Code != tt.wantStatus {
				t.Fatalf("CreateOrder() status = %d, want %d, body %s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantStatus != http.StatusCreated {
				if len(hf.pub.msgs) != 0 {
					t.Error("event published for a rejected order")
				}
				return
			}

			var resp orderEnvelope
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("cannot decode response: %v", err)
			}
			if resp.Data.Status != orderstatus.Statuses.Pending.Code() || resp.Data.Number != 1 {
				t.Errorf("order = %s #%d, want PENDING #1", resp.Data.Status, resp.Data.Number)
			}
			if len(hf.pub.topics) != 1 || hf.pub.topics[0] != event.RestaurantRoom(hf.restaurant.ID) {
				t.Fatalf("published to %v, want restaurant room", hf.pub.topics)
			}
			var evt event.OrderCreatedEvent
			if err := json.Unmarshal(hf.pub.msgs[0], &evt); err != nil {
				t.Fatalf("cannot decode event: %v", err)
			}
			if evt.EventType != event.EventOrderCreated || evt.TableNumber != 7 {
				t.Errorf("event = %s table %d, want %s table 7", evt.EventType, evt.TableNumber, event.EventOrderCreated)
			}
		})
	}
}

func TestHandlerGetOrder(t *testing.T) {
	hf := newHandlerFixture(t)
	o := hf.create(t, hf.svc)

	tests := []struct {
		name       string
		id         string
		wantStatus int
	}{
		{name: "existingOrder", id: o.ID.String(), wantStatus: http.StatusOK},
		{name: "unknownOrder", id: uuid.NewString(), wantStatus: http.StatusNotFound},
		{name: "invalidID", id: "abc", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := hf.do(http.MethodGet, "/orders/"+tt.id, nil, "")
			if w.Code != tt.wantStatus {
				t.Errorf("GetOrder() status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestHandlerStaffRoutesRequireToken(t *testing.T) {
	hf := newHandlerFixture(t)
	o := hf.create(t, hf.svc)

	tests := []struct {
		name   string
		method string
		path   string
	}{
		{name: "listOrders", method: http.MethodGet, path: "/orders/"},
		{name: "history", method: http.MethodGet, path: "/orders/history"},
		{name: "updateStatus", method: http.MethodPatch, path: "/orders/" + o.ID.String() + "/status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := hf.do(tt.method, tt.path, StatusUpdateRequest{Status: "ACCEPTED"}, "")
			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", w.Code)
			}
		})
	}
}

func TestHandlerUpdateStatus(t *testing.T) {
	hf := newHandlerFixture(t)
	o := hf.create(t, hf.svc)
	waiterA := hf.token(t, hf.waiterA.ID, staffrole.Roles.Waiter)
	waiterB := hf.token(t, hf.waiterB.ID, staffrole.Roles.Waiter)
	path := "/orders/" + o.ID.String() + "/status"

	steps := []struct {
		name       string
		token      string
		status     string
		wantStatus int
	}{
		{name: "skipToDelivered", token: waiterA, status: "DELIVERED", wantStatus: http.StatusConflict},
		{name: "unknownStatus", token: waiterA, status: "EATEN", wantStatus: http.StatusBadRequest},
		{name: "accept", token: waiterA, status: "accepted", wantStatus: http.StatusOK},
		{name: "prepare", token: waiterA, status: "PREPARING", wantStatus: http.StatusOK},
		{name: "ready", token: waiterB, status: "READY", wantStatus: http.StatusOK},
		{name: "deliverByOtherWaiter", token: waiterB, status: "DELIVERED", wantStatus: http.StatusForbidden},
		{name: "deliverByOwner", token: waiterA, status: "DELIVERED", wantStatus: http.StatusOK},
	}

	for _, st := range steps {
		hf.pub.topics, hf.pub.msgs = nil, nil
		w := hf.do(http.MethodPatch, path, StatusUpdateRequest{Status: st.status}, st.token)
		if w.Code != st.wantStatus {
			t.Fatalf("%s: status = %d, want %d, body %s", st.name, w.Code, st.wantStatus, w.Body.String())
		}
		if st.wantStatus != http.StatusOK {
			if len(hf.pub.msgs) != 0 {
				t.Errorf("%s: event published for a rejected transition", st.name)
			}
			continue
		}

		want := []string{event.RestaurantRoom(hf.restaurant.ID), event.OrderRoom(o.ID)}
		if len(hf.pub.topics) != 2 || hf.pub.topics[0] != want[0] || hf.pub.topics[1] != want[1] {
			t.Fatalf("%s: published to %v, want %v", st.name, hf.pub.topics, want)
		}
		var tracking event.OrderTrackingEvent
		if err := json.Unmarshal(hf.pub.msgs[1], &tracking); err != nil {
			t.Fatalf("%s: cannot decode tracking event: %v", st.name, err)
		}
		if tracking.OrderID != o.ID.String() {
			t.Errorf("%s: tracking order = %s, want %s", st.name, tracking.OrderID, o.ID)
		}
	}

	if len(hf.stock.enqueued) != 1 {
		t.Errorf("stock deductions = %d, want 1", len(hf.stock.enqueued))
	}
}

func TestHandlerUpdateStatusOtherRestaurant(t *testing.T) {
	hf := newHandlerFixture(t)
	o := hf.create(t, hf.svc)

	tok, err := hf.authn.Issue(hf.other.ID, uuid.New(), staffrole.Roles.Manager, time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	w := hf.do(http.MethodPatch, "/orders/"+o.ID.String()+"/status", StatusUpdateRequest{Status: "ACCEPTED"}, tok)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestHandlerListOrders(t *testing.T) {
	hf := newHandlerFixture(t)
	hf.create(t, hf.svc)
	hf.now = hf.now.Add(time.Minute)
	hf.create(t, hf.svc)
	tok := hf.token(t, uuid.Nil, staffrole.Roles.Manager)

	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{name: "activeByDefault", query: "", wantStatus: http.StatusOK},
		{name: "explicitStatuses", query: "?status=PENDING,ACCEPTED", wantStatus: http.StatusOK},
		{name: "unknownStatus", query: "?status=LOST", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := hf.do(http.MethodGet, "/orders/"+tt.query, nil, tok)
			if w.Code != tt.wantStatus {
				t.Errorf("ListOrders() status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestHandlerListHistory(t *testing.T) {
	hf := newHandlerFixture(t)
	tok := hf.token(t, uuid.Nil, staffrole.Roles.Manager)

	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{name: "defaults", query: "", wantStatus: http.StatusOK},
		{name: "paged", query: "?limit=10&offset=5", wantStatus: http.StatusOK},
		{name: "badLimit", query: "?limit=ten", wantStatus: http.StatusBadRequest},
		{name: "badOffset", query: "?offset=x", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := hf.do(http.MethodGet, "/orders/history"+tt.query, nil, tok)
			if w.Code != tt.wantStatus {
				t.Errorf("ListHistory() status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
