package order

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/appetiteclub/tableside/internal/auth"
	"github.com/appetiteclub/tableside/internal/session"
	"github.com/appetiteclub/tableside/pkg/enums/orderstatus"
	"github.com/appetiteclub/tableside/pkg/event"
)

const MaxBodyBytes = 1 << 20

// SessionValidator resolves the QR session a guest presents when ordering.
type SessionValidator interface {
	Validate(ctx context.Context, token string) *session.Info
}

type Handler struct {
	logger    apt.Logger
	tlm       *telemetry.HTTP
	service   *Service
	sessions  SessionValidator
	auth      *auth.Authenticator
	publisher events.Publisher
	limiter   func(http.Handler) http.Handler
}

type HandlerDeps struct {
	Service       *Service
	Sessions      SessionValidator
	Authenticator *auth.Authenticator
	Publisher     events.Publisher
	// PublicLimiter throttles the unauthenticated create endpoint. Optional.
	PublicLimiter func(http.Handler) http.Handler
}

func NewHandler(hd HandlerDeps, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	limiter := hd.PublicLimiter
	if limiter == nil {
		limiter = func(next http.Handler) http.Handler { return next }
	}
	return &Handler{
		logger:    logger,
		tlm:       telemetry.NewHTTP(),
		service:   hd.Service,
		sessions:  hd.Sessions,
		auth:      hd.Authenticator,
		publisher: hd.Publisher,
		limiter:   limiter,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.With(h.limiter).Post("/", h.CreateOrder)
		r.Get("/{id}", h.GetOrder)

		r.Group(func(r chi.Router) {
			r.Use(h.auth.RequireStaff)
			r.Get("/", h.ListOrders)
			r.Get("/history", h.ListHistory)
			r.Patch("/{id}/status", h.UpdateStatus)
		})
	})
}

type OrderLineRequest struct {
	MenuItemID uuid.UUID `json:"menu_item_id"`
	Quantity   int       `json:"quantity"`
	Note       string    `json:"note,omitempty"`
}

type OrderCreateRequest struct {
	Token string             `json:"token"`
	Items []OrderLineRequest `json:"items"`
	Notes string             `json:"notes,omitempty"`
}

type StatusUpdateRequest struct {
	Status string `json:"status"`
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.CreateOrder")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	var req OrderCreateRequest
	if !decodePayload(w, r, log, &req) {
		return
	}

	info := h.sessions.Validate(ctx, req.Token)
	if info == nil {
		log.Debug("order rejected, invalid QR session")
		apt.RespondError(w, http.StatusUnauthorized, "QR session expired, please rescan")
		return
	}

	lines := make([]LineRequest, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, LineRequest{MenuItemID: it.MenuItemID, Quantity: it.Quantity, Note: it.Note})
	}

	o, err := h.service.Create(ctx, CreateOrder{
		RestaurantID: info.RestaurantID,
		TableID:      info.TableID,
		Lines:        lines,
		Notes:        req.Notes,
	})
	if err != nil {
		h.respondServiceError(w, err, log)
		return
	}

	h.publish(ctx, event.RestaurantRoom(o.RestaurantID), event.OrderCreatedEvent{
		EventType:   event.EventOrderCreated,
		OccurredAt:  time.Now().UTC(),
		Order:       o,
		TableNumber: info.TableNumber,
	}, log)

	links := apt.RESTfulLinksFor(o)
	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, o, links...)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrder")
	defer finish()

	log := h.log(r)

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	o, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, err, log)
		return
	}

	links := apt.RESTfulLinksFor(o)
	apt.RespondSuccess(w, o, links...)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListOrders")
	defer finish()

	log := h.log(r)
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		apt.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	statuses, err := parseStatuses(r.URL.Query().Get("status"))
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	orders, err := h.service.ListByStatus(r.Context(), identity.RestaurantID, statuses)
	if err != nil {
		h.respondServiceError(w, err, log)
		return
	}

	apt.RespondCollection(w, orders, "order")
}

func (h *Handler) ListHistory(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListHistory")
	defer finish()

	log := h.log(r)
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		apt.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	limit, err := queryInt(r, "limit")
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid limit parameter")
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid offset parameter")
		return
	}

	orders, err := h.service.History(r.Context(), identity.RestaurantID, limit, offset)
	if err != nil {
		h.respondServiceError(w, err, log)
		return
	}

	apt.RespondCollection(w, orders, "order")
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.UpdateStatus")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	identity, ok := auth.IdentityFrom(ctx)
	if !ok {
		apt.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, ok := h.parseIDParam(w, r, log)
	if !ok {
		return
	}

	var req StatusUpdateRequest
	if !decodePayload(w, r, log, &req) {
		return
	}
	to := orderstatus.ByName(req.Status)
	if to == nil {
		apt.RespondError(w, http.StatusBadRequest, "Unknown status: "+req.Status)
		return
	}

	change, err := h.service.Transition(ctx, id, identity.RestaurantID, *to, identity.Actor)
	if err != nil {
		h.respondServiceError(w, err, log)
		return
	}

	o := change.Order
	now := time.Now().UTC()
	h.publish(ctx, event.RestaurantRoom(o.RestaurantID), event.OrderStatusChangedEvent{
		EventType:      event.EventOrderStatusChanged,
		OccurredAt:     now,
		PreviousStatus: change.From.Code(),
		Order:          o,
	}, log)
	h.publish(ctx, event.OrderRoom(o.ID), event.OrderTrackingEvent{
		EventType:  event.EventOrderStatusChanged,
		OccurredAt: now,
		OrderID:    o.ID.String(),
		Status:     o.Status,
		UpdatedAt:  o.UpdatedAt,
	}, log)

	links := apt.RESTfulLinksFor(o)
	apt.RespondSuccess(w, o, links...)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error, log apt.Logger) {
	var unavailable *ItemsUnavailableError
	switch {
	case errors.Is(err, ErrNotFound):
		apt.RespondError(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, ErrInvalidTransition):
		apt.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrAlreadyAssigned):
		apt.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrNotOwner):
		apt.RespondError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &unavailable):
		apt.RespondError(w, http.StatusUnprocessableEntity, unavailable.Error())
	case errors.Is(err, ErrInvalidOrder):
		apt.RespondError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error("order operation failed", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not process order")
	}
}

func (h *Handler) publish(ctx context.Context, room string, evt any, log apt.Logger) {
	if h.publisher == nil {
		return
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		log.Error("cannot marshal event", "room", room, "error", err)
		return
	}
	if err := h.publisher.Publish(ctx, room, payload); err != nil {
		log.Error("cannot publish event", "room", room, "error", err)
	}
}

func (h *Handler) parseIDParam(w http.ResponseWriter, r *http.Request, log apt.Logger) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "id")
	if idStr == "" {
		log.Debug("missing id parameter")
		apt.RespondError(w, http.StatusBadRequest, "Missing id parameter")
		return uuid.Nil, false
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		log.Debug("invalid id parameter", "id", idStr)
		apt.RespondError(w, http.StatusBadRequest, "Invalid id parameter")
		return uuid.Nil, false
	}

	return id, true
}

func decodePayload(w http.ResponseWriter, r *http.Request, log apt.Logger, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Debug("failed to read request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		log.Debug("failed to decode request body", "error", err)
		apt.RespondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return false
	}

	return true
}

func parseStatuses(raw string) ([]orderstatus.Status, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []orderstatus.Status
	for _, part := range strings.Split(raw, ",") {
		s := orderstatus.ByName(strings.TrimSpace(part))
		if s == nil {
			return nil, errors.New("Unknown status: " + part)
		}
		out = append(out, *s)
	}
	return out, nil
}

func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}
