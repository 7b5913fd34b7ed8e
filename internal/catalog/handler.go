package catalog

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/appetiteclub/apt/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/appetiteclub/tableside/internal/auth"
	"github.com/appetiteclub/tableside/pkg/event"
)

const MaxBodyBytes = 1 << 16

type Handler struct {
	logger    apt.Logger
	tlm       *telemetry.HTTP
	menuItems MenuItemRepo
	auth      *auth.Authenticator
	publisher events.Publisher
}

type HandlerDeps struct {
	MenuItems     MenuItemRepo
	Authenticator *auth.Authenticator
	Publisher     events.Publisher
}

func NewHandler(hd HandlerDeps, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Handler{
		logger:    logger,
		tlm:       telemetry.NewHTTP(),
		menuItems: hd.MenuItems,
		auth:      hd.Authenticator,
		publisher: hd.Publisher,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/menu-items", func(r chi.Router) {
		r.Use(h.auth.RequireStaff)
		r.Patch("/{id}/availability", h.SetAvailability)
	})
}

type AvailabilityRequest struct {
	Available *bool `json:"available"`
}

func (h *Handler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SetAvailability")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	identity, ok := auth.IdentityFrom(ctx)
	if !ok {
		apt.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Invalid id parameter")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		apt.RespondError(w, http.StatusBadRequest, "Failed to read request body")
		return
	}
	var req AvailabilityRequest
	if err := json.Unmarshal(body, &req); err != nil || req.Available == nil {
		apt.RespondError(w, http.StatusBadRequest, "available is required")
		return
	}

	item, err := h.menuItems.Get(ctx, id)
	if err != nil {
		log.Error("cannot load menu item", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not load menu item")
		return
	}
	if item == nil || item.RestaurantID != identity.RestaurantID {
		apt.RespondError(w, http.StatusNotFound, "Menu item not found")
		return
	}

	if err := h.menuItems.SetAvailability(ctx, id, *req.Available); err != nil {
		log.Error("cannot update menu item availability", "error", err, "id", id.String())
		apt.RespondError(w, http.StatusInternalServerError, "Could not update menu item")
		return
	}
	item.Available = *req.Available
	item.UpdatedAt = time.Now()

	h.publishAvailability(ctx, item, log)

	links := apt.RESTfulLinksFor(item)
	apt.RespondSuccess(w, item, links...)
}

func (h *Handler) publishAvailability(ctx context.Context, item *MenuItem, log apt.Logger) {
	if h.publisher == nil {
		return
	}
	evt := event.MenuItemAvailabilityChangedEvent{
		EventType:  event.EventMenuItemAvailabilityChanged,
		OccurredAt: time.Now().UTC(),
		ItemID:     item.ID.String(),
		Available:  item.Available,
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		log.Error("cannot marshal availability event", "error", err)
		return
	}
	if err := h.publisher.Publish(ctx, event.RestaurantRoom(item.RestaurantID), payload); err != nil {
		log.Error("cannot publish availability event", "error", err, "item_id", item.ID.String())
	}
}

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}
