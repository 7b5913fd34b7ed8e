package session

import (
	"context"
	"encoding/json"
	"errors"
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

type Handler struct {
	logger      apt.Logger
	tlm         *telemetry.HTTP
	manager     *Manager
	auth        *auth.Authenticator
	publisher   events.Publisher
	limiter     func(http.Handler) http.Handler
	maintenance func(http.Handler) http.Handler
}

type HandlerDeps struct {
	Manager       *Manager
	Authenticator *auth.Authenticator
	Publisher     events.Publisher
	// PublicLimiter throttles session issuance. Optional.
	PublicLimiter func(http.Handler) http.Handler
	// Maintenance guards the sweep endpoint.
	Maintenance func(http.Handler) http.Handler
}

func NewHandler(hd HandlerDeps, logger apt.Logger) *Handler {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	passthrough := func(next http.Handler) http.Handler { return next }
	h := &Handler{
		logger:      logger,
		tlm:         telemetry.NewHTTP(),
		manager:     hd.Manager,
		auth:        hd.Authenticator,
		publisher:   hd.Publisher,
		limiter:     hd.PublicLimiter,
		maintenance: hd.Maintenance,
	}
	if h.limiter == nil {
		h.limiter = passthrough
	}
	if h.maintenance == nil {
		h.maintenance = auth.RequireMaintenanceKey("", false)
	}
	return h
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/qr", func(r chi.Router) {
		r.With(h.limiter).Post("/tables/{tableID}/sessions", h.IssueSession)
		r.Get("/sessions/{token}", h.ValidateSession)
		r.With(h.auth.RequireStaff).Post("/sessions/rotate", h.RotateSessions)
		r.With(h.maintenance).Post("/sessions/sweep", h.SweepSessions)
	})
}

func (h *Handler) IssueSession(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.IssueSession")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	tableID, err := uuid.Parse(chi.URLParam(r, "tableID"))
	if err != nil {
		log.Debug("invalid table id", "table_id", chi.URLParam(r, "tableID"))
		apt.RespondError(w, http.StatusBadRequest, "Invalid table id")
		return
	}

	info, err := h.manager.Issue(ctx, tableID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			apt.RespondError(w, http.StatusNotFound, "Table not found")
			return
		}
		log.Error("cannot issue session", "table_id", tableID.String(), "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not issue session")
		return
	}

	h.publish(ctx, event.RestaurantRoom(info.RestaurantID), event.SessionIssuedEvent{
		EventType:  event.EventSessionIssued,
		OccurredAt: time.Now().UTC(),
		TableID:    info.TableID.String(),
	}, log)

	w.WriteHeader(http.StatusCreated)
	apt.RespondSuccess(w, info)
}

func (h *Handler) ValidateSession(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ValidateSession")
	defer finish()

	info := h.manager.Validate(r.Context(), chi.URLParam(r, "token"))
	if info == nil {
		apt.RespondError(w, http.StatusNotFound, "QR session expired, please rescan")
		return
	}

	apt.RespondSuccess(w, info)
}

func (h *Handler) RotateSessions(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.RotateSessions")
	defer finish()

	log := h.log(r)
	ctx := r.Context()

	identity, ok := auth.IdentityFrom(ctx)
	if !ok {
		apt.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	result, err := h.manager.RotateAllForRestaurant(ctx, identity.RestaurantID)
	if err != nil {
		log.Error("cannot rotate sessions", "restaurant_id", identity.RestaurantID.String(), "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not rotate sessions")
		return
	}

	h.publish(ctx, event.RestaurantRoom(identity.RestaurantID), event.SessionsRotatedEvent{
		EventType:  event.EventSessionsRotated,
		OccurredAt: time.Now().UTC(),
		Count:      result.Issued,
	}, log)

	apt.RespondSuccess(w, result)
}

func (h *Handler) SweepSessions(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.SweepSessions")
	defer finish()

	log := h.log(r)

	n, err := h.manager.SweepExpired(r.Context())
	if err != nil {
		log.Error("cannot sweep sessions", "error", err)
		apt.RespondError(w, http.StatusInternalServerError, "Could not sweep sessions")
		return
	}

	apt.RespondSuccess(w, map[string]int{"deleted": n})
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

func (h *Handler) log(r *http.Request) apt.Logger {
	return h.logger.With("request_id", apt.RequestIDFrom(r.Context()))
}
