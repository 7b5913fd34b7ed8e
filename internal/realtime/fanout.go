package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"

	"github.com/appetiteclub/tableside/pkg/event"
)

// Fanout publishes room events on the shared rooms topic so every instance's
// Relay can hand them to its own connected clients.
type Fanout struct {
	publisher events.Publisher
}

func NewFanout(publisher events.Publisher) *Fanout {
	return &Fanout{publisher: publisher}
}

func (f *Fanout) Publish(ctx context.Context, room string, msg []byte) error {
	payload, err := json.Marshal(event.Envelope{Room: room, Data: json.RawMessage(msg)})
	if err != nil {
		return fmt.Errorf("cannot encode envelope for room %s: %w", room, err)
	}
	return f.publisher.Publish(ctx, event.RoomsTopic, payload)
}

// Relay feeds room events received from the rooms topic into the local Hub.
type Relay struct {
	subscriber events.Subscriber
	hub        *Hub
	logger     apt.Logger
}

func NewRelay(sub events.Subscriber, hub *Hub, logger apt.Logger) *Relay {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &Relay{
		subscriber: sub,
		hub:        hub,
		logger:     logger,
	}
}

func (r *Relay) Start(ctx context.Context) error {
	if r.subscriber == nil {
		return fmt.Errorf("realtime relay not configured")
	}
	r.logger.Info("starting realtime relay", "topic", event.RoomsTopic)
	return r.subscriber.Subscribe(ctx, event.RoomsTopic, r.handleEnvelope)
}

func (r *Relay) Stop(ctx context.Context) error {
	r.hub.Close()
	return nil
}

func (r *Relay) handleEnvelope(ctx context.Context, msg []byte) error {
	var env event.Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		r.logger.Info("invalid room envelope", "error", err)
		return nil
	}
	if _, _, err := event.ParseRoom(env.Room); err != nil {
		r.logger.Info("envelope for unknown room", "room", env.Room)
		return nil
	}
	return r.hub.Publish(ctx, env.Room, env.Data)
}
