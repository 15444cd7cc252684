package services

import (
	"context"
	"time"

	"oustaa/internal/models"
	"oustaa/internal/observability"
	"oustaa/internal/utils"
	"oustaa/pkg/cache"
	"oustaa/pkg/events"
	"oustaa/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notifier fans domain changes out to realtime subscribers and the event
// stream. Delivery failures are logged, never returned: the change they
// describe has already been committed.
type Notifier interface {
	RideEvent(ctx context.Context, ride *models.Ride, eventType string, data interface{})
	UserEvent(ctx context.Context, userID primitive.ObjectID, eventType string, data interface{})
	RideMessage(ctx context.Context, message *models.RideMessage)
	ProfileUpdated(ctx context.Context, profile *models.Profile)
	DriverLocation(ctx context.Context, location *models.DriverLocation, activeRideID *primitive.ObjectID)
}

type notifier struct {
	broker    cache.Broker
	publisher events.Publisher
	logger    *logger.Logger
	now       func() time.Time
}

type envelope struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewNotifier(broker cache.Broker, publisher events.Publisher, log *logger.Logger) Notifier {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &notifier{
		broker:    broker,
		publisher: publisher,
		logger:    log,
		now:       time.Now,
	}
}

func (n *notifier) RideEvent(ctx context.Context, ride *models.Ride, eventType string, data interface{}) {
	if data == nil {
		data = ride
	}
	ctx = logger.ContextWithRideID(ctx, ride.ID)

	n.UserEvent(ctx, ride.RiderID, eventType, data)
	if ride.DriverID != nil {
		n.UserEvent(ctx, *ride.DriverID, eventType, data)
	}
	n.publish(ctx, utils.ChannelRideEvents+ride.ID.Hex(), eventType, data)

	n.stream(ctx, events.StreamRides, events.Event{
		Type:       eventType,
		Key:        ride.ID.Hex(),
		OccurredAt: n.now().UTC(),
		Payload:    ride,
	})
}

func (n *notifier) UserEvent(ctx context.Context, userID primitive.ObjectID, eventType string, data interface{}) {
	n.publish(ctx, utils.ChannelUserEvents+userID.Hex(), eventType, data)
}

func (n *notifier) RideMessage(ctx context.Context, message *models.RideMessage) {
	n.publish(ctx, utils.ChannelRideMessages+message.RideID.Hex(), utils.EventRideMessage, message)
}

// ProfileUpdated publishes the raw profile; sessions decode it directly.
func (n *notifier) ProfileUpdated(ctx context.Context, profile *models.Profile) {
	channel := utils.ChannelProfileUpdates + profile.ID.Hex()
	if err := n.broker.Publish(ctx, channel, profile); err != nil {
		n.logger.WithError(err).WithField("channel", channel).Warn("Failed to publish profile update")
	}
}

func (n *notifier) DriverLocation(ctx context.Context, location *models.DriverLocation, activeRideID *primitive.ObjectID) {
	if activeRideID != nil {
		n.publish(ctx, utils.ChannelRideEvents+activeRideID.Hex(), utils.EventDriverLocation, location)
	}

	n.stream(ctx, events.StreamLocations, events.Event{
		Type:       utils.EventDriverLocation,
		Key:        location.DriverID,
		OccurredAt: location.Timestamp,
		Payload:    location,
	})
}

func (n *notifier) publish(ctx context.Context, channel, eventType string, data interface{}) {
	err := n.broker.Publish(ctx, channel, envelope{Type: eventType, Data: data, Timestamp: n.now().UTC()})
	if err != nil {
		n.logger.WithContext(ctx).WithError(err).WithFields(map[string]interface{}{
			"channel":    channel,
			"event_type": eventType,
		}).Warn("Failed to publish realtime event")
	}
}

func (n *notifier) stream(ctx context.Context, stream events.Stream, event events.Event) {
	err := n.publisher.Publish(ctx, stream, event)
	observability.EventsPublishedTotal.WithLabelValues(string(stream), observability.ResultLabel(err)).Inc()
	if err != nil {
		n.logger.WithContext(ctx).WithError(err).WithFields(map[string]interface{}{
			"stream":     stream,
			"event_type": event.Type,
		}).Warn("Failed to publish stream event")
	}
}
