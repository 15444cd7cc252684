package handlers

import (
	"context"
	"errors"

	"oustaa/internal/middleware"
	"oustaa/internal/models"
	"oustaa/internal/repositories/interfaces"
	"oustaa/internal/services"
	"oustaa/internal/session"
	"oustaa/internal/utils"
	"oustaa/pkg/logger"
	"oustaa/pkg/websocket"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RealtimeHandler upgrades authenticated clients to WebSocket connections and
// handles the frames they send.
type RealtimeHandler struct {
	sessions       *session.Manager
	ws             *websocket.Handler
	rides          interfaces.RideRepository
	profileService services.ProfileService
	logger         *logger.Logger
}

func NewRealtimeHandler(
	sessions *session.Manager,
	rides interfaces.RideRepository,
	profileService services.ProfileService,
	logger *logger.Logger,
) *RealtimeHandler {
	return &RealtimeHandler{
		sessions:       sessions,
		rides:          rides,
		profileService: profileService,
		logger:         logger,
	}
}

// Bind attaches the connection handler that delivers inbound frames here.
func (h *RealtimeHandler) Bind(ws *websocket.Handler) {
	h.ws = ws
}

type rideRoomRequest struct {
	RideID string `json:"ride_id"`
}

// Connect opens a session that lives as long as the connection and keeps its
// profile current through the profile update feed.
func (h *RealtimeHandler) Connect(c *gin.Context) {
	token := middleware.TokenFromRequest(c)
	if token == "" {
		utils.UnauthorizedResponse(c)
		return
	}

	sess, err := h.sessions.Open(c.Request.Context(), token)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	watchCtx, stopWatch := context.WithCancel(context.Background())
	if err := sess.Watch(watchCtx); err != nil {
		h.logger.WithError(err).Warn("Failed to watch profile updates")
	}

	profile := sess.Profile()
	identity := websocket.Identity{UserID: profile.ID.Hex(), UserType: string(profile.UserType)}
	err = h.ws.Serve(c.Writer, c.Request, identity, func() {
		stopWatch()
		_ = sess.Close()
	})
	if err != nil {
		stopWatch()
		_ = sess.Close()
		// the upgrader has already written the failure response
		h.logger.WithError(err).WithField("user_id", identity.UserID).Warn("WebSocket upgrade failed")
	}
}

func (h *RealtimeHandler) HandleInbound(ctx context.Context, client *websocket.Client, msg *websocket.Message) error {
	switch msg.Type {
	case websocket.MessageTypeJoinRide:
		return h.joinRide(ctx, client, msg)
	case websocket.MessageTypeLeaveRide:
		var request rideRoomRequest
		if err := msg.DecodeData(&request); err != nil || request.RideID == "" {
			return utils.ValidationError("ride_id is required", nil)
		}
		client.Hub().LeaveRoom(client, websocket.RideRoom(request.RideID))
		return nil
	case websocket.MessageTypeLocationUpdate:
		return h.updateLocation(ctx, client, msg)
	default:
		return utils.ValidationError("unsupported message type: "+msg.Type, nil)
	}
}

func (h *RealtimeHandler) joinRide(ctx context.Context, client *websocket.Client, msg *websocket.Message) error {
	var request rideRoomRequest
	if err := msg.DecodeData(&request); err != nil {
		return utils.ValidationError("malformed join_ride payload", nil)
	}

	rideID, err := primitive.ObjectIDFromHex(request.RideID)
	if err != nil {
		return utils.ValidationError("invalid ride id", map[string]string{"ride_id": "must be a valid id"})
	}
	userID, err := primitive.ObjectIDFromHex(client.UserID)
	if err != nil {
		return utils.UnauthorizedError(utils.ErrUnauthorized)
	}

	ride, err := h.rides.GetByID(ctx, rideID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return utils.NotFoundError("ride")
		}
		return err
	}
	if !ride.IsParticipant(userID) {
		return utils.ForbiddenError("only ride participants can join this ride")
	}

	room := websocket.RideRoom(request.RideID)
	client.Hub().JoinRoom(client, room)

	joined, err := websocket.NewMessage(websocket.MessageTypeJoinedRide, map[string]interface{}{
		"ride_id": request.RideID,
		"status":  ride.Status,
	})
	if err != nil {
		return err
	}
	joined.RoomID = room
	client.Send(joined)
	return nil
}

func (h *RealtimeHandler) updateLocation(ctx context.Context, client *websocket.Client, msg *websocket.Message) error {
	var position models.Coordinates
	if err := msg.DecodeData(&position); err != nil {
		return utils.ValidationError("malformed location_update payload", nil)
	}

	userID, err := primitive.ObjectIDFromHex(client.UserID)
	if err != nil {
		return utils.UnauthorizedError(utils.ErrUnauthorized)
	}

	return h.profileService.UpdateLocation(ctx, userID, position)
}
