package handlers

import (
	"oustaa/internal/models"
	"oustaa/internal/services"
	"oustaa/internal/utils"

	"github.com/gin-gonic/gin"
)

const defaultPendingRidesLimit = 20

type RideHandler struct {
	rideService    services.RideService
	nearbyRadiusKM float64
}

func NewRideHandler(rideService services.RideService, nearbyRadiusKM float64) *RideHandler {
	return &RideHandler{
		rideService:    rideService,
		nearbyRadiusKM: nearbyRadiusKM,
	}
}

type rideStatusRequest struct {
	Status models.RideStatus `json:"status" binding:"required"`
}

func (h *RideHandler) EstimateFare(c *gin.Context) {
	var request services.EstimateFareRequest
	if !bindJSON(c, &request) {
		return
	}

	estimate, err := h.rideService.EstimateFare(c.Request.Context(), &request)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Fare estimated successfully", estimate)
}

func (h *RideHandler) CreateRide(c *gin.Context) {
	riderID, ok := currentUser(c)
	if !ok {
		return
	}

	var request services.CreateRideRequest
	if !bindJSON(c, &request) {
		return
	}

	ride, err := h.rideService.CreateRide(c.Request.Context(), riderID, &request)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, "Ride requested successfully", ride)
}

func (h *RideHandler) NearbyDrivers(c *gin.Context) {
	point, present, err := queryCoordinates(c, "lat", "lng")
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	if !present {
		utils.HandleError(c, utils.ValidationError("lat and lng are required", map[string]string{"lat": "is required", "lng": "is required"}))
		return
	}

	drivers, err := h.rideService.NearbyDrivers(c.Request.Context(), point, h.nearbyRadiusKM)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Nearby drivers retrieved successfully", drivers, &utils.Meta{Count: len(drivers)})
}

func (h *RideHandler) ListPendingRides(c *gin.Context) {
	driverID, ok := currentUser(c)
	if !ok {
		return
	}

	rides, err := h.rideService.ListPendingRides(c.Request.Context(), driverID, queryInt(c, "limit", defaultPendingRidesLimit))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Pending rides retrieved successfully", rides, &utils.Meta{Count: len(rides)})
}

func (h *RideHandler) ListRides(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var statuses []models.RideStatus
	for _, status := range queryList(c, "status") {
		statuses = append(statuses, models.RideStatus(status))
	}

	params := utils.GetPaginationParams(c)
	rides, total, err := h.rideService.ListUserRides(c.Request.Context(), userID, statuses, params)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Rides retrieved successfully", rides, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
		Total:      total,
		Count:      len(rides),
	})
}

func (h *RideHandler) GetActiveRide(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	ride, err := h.rideService.GetActiveRide(c.Request.Context(), userID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	if ride == nil {
		utils.SuccessResponse(c, "No active ride", nil)
		return
	}
	utils.SuccessResponse(c, "Active ride retrieved successfully", ride)
}

func (h *RideHandler) GetRide(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	rideID, ok := pathObjectID(c, "id", "ride")
	if !ok {
		return
	}

	details, err := h.rideService.GetRideDetails(c.Request.Context(), userID, rideID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Ride retrieved successfully", details)
}

func (h *RideHandler) AcceptRide(c *gin.Context) {
	driverID, ok := currentUser(c)
	if !ok {
		return
	}
	rideID, ok := pathObjectID(c, "id", "ride")
	if !ok {
		return
	}

	ride, err := h.rideService.AcceptRide(c.Request.Context(), driverID, rideID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Ride accepted successfully", ride)
}

func (h *RideHandler) UpdateRideStatus(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	rideID, ok := pathObjectID(c, "id", "ride")
	if !ok {
		return
	}

	var request rideStatusRequest
	if !bindJSON(c, &request) {
		return
	}

	ride, err := h.rideService.UpdateRideStatus(c.Request.Context(), userID, rideID, request.Status)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Ride status updated successfully", ride)
}
