package handlers

import (
	"oustaa/internal/services"
	"oustaa/internal/utils"

	"github.com/gin-gonic/gin"
)

type RatingHandler struct {
	ratingService services.RatingService
}

func NewRatingHandler(ratingService services.RatingService) *RatingHandler {
	return &RatingHandler{ratingService: ratingService}
}

func (h *RatingHandler) RateRide(c *gin.Context) {
	raterID, ok := currentUser(c)
	if !ok {
		return
	}
	rideID, ok := pathObjectID(c, "id", "ride")
	if !ok {
		return
	}

	var request services.RateRideRequest
	if !bindJSON(c, &request) {
		return
	}

	rating, err := h.ratingService.RateRide(c.Request.Context(), raterID, rideID, &request)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, "Rating submitted successfully", rating)
}
