package handlers

import (
	"oustaa/internal/models"
	"oustaa/internal/services"
	"oustaa/internal/utils"

	"github.com/gin-gonic/gin"
)

type MapHandler struct {
	mapService services.MapService
}

func NewMapHandler(mapService services.MapService) *MapHandler {
	return &MapHandler{mapService: mapService}
}

type routeRequest struct {
	Start models.Coordinates `json:"start" binding:"required"`
	End   models.Coordinates `json:"end" binding:"required"`
}

type reverseGeocodeResponse struct {
	Address  string             `json:"address"`
	Position models.Coordinates `json:"position"`
}

func (h *MapHandler) Search(c *gin.Context) {
	proximity, present, err := queryCoordinates(c, "lat", "lng")
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	var near *models.Coordinates
	if present {
		near = &proximity
	}

	places, err := h.mapService.SearchLocation(c.Request.Context(), c.Query("q"), near)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Places retrieved successfully", places, &utils.Meta{Count: len(places)})
}

func (h *MapHandler) ReverseGeocode(c *gin.Context) {
	point, present, err := queryCoordinates(c, "lat", "lng")
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	if !present {
		utils.HandleError(c, utils.ValidationError("lat and lng are required", map[string]string{"lat": "is required", "lng": "is required"}))
		return
	}

	utils.SuccessResponse(c, "Address resolved", &reverseGeocodeResponse{
		Address:  h.mapService.ReverseGeocode(c.Request.Context(), point),
		Position: point,
	})
}

func (h *MapHandler) Route(c *gin.Context) {
	var request routeRequest
	if !bindJSON(c, &request) {
		return
	}

	route, err := h.mapService.Route(c.Request.Context(), request.Start, request.End)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Route retrieved successfully", route)
}
