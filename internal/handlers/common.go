package handlers

import (
	"strconv"
	"strings"

	"oustaa/internal/middleware"
	"oustaa/internal/models"
	"oustaa/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// currentUser returns the authenticated user id, writing a 401 when the auth
// middleware did not run.
func currentUser(c *gin.Context) (primitive.ObjectID, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return primitive.NilObjectID, false
	}
	return userID, true
}

func pathObjectID(c *gin.Context, name, resource string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		utils.HandleError(c, utils.ValidationError("Invalid "+resource+" ID", map[string]string{name: "must be a valid id"}))
		return primitive.NilObjectID, false
	}
	return id, true
}

func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		utils.HandleError(c, utils.BindingError(err))
		return false
	}
	return true
}

// queryCoordinates reads a lat/lng pair from the query string. present is
// false when neither parameter was sent.
func queryCoordinates(c *gin.Context, latKey, lngKey string) (point models.Coordinates, present bool, err error) {
	latRaw, lngRaw := c.Query(latKey), c.Query(lngKey)
	if latRaw == "" && lngRaw == "" {
		return models.Coordinates{}, false, nil
	}

	details := map[string]string{}
	lat, latErr := strconv.ParseFloat(latRaw, 64)
	if latErr != nil {
		details[latKey] = "must be a number"
	}
	lng, lngErr := strconv.ParseFloat(lngRaw, 64)
	if lngErr != nil {
		details[lngKey] = "must be a number"
	}
	if len(details) > 0 {
		return models.Coordinates{}, true, utils.ValidationError("invalid coordinates", details)
	}

	point = models.Coordinates{Latitude: lat, Longitude: lng}
	if !point.IsValid() {
		return models.Coordinates{}, true, utils.ValidationError("invalid coordinates", nil)
	}
	return point, true, nil
}

func queryInt(c *gin.Context, key string, fallback int) int {
	value, err := strconv.Atoi(c.Query(key))
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func queryList(c *gin.Context, key string) []string {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}

	var values []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}
