package handlers

import (
	"oustaa/internal/models"
	"oustaa/internal/services"
	"oustaa/internal/utils"

	"github.com/gin-gonic/gin"
)

const avatarFormField = "avatar"

type ProfileHandler struct {
	profileService services.ProfileService
}

func NewProfileHandler(profileService services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

type availabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	profile, err := h.profileService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Profile retrieved successfully", profile)
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var request services.UpdateProfileRequest
	if !bindJSON(c, &request) {
		return
	}

	profile, err := h.profileService.UpdateProfile(c.Request.Context(), userID, &request)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Profile updated successfully", profile)
}

func (h *ProfileHandler) UpdateLocation(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var position models.Coordinates
	if !bindJSON(c, &position) {
		return
	}

	if err := h.profileService.UpdateLocation(c.Request.Context(), userID, position); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Location updated successfully", position)
}

func (h *ProfileHandler) SetAvailability(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var request availabilityRequest
	if !bindJSON(c, &request) {
		return
	}

	profile, err := h.profileService.SetAvailability(c.Request.Context(), userID, *request.Available)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Availability updated successfully", profile)
}

func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile(avatarFormField)
	if err != nil {
		utils.HandleError(c, utils.ValidationError("avatar image is required", map[string]string{avatarFormField: "is required"}))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	defer file.Close()

	profile, err := h.profileService.UploadAvatar(c.Request.Context(), userID, &services.AvatarUpload{
		Reader:   file,
		Size:     fileHeader.Size,
		Filename: fileHeader.Filename,
	})
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Avatar uploaded successfully", profile)
}
