package handlers

import (
	"oustaa/internal/services"
	"oustaa/internal/utils"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *AuthHandler) SignUp(c *gin.Context) {
	var request services.SignUpRequest
	if !bindJSON(c, &request) {
		return
	}

	response, err := h.authService.SignUp(c.Request.Context(), &request)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, "Account created successfully", response)
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var request services.SignInRequest
	if !bindJSON(c, &request) {
		return
	}

	response, err := h.authService.SignIn(c.Request.Context(), &request)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Signed in successfully", response)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var request refreshRequest
	if !bindJSON(c, &request) {
		return
	}

	response, err := h.authService.Refresh(c.Request.Context(), request.RefreshToken)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Token refreshed successfully", response)
}
