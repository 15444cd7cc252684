package handlers

import (
	"oustaa/internal/services"
	"oustaa/internal/utils"

	"github.com/gin-gonic/gin"
)

type AssistantHandler struct {
	assistantService services.AssistantService
}

func NewAssistantHandler(assistantService services.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistantService: assistantService}
}

type clearConversationRequest struct {
	ConversationID string `json:"conversation_id" binding:"required"`
}

func (h *AssistantHandler) Ask(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var request services.AskRequest
	if !bindJSON(c, &request) {
		return
	}

	response, err := h.assistantService.Ask(c.Request.Context(), userID, &request)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Assistant replied", response)
}

func (h *AssistantHandler) Models(c *gin.Context) {
	utils.SuccessResponse(c, "Models retrieved successfully", h.assistantService.Models())
}

func (h *AssistantHandler) Clear(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var request clearConversationRequest
	if !bindJSON(c, &request) {
		return
	}

	if err := h.assistantService.Clear(c.Request.Context(), userID, request.ConversationID); err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Conversation cleared", nil)
}
