package handlers

import (
	"oustaa/internal/services"
	"oustaa/internal/utils"

	"github.com/gin-gonic/gin"
)

const defaultMessagesLimit = 100

type ChatHandler struct {
	chatService services.ChatService
}

func NewChatHandler(chatService services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

type sendMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	senderID, ok := currentUser(c)
	if !ok {
		return
	}
	rideID, ok := pathObjectID(c, "id", "ride")
	if !ok {
		return
	}

	var request sendMessageRequest
	if !bindJSON(c, &request) {
		return
	}

	message, err := h.chatService.SendMessage(c.Request.Context(), senderID, rideID, request.Message)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, "Message sent successfully", message)
}

func (h *ChatHandler) ListMessages(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	rideID, ok := pathObjectID(c, "id", "ride")
	if !ok {
		return
	}

	messages, err := h.chatService.ListMessages(c.Request.Context(), userID, rideID, queryInt(c, "limit", defaultMessagesLimit))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Messages retrieved successfully", messages, &utils.Meta{Count: len(messages)})
}
