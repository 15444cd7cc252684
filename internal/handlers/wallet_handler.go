package handlers

import (
	"io"
	"net/http"

	"oustaa/internal/services"
	"oustaa/internal/utils"

	"github.com/gin-gonic/gin"
)

const maxWebhookBodyBytes = 64 * 1024

type WalletHandler struct {
	walletService services.WalletService
}

func NewWalletHandler(walletService services.WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

type topUpRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	wallet, total, err := h.walletService.GetWallet(c.Request.Context(), userID, params)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Wallet retrieved successfully", wallet, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
		Total:      total,
	})
}

func (h *WalletHandler) TopUp(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var request topUpRequest
	if !bindJSON(c, &request) {
		return
	}

	intent, err := h.walletService.TopUp(c.Request.Context(), userID, request.Amount)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, "Top-up created successfully", intent)
}

// PaymentWebhook verifies the payment provider signature against the raw body,
// so it must not be bound or re-encoded first.
func (h *WalletHandler) PaymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		utils.BadRequestResponse(c, "Unable to read request body")
		return
	}

	if err := h.walletService.HandlePaymentWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		utils.HandleError(c, err)
		return
	}

	c.Status(http.StatusOK)
}
