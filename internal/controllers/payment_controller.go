package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cartz/cartz-backend/internal/apierrors"
	"github.com/cartz/cartz-backend/internal/middleware"
	"github.com/cartz/cartz-backend/internal/services"
)

type PaymentController struct {
	payments *services.PaymentService
}

func NewPaymentController(payments *services.PaymentService) *PaymentController {
	return &PaymentController{payments: payments}
}

// ProcessPayment charges the stub gateway for an existing order.
func (pc *PaymentController) ProcessPayment(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
		return
	}

	var req services.ProcessPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid payload: "+err.Error())
		return
	}

	order, err := pc.payments.ProcessPayment(c.Request.Context(), userID, req)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{"order": order})
}
