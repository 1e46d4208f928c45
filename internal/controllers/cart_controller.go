package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cartz/cartz-backend/internal/apierrors"
	"github.com/cartz/cartz-backend/internal/middleware"
	"github.com/cartz/cartz-backend/internal/models"
	"github.com/cartz/cartz-backend/internal/services"
)

type CartController struct {
	carts *services.CartService
}

func NewCartController(carts *services.CartService) *CartController {
	return &CartController{carts: carts}
}

// GetCart returns the caller's cart, creating an empty one on first
// read.
func (cc *CartController) GetCart(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
		return
	}

	cart, err := cc.carts.GetOrCreate(c.Request.Context(), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{"data": cart})
}

// AddItem upserts a product/variant line into the cart.
func (cc *CartController) AddItem(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
		return
	}

	var req models.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid payload: "+err.Error())
		return
	}

	cart, err := cc.carts.AddItem(c.Request.Context(), userID, req)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{"data": cart})
}

// UpdateItem sets a line's quantity; zero or less removes it.
func (cc *CartController) UpdateItem(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
		return
	}

	var req models.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid payload: "+err.Error())
		return
	}

	cart, err := cc.carts.UpdateItemQuantity(c.Request.Context(), userID, c.Param("itemId"), req.Quantity)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{"data": cart})
}

func (cc *CartController) RemoveItem(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
		return
	}

	cart, err := cc.carts.RemoveItem(c.Request.Context(), userID, c.Param("itemId"))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{"data": cart})
}

func (cc *CartController) ClearCart(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
		return
	}

	cart, err := cc.carts.Clear(c.Request.Context(), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{"message": "cart cleared", "data": cart})
}

// SyncCart bulk-replaces the cart from the client's local state, best
// effort.
func (cc *CartController) SyncCart(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
		return
	}

	var req models.SyncCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid payload: "+err.Error())
		return
	}

	cart, err := cc.carts.Sync(c.Request.Context(), userID, req)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{"data": cart})
}

// CheckoutSession prices the current cart for the checkout preview.
func (cc *CartController) CheckoutSession(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
		return
	}

	method := models.PaymentMethod(c.Query("paymentMethod"))
	if method != "" && !models.ValidPaymentMethod(method) {
		respondBadRequest(c, "invalid payment method")
		return
	}

	cart, pricing, err := cc.carts.CheckoutSession(c.Request.Context(), userID, method)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{"data": gin.H{"cart": cart, "pricing": pricing}})
}
