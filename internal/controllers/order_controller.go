package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cartz/cartz-backend/internal/apierrors"
	"github.com/cartz/cartz-backend/internal/middleware"
	"github.com/cartz/cartz-backend/internal/models"
	"github.com/cartz/cartz-backend/internal/repository"
	"github.com/cartz/cartz-backend/internal/services"
)

type OrderController struct {
	orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{orders: orders}
}

// CreateOrder builds and persists an order from the request's line
// items. Serves both POST /checkout and POST /orders.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
		return
	}

	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid payload: "+err.Error())
		return
	}

	order, err := oc.orders.CreateOrder(c.Request.Context(), userID, &req)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	respondCreated(c, gin.H{"order": order})
}

// GetMyOrders returns the caller's orders, paginated.
func (oc *OrderController) GetMyOrders(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
		return
	}

	page, limit := parsePagination(c)
	result, err := oc.orders.GetUserOrders(c.Request.Context(), userID, repository.ListOrdersParams{Page: page, Limit: limit})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{"orders": result.Orders, "meta": result.Meta})
}

// GetOrder returns a single order; owners and admins only.
func (oc *OrderController) GetOrder(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
		return
	}

	order, err := oc.orders.GetOrder(c.Request.Context(), userID, middleware.GetRole(c), c.Param("id"))
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{"order": order})
}

// GetAllOrders returns every order, paginated and optionally filtered
// by status. Admin route.
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	page, limit := parsePagination(c)
	params := repository.ListOrdersParams{
		Page:   page,
		Limit:  limit,
		Status: models.OrderStatus(c.Query("status")),
	}
	if params.Status != "" && !models.ValidOrderStatus(params.Status) {
		respondBadRequest(c, "invalid order status")
		return
	}

	result, err := oc.orders.GetAllOrders(c.Request.Context(), params)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{"orders": result.Orders, "meta": result.Meta})
}

// UpdateStatus applies an admin status change through the guarded
// transition table.
func (oc *OrderController) UpdateStatus(c *gin.Context) {
	var req models.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid payload: "+err.Error())
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondBadRequest(c, "invalid status: "+err.Error())
		return
	}

	order, err := oc.orders.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{"order": order})
}

// CancelOrder is the customer-facing cancellation.
func (oc *OrderController) CancelOrder(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
		return
	}

	var req models.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid payload: "+err.Error())
		return
	}

	order, err := oc.orders.CancelOrder(c.Request.Context(), userID, c.Param("id"), req.Reason)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{"order": order})
}
