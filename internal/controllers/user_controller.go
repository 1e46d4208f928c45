package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cartz/cartz-backend/internal/apierrors"
	"github.com/cartz/cartz-backend/internal/middleware"
	"github.com/cartz/cartz-backend/internal/models"
	"github.com/cartz/cartz-backend/internal/services"
)

type UserController struct {
	users *services.UserService
}

func NewUserController(users *services.UserService) *UserController {
	return &UserController{users: users}
}

func (uc *UserController) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid payload: "+err.Error())
		return
	}

	user, err := uc.users.Register(c.Request.Context(), req)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	respondCreated(c, gin.H{"data": user})
}

func (uc *UserController) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid payload: "+err.Error())
		return
	}

	user, token, err := uc.users.Login(c.Request.Context(), req)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{"data": gin.H{"user": user, "token": token}})
}

func (uc *UserController) GetProfile(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Unauthorized"})
		return
	}

	user, err := uc.users.GetProfile(c.Request.Context(), userID)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}
	respondOK(c, gin.H{"data": user})
}
