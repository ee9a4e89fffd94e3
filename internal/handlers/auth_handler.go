package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"taskhub/internal/models"
	"taskhub/internal/services"
)

type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "[auth][register]", err)
		return
	}
	user, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		writeError(c, "[auth][register]", err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "[auth][login]", err)
		return
	}
	token, user, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		writeError(c, "[auth][login]", err)
		return
	}
	log.Debugf("[auth][login][ok] user=%s", user.ID)
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

// GET /users?limit=&offset=
func (h *AuthHandler) ListUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	users, err := h.auth.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, "[user][list]", err)
		return
	}
	c.JSON(http.StatusOK, users)
}
