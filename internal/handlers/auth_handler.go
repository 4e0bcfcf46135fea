package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"gigmarket/internal/models"
	"gigmarket/internal/services"
)

type AuthHandler struct {
	auth services.AuthService
}

func NewAuthHandler(auth services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// @Summary      Register
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.RegisterRequest  true  "Registration data"
// @Success      201   {object}  map[string]interface{}
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, token, err := h.auth.Register(ctx, req)
	if err != nil {
		respondError(c, "auth.register", err)
		return
	}
	log.Printf("[auth][register][ok] uid=%s email=%q", user.UID, user.Email)
	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful",
		"user":    user,
		"token":   token,
	})
}

// @Summary      Login
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        body  body      models.LoginRequest  true  "Credentials"
// @Success      200   {object}  map[string]interface{}
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, token, err := h.auth.Login(ctx, req)
	if err != nil {
		respondError(c, "auth.login", err)
		return
	}
	log.Printf("[auth][login][ok] uid=%s", user.UID)
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    user,
		"token":   token,
	})
}

// @Summary      Logout
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Security     BearerAuth
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	// Tokens are stateless; the client discards its copy.
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// @Summary      Current user
// @Tags         Auth
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Security     BearerAuth
// @Router       /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := h.auth.Me(ctx, caller.UID)
	if err != nil {
		respondError(c, "auth.me", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
