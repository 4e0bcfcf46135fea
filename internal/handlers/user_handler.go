package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"gigmarket/internal/authz"
	"gigmarket/internal/services"
)

type UserHandler struct {
	users services.UserService
}

func NewUserHandler(users services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// @Summary      Switch to the worker role
// @Tags         Users
// @Produce      json
// @Success      200  {object}  map[string]string
// @Security     BearerAuth
// @Router       /users/set-role/worker [post]
func (h *UserHandler) SetWorkerRole(c *gin.Context) {
	h.setRole(c, authz.RoleWorker)
}

// @Summary      Switch to the customer role
// @Tags         Users
// @Produce      json
// @Success      200  {object}  map[string]string
// @Security     BearerAuth
// @Router       /users/set-role/customer [post]
func (h *UserHandler) SetCustomerRole(c *gin.Context) {
	h.setRole(c, authz.RoleCustomer)
}

func (h *UserHandler) setRole(c *gin.Context, role string) {
	caller, ok := getCaller(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.users.SetRole(ctx, caller.UID, role); err != nil {
		respondError(c, "user.setRole", err)
		return
	}
	log.Printf("[user][setRole][ok] uid=%s role=%s", caller.UID, role)
	c.JSON(http.StatusOK, gin.H{"message": "Role updated to " + role})
}

// @Summary      Username lookup by email
// @Tags         Users
// @Produce      json
// @Param        email  query     string  true  "Email"
// @Success      200    {object}  map[string]string
// @Router       /users/username [get]
func (h *UserHandler) GetUsername(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	username, err := h.users.GetUsernameByEmail(ctx, c.Query("email"))
	if err != nil {
		respondError(c, "user.username", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": username})
}
