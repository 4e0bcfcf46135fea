package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"gigmarket/internal/apperrors"
	"gigmarket/internal/authz"
)

// Bound on every persistence/identity call made on behalf of a request.
const requestTimeout = 10 * time.Second

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

func getCaller(c *gin.Context) (authz.Caller, bool) {
	uid, okUID := c.Get("uid")
	role, okRole := c.Get("role")
	if !okUID || !okRole {
		return authz.Caller{}, false
	}
	uidStr, _ := uid.(string)
	roleStr, _ := role.(string)
	if uidStr == "" {
		return authz.Caller{}, false
	}
	return authz.Caller{UID: uidStr, Role: roleStr}, true
}

// respondError maps the error taxonomy to HTTP statuses in one place.
// Anything outside the taxonomy is an upstream failure: logged in full,
// surfaced as an opaque 500.
func respondError(c *gin.Context, op string, err error) {
	status := apperrors.StatusCode(err)
	if status == http.StatusInternalServerError {
		log.Printf("[%s][err] %v", op, err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	log.Printf("[%s][deny] status=%d %v", op, status, err)
	c.JSON(status, gin.H{"error": err.Error()})
}
