package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"taskhub/internal/middleware"
	"taskhub/internal/services"
)

func currentUser(c *gin.Context) string {
	return middleware.UserID(c)
}

// writeError maps service errors onto HTTP statuses. tag is the log prefix,
// e.g. "[task][update]".
func writeError(c *gin.Context, tag string, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		log.Infof("%s[400] %v", tag, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": verr.Fields})
	case errors.Is(err, services.ErrUnauthenticated):
		log.Infof("%s[401] %v", tag, err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, services.ErrForbidden):
		log.Warnf("%s[403] %v", tag, err)
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, services.ErrNotFound):
		log.Infof("%s[404] %v", tag, err)
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, services.ErrConflict):
		log.Infof("%s[409] %v", tag, err)
		c.JSON(http.StatusConflict, gin.H{"error": "conflict"})
	default:
		log.Errorf("%s[err] %v", tag, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, tag string, err error) {
	log.Infof("%s[bind][err] %v", tag, err)
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}
