package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"taskhub/internal/models"
	"taskhub/internal/realtime"
	"taskhub/internal/services"
)

type SocketHandler struct {
	identity     services.IdentityResolver
	registry     *realtime.Registry
	sendBuffer   int
	writeTimeout time.Duration
}

func NewSocketHandler(identity services.IdentityResolver, registry *realtime.Registry, sendBuffer int, writeTimeout time.Duration) *SocketHandler {
	return &SocketHandler{
		identity:     identity,
		registry:     registry,
		sendBuffer:   sendBuffer,
		writeTimeout: writeTimeout,
	}
}

// GET /ws
func (h *SocketHandler) Connect(c *gin.Context) {
	// browsers cannot set headers on the upgrade request
	token := c.Query("token")
	if token == "" {
		var err error
		if token, err = services.BearerToken(c.GetHeader("Authorization")); err != nil {
			writeError(c, "[ws][connect]", err)
			return
		}
	}
	userID, err := h.identity.Resolve(token)
	if err != nil {
		writeError(c, "[ws][connect]", err)
		return
	}

	conn, err := realtime.Upgrade(c.Writer, c.Request)
	if err != nil {
		log.Infof("[ws][connect][err] user=%s: %v", userID, err)
		if !c.Writer.Written() {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	client := realtime.NewClient(userID, conn, h.sendBuffer)
	h.registry.Register(userID, client)
	log.Infof("[ws][connect][ok] user=%s", userID)
	go client.WritePump(h.writeTimeout)
	client.Send(models.EventConnected, gin.H{"userId": userID})

	defer func() {
		h.registry.UnregisterClient(userID, client)
		client.Close()
		log.Infof("[ws][disconnect] user=%s", userID)
	}()

	for {
		var in realtime.Envelope
		if err := conn.ReadJSON(&in); err != nil {
			return
		}
		if in.Event == models.EventLogout {
			return
		}
	}
}
