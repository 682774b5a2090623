package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kindred/models"
)

type SubscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	Keys     struct {
		P256dh string `json:"p256dh" binding:"required"`
		Auth   string `json:"auth" binding:"required"`
	} `json:"keys" binding:"required"`
}

// GetVapidKey exposes the public VAPID key push clients subscribe with.
func (h *Handler) GetVapidKey(c *gin.Context) {
	if h.Pusher == nil || !h.Pusher.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Push notifications are not configured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"publicKey": h.Pusher.PublicKey()})
}

// Subscribe registers one browser push endpoint for the caller.
func (h *Handler) Subscribe(c *gin.Context) {
	if h.Pusher == nil || !h.Pusher.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Push notifications are not configured"})
		return
	}

	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := storeCtx()
	defer cancel()

	if err := h.Pusher.SaveSubscription(ctx, currentUserID(c), req.Endpoint, req.Keys.P256dh, req.Keys.Auth); err != nil {
		models.RespondWithError(c, models.NewInternalError(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "subscribed"})
}
