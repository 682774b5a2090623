package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"kindred/models"
	"kindred/store"
)

type LocationUpdateRequest struct {
	Lat     *float64 `json:"lat" binding:"required"`
	Lng     *float64 `json:"lng" binding:"required"`
	Visible *bool    `json:"visible"`
}

// UpdateMyLocation upserts the caller's location record. Visibility is
// only touched when the request carries it.
func (h *Handler) UpdateMyLocation(c *gin.Context) {
	var req LocationUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if *req.Lat < -90 || *req.Lat > 90 || *req.Lng < -180 || *req.Lng > 180 {
		models.RespondWithError(c, models.NewValidationError("Coordinates out of range"))
		return
	}

	ctx, cancel := storeCtx()
	defer cancel()

	uid := currentUserID(c)
	updates := store.Document{
		"coordinate": store.Document{"lat": *req.Lat, "lng": *req.Lng},
		"lastSeen":   h.Store.ServerTimestamp(),
	}
	if req.Visible != nil {
		updates["visible"] = *req.Visible
	}

	err := h.Store.Update(ctx, store.Locations, uid, updates)
	if errors.Is(err, store.ErrNotFound) {
		doc := store.Document{"_id": uid}
		for k, v := range updates {
			doc[k] = v
		}
		if _, ok := doc["visible"]; !ok {
			doc["visible"] = true
		}
		_, err = h.Store.Create(ctx, store.Locations, doc)
	}
	if err != nil {
		models.RespondWithError(c, models.NewInternalError(err))
		return
	}

	if err := h.Store.Update(ctx, store.Users, uid, store.Document{"lastSeen": h.Store.ServerTimestamp()}); err != nil && !errors.Is(err, store.ErrNotFound) {
		models.RespondWithError(c, models.NewInternalError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

type PresenceUpdateRequest struct {
	Online *bool `json:"online" binding:"required"`
}

// UpdateMyPresence flips the caller's online flag. The websocket hub
// does this automatically on connect and disconnect; this endpoint
// covers clients without a socket.
func (h *Handler) UpdateMyPresence(c *gin.Context) {
	var req PresenceUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := storeCtx()
	defer cancel()

	if err := h.Presence.SetOnline(ctx, currentUserID(c), *req.Online); err != nil {
		models.RespondWithError(c, models.NewInternalError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}
