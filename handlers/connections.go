package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kindred/models"
	"kindred/nearby"
)

type SendConnectionRequest struct {
	ReceiverID string `json:"receiverId" binding:"required"`
}

// SendConnection creates a pending request toward receiverId. Tier and
// shared interests are computed here from both profiles; the client
// never supplies them.
func (h *Handler) SendConnection(c *gin.Context) {
	var req SendConnectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := storeCtx()
	defer cancel()

	uid := currentUserID(c)
	sender, err := h.getProfile(ctx, uid)
	if err != nil {
		models.RespondWithError(c, err)
		return
	}
	receiver, err := h.getProfile(ctx, req.ReceiverID)
	if err != nil {
		models.RespondWithError(c, err)
		return
	}

	shared := nearby.Intersect(sender.Interests, receiver.Interests)
	tier := models.TierForSharedCount(len(shared))

	conn, err := h.Connections.SendInvite(ctx, uid, req.ReceiverID, tier, shared)
	if err != nil {
		models.RespondWithError(c, err)
		return
	}

	h.sendEvent("connection_request", gin.H{
		"connection": conn,
		"sender":     sender,
	}, req.ReceiverID)
	h.pushToUser(req.ReceiverID, "New connection request",
		sender.Name+" wants to connect with you", map[string]string{
			"type":         "connection_request",
			"connectionId": conn.ID,
		})

	c.JSON(http.StatusCreated, conn)
}

// AcceptConnection accepts a pending request and returns it with its
// provisioned chat room.
func (h *Handler) AcceptConnection(c *gin.Context) {
	ctx, cancel := storeCtx()
	defer cancel()

	uid := currentUserID(c)
	conn, err := h.Connections.AcceptInvite(ctx, uid, c.Param("id"))
	if err != nil {
		models.RespondWithError(c, err)
		return
	}

	if accepter, perr := h.getProfile(ctx, uid); perr == nil {
		partner := conn.PartnerOf(uid)
		h.sendEvent("connection_accepted", gin.H{
			"connection": conn,
			"accepter":   accepter,
		}, partner)
		h.pushToUser(partner, "Connection accepted",
			accepter.Name+" accepted your connection request", map[string]string{
				"type":   "connection_accepted",
				"chatId": conn.ChatRoomID,
			})
	}

	c.JSON(http.StatusOK, conn)
}

// DeclineConnection deletes a pending request.
func (h *Handler) DeclineConnection(c *gin.Context) {
	ctx, cancel := storeCtx()
	defer cancel()

	if err := h.Connections.DeclineInvite(ctx, currentUserID(c), c.Param("id")); err != nil {
		models.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListConnections returns the caller's accepted connections.
func (h *Handler) ListConnections(c *gin.Context) {
	ctx, cancel := storeCtx()
	defer cancel()

	conns, err := h.Connections.Accepted(ctx, currentUserID(c))
	if err != nil {
		models.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"connections": conns, "count": len(conns)})
}

// ListPendingConnections returns pending requests addressed to the caller.
func (h *Handler) ListPendingConnections(c *gin.Context) {
	ctx, cancel := storeCtx()
	defer cancel()

	conns, err := h.Connections.PendingReceived(ctx, currentUserID(c))
	if err != nil {
		models.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"connections": conns, "count": len(conns)})
}

// ListSentConnections returns pending requests the caller sent.
func (h *Handler) ListSentConnections(c *gin.Context) {
	ctx, cancel := storeCtx()
	defer cancel()

	conns, err := h.Connections.PendingSent(ctx, currentUserID(c))
	if err != nil {
		models.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"connections": conns, "count": len(conns)})
}

// GetChatWith resolves the chat room of the caller's accepted
// connection with another user.
func (h *Handler) GetChatWith(c *gin.Context) {
	ctx, cancel := storeCtx()
	defer cancel()

	chatID, err := h.Connections.FindChatRoomFor(ctx, currentUserID(c), c.Param("uid"))
	if err != nil {
		models.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chatId": chatID})
}
