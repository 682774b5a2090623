package handlers

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"

	"kindred/models"
	"kindred/store"
)

type SendMessageRequest struct {
	ChatID  string `json:"chatId" binding:"required"`
	Content string `json:"content" binding:"required"`
	Type    string `json:"type"`
}

// SendMessage appends a message to a chat the caller belongs to,
// updates the room's last-message summary and fans the message out over
// the socket and web push.
func (h *Handler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		models.RespondWithError(c, models.NewValidationError("Message content cannot be empty"))
		return
	}
	msgType := req.Type
	switch msgType {
	case "":
		msgType = models.MessageTypeText
	case models.MessageTypeText, models.MessageTypeImage, models.MessageTypeVoice:
	default:
		models.RespondWithError(c, models.NewValidationError("Unknown message type"))
		return
	}

	ctx, cancel := storeCtx()
	defer cancel()

	uid := currentUserID(c)
	room, err := h.chatForMember(ctx, req.ChatID, uid)
	if err != nil {
		models.RespondWithError(c, err)
		return
	}

	id, err := h.Store.Create(ctx, store.Messages, store.Document{
		"chatId":    room.ID,
		"senderId":  uid,
		"content":   req.Content,
		"type":      msgType,
		"isRead":    false,
		"createdAt": h.Store.ServerTimestamp(),
	})
	if err != nil {
		models.RespondWithError(c, models.NewInternalError(err))
		return
	}

	if err := h.Store.Update(ctx, store.ChatRooms, room.ID, store.Document{
		"lastMessage":   req.Content,
		"lastMessageAt": h.Store.ServerTimestamp(),
	}); err != nil {
		models.RespondWithError(c, models.NewInternalError(err))
		return
	}

	doc, err := h.Store.Get(ctx, store.Messages, id)
	if err != nil {
		models.RespondWithError(c, models.NewInternalError(err))
		return
	}
	var msg models.Message
	if err := store.Decode(doc, &msg); err != nil {
		models.RespondWithError(c, models.NewInternalError(err))
		return
	}

	if partner := partnerIn(*room, uid); partner != "" {
		h.sendEvent("new_message", msg, partner)
		if sender, perr := h.getProfile(ctx, uid); perr == nil {
			preview := req.Content
			if len(preview) > 80 {
				preview = preview[:80] + "..."
			}
			h.pushToUser(partner, sender.Name, preview, map[string]string{
				"type":   "new_message",
				"chatId": room.ID,
			})
		}
	}

	c.JSON(http.StatusCreated, msg)
}

// GetMessages returns every message of a chat in chronological order.
func (h *Handler) GetMessages(c *gin.Context) {
	ctx, cancel := storeCtx()
	defer cancel()

	room, err := h.chatForMember(ctx, c.Param("chatId"), currentUserID(c))
	if err != nil {
		models.RespondWithError(c, err)
		return
	}

	docs, err := h.Store.Query(ctx, store.Messages, store.Eq("chatId", room.ID))
	if err != nil {
		models.RespondWithError(c, models.NewInternalError(err))
		return
	}
	msgs, err := store.DecodeAll[models.Message](docs)
	if err != nil {
		models.RespondWithError(c, models.NewInternalError(err))
		return
	}
	// Stable sort: timestamps are second-precision, so messages written
	// within the same second keep the store's insertion order.
	sort.SliceStable(msgs, func(i, j int) bool { return msgs[i].CreatedAt < msgs[j].CreatedAt })

	c.JSON(http.StatusOK, gin.H{"messages": msgs, "count": len(msgs)})
}

type TypingRequest struct {
	ChatID string `json:"chatId" binding:"required"`
	Typing bool   `json:"typing"`
}

// SendTyping relays a typing indicator to the chat partner over the
// socket. HTTP fallback for clients without an open websocket; nothing
// is persisted.
func (h *Handler) SendTyping(c *gin.Context) {
	var req TypingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := storeCtx()
	defer cancel()

	uid := currentUserID(c)
	room, err := h.chatForMember(ctx, req.ChatID, uid)
	if err != nil {
		models.RespondWithError(c, err)
		return
	}

	eventType := "typing_end"
	if req.Typing {
		eventType = "typing_start"
	}
	if partner := partnerIn(*room, uid); partner != "" {
		h.sendEvent(eventType, gin.H{"chatId": room.ID, "userId": uid}, partner)
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

// MarkMessagesRead marks the partner's messages in a chat as read.
func (h *Handler) MarkMessagesRead(c *gin.Context) {
	ctx, cancel := storeCtx()
	defer cancel()

	uid := currentUserID(c)
	room, err := h.chatForMember(ctx, c.Param("chatId"), uid)
	if err != nil {
		models.RespondWithError(c, err)
		return
	}

	docs, err := h.Store.Query(ctx, store.Messages,
		store.Eq("chatId", room.ID), store.Eq("isRead", false))
	if err != nil {
		models.RespondWithError(c, models.NewInternalError(err))
		return
	}

	updated := 0
	for _, doc := range docs {
		sender, _ := doc["senderId"].(string)
		if sender == uid {
			continue
		}
		id, _ := doc["_id"].(string)
		if err := h.Store.Update(ctx, store.Messages, id, store.Document{"isRead": true}); err != nil {
			models.RespondWithError(c, models.NewInternalError(err))
			return
		}
		updated++
	}

	if updated > 0 {
		if partner := partnerIn(*room, uid); partner != "" {
			h.sendEvent("messages_read", gin.H{"chatId": room.ID, "by": uid}, partner)
		}
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
