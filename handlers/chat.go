package handlers

import (
	"context"
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"kindred/models"
	"kindred/store"
)

// ChatSummary is a chat room joined with the partner's profile and
// presence for the chat list screen.
type ChatSummary struct {
	models.ChatRoom
	Partner       *models.UserProfile `json:"partner,omitempty"`
	PartnerOnline bool                `json:"partnerOnline"`
	UnreadCount   int                 `json:"unreadCount"`
}

// ListChats returns the caller's chat rooms, newest activity first,
// each joined with the other participant's profile and online flag.
func (h *Handler) ListChats(c *gin.Context) {
	ctx, cancel := storeCtx()
	defer cancel()

	uid := currentUserID(c)
	docs, err := h.Store.Query(ctx, store.ChatRooms, store.Contains("participants", uid))
	if err != nil {
		models.RespondWithError(c, models.NewInternalError(err))
		return
	}
	rooms, err := store.DecodeAll[models.ChatRoom](docs)
	if err != nil {
		models.RespondWithError(c, models.NewInternalError(err))
		return
	}

	partners := make([]string, 0, len(rooms))
	for _, room := range rooms {
		if p := partnerIn(room, uid); p != "" {
			partners = append(partners, p)
		}
	}
	online, err := h.Presence.Snapshot(ctx, partners)
	if err != nil {
		models.RespondWithError(c, models.NewInternalError(err))
		return
	}

	summaries := make([]ChatSummary, 0, len(rooms))
	for _, room := range rooms {
		s := ChatSummary{ChatRoom: room}
		if p := partnerIn(room, uid); p != "" {
			if profile, perr := h.getProfile(ctx, p); perr == nil {
				s.Partner = profile
			}
			s.PartnerOnline = online[p]
		}
		s.UnreadCount = h.unreadCount(ctx, room.ID, uid)
		summaries = append(summaries, s)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		at, bt := a.LastMessageAt, b.LastMessageAt
		if at == 0 {
			at = a.CreatedAt
		}
		if bt == 0 {
			bt = b.CreatedAt
		}
		return at > bt
	})

	c.JSON(http.StatusOK, gin.H{"chats": summaries, "count": len(summaries)})
}

// GetChat returns one chat room the caller participates in.
func (h *Handler) GetChat(c *gin.Context) {
	ctx, cancel := storeCtx()
	defer cancel()

	room, err := h.chatForMember(ctx, c.Param("id"), currentUserID(c))
	if err != nil {
		models.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

// chatForMember loads a room and verifies uid belongs to it.
func (h *Handler) chatForMember(ctx context.Context, chatID, uid string) (*models.ChatRoom, error) {
	doc, err := h.Store.Get(ctx, store.ChatRooms, chatID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, models.NewNotFoundError("Chat", chatID)
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	var room models.ChatRoom
	if err := store.Decode(doc, &room); err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, p := range room.Participants {
		if p == uid {
			return &room, nil
		}
	}
	return nil, models.NewPermissionDeniedError("You are not a participant of this chat")
}

func (h *Handler) unreadCount(ctx context.Context, chatID, uid string) int {
	docs, err := h.Store.Query(ctx, store.Messages,
		store.Eq("chatId", chatID), store.Eq("isRead", false))
	if err != nil {
		return 0
	}
	n := 0
	for _, doc := range docs {
		sender, _ := doc["senderId"].(string)
		if sender != uid && sender != models.SystemSender {
			n++
		}
	}
	return n
}

func partnerIn(room models.ChatRoom, uid string) string {
	for _, p := range room.Participants {
		if p != uid {
			return p
		}
	}
	return ""
}
