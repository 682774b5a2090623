package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kindred/models"
	"kindred/store"
)

type FavoriteRequest struct {
	TargetUserID string `json:"targetUserId" binding:"required"`
}

// AddFavorite bookmarks another user. Adding twice is a no-op.
func (h *Handler) AddFavorite(c *gin.Context) {
	var req FavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := storeCtx()
	defer cancel()

	uid := currentUserID(c)
	if uid == req.TargetUserID {
		models.RespondWithError(c, models.NewValidationError("Cannot favorite yourself"))
		return
	}
	if _, err := h.getProfile(ctx, req.TargetUserID); err != nil {
		models.RespondWithError(c, err)
		return
	}

	existing, err := h.Store.Query(ctx, store.Favorites,
		store.Eq("userId", uid), store.Eq("targetUserId", req.TargetUserID))
	if err != nil {
		models.RespondWithError(c, models.NewInternalError(err))
		return
	}
	if len(existing) > 0 {
		c.JSON(http.StatusOK, gin.H{"status": "already favorited"})
		return
	}

	if _, err := h.Store.Create(ctx, store.Favorites, store.Document{
		"userId":       uid,
		"targetUserId": req.TargetUserID,
		"createdAt":    h.Store.ServerTimestamp(),
	}); err != nil {
		models.RespondWithError(c, models.NewInternalError(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "favorited"})
}

// RemoveFavorite drops the bookmark on the target user.
func (h *Handler) RemoveFavorite(c *gin.Context) {
	ctx, cancel := storeCtx()
	defer cancel()

	uid := currentUserID(c)
	docs, err := h.Store.Query(ctx, store.Favorites,
		store.Eq("userId", uid), store.Eq("targetUserId", c.Param("uid")))
	if err != nil {
		models.RespondWithError(c, models.NewInternalError(err))
		return
	}
	for _, doc := range docs {
		id, _ := doc["_id"].(string)
		if err := h.Store.Delete(ctx, store.Favorites, id); err != nil {
			models.RespondWithError(c, models.NewInternalError(err))
			return
		}
	}
	c.Status(http.StatusNoContent)
}

// ListFavorites returns the caller's bookmarks joined with profiles.
func (h *Handler) ListFavorites(c *gin.Context) {
	ctx, cancel := storeCtx()
	defer cancel()

	uid := currentUserID(c)
	docs, err := h.Store.Query(ctx, store.Favorites, store.Eq("userId", uid))
	if err != nil {
		models.RespondWithError(c, models.NewInternalError(err))
		return
	}
	favs, err := store.DecodeAll[models.Favorite](docs)
	if err != nil {
		models.RespondWithError(c, models.NewInternalError(err))
		return
	}

	type favoriteView struct {
		models.Favorite
		User *models.UserProfile `json:"user,omitempty"`
	}
	out := make([]favoriteView, 0, len(favs))
	for _, f := range favs {
		v := favoriteView{Favorite: f}
		if profile, perr := h.getProfile(ctx, f.TargetUserID); perr == nil {
			v.User = profile
		}
		out = append(out, v)
	}
	c.JSON(http.StatusOK, gin.H{"favorites": out, "count": len(out)})
}
