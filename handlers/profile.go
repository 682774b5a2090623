package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"kindred/models"
	"kindred/store"
)

// UpdateProfileRequest uses pointer fields so absent keys leave the
// stored value alone.
type UpdateProfileRequest struct {
	Name            *string   `json:"name"`
	Bio             *string   `json:"bio"`
	Avatar          *string   `json:"avatar"`
	Interests       *[]string `json:"interests"`
	Photos          *[]string `json:"photos"`
	LocationVisible *bool     `json:"locationVisible"`
}

func (h *Handler) GetMyProfile(c *gin.Context) {
	ctx, cancel := storeCtx()
	defer cancel()

	profile, err := h.getProfile(ctx, currentUserID(c))
	if err != nil {
		models.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (h *Handler) UpdateMyProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := store.Document{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}
	if req.Avatar != nil {
		updates["avatar"] = *req.Avatar
	}
	if req.Interests != nil {
		updates["interests"] = *req.Interests
	}
	if req.Photos != nil {
		updates["photos"] = *req.Photos
	}
	if req.LocationVisible != nil {
		updates["locationVisible"] = *req.LocationVisible
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
		return
	}

	ctx, cancel := storeCtx()
	defer cancel()

	uid := currentUserID(c)
	if err := h.Store.Update(ctx, store.Users, uid, updates); err != nil {
		models.RespondWithError(c, models.NewInternalError(err))
		return
	}

	// Visibility on the profile mirrors onto the location record, so
	// hiding takes effect without waiting for the next location write.
	if req.LocationVisible != nil {
		err := h.Store.Update(ctx, store.Locations, uid, store.Document{"visible": *req.LocationVisible})
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			models.RespondWithError(c, models.NewInternalError(err))
			return
		}
	}

	profile, err := h.getProfile(ctx, uid)
	if err != nil {
		models.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetUser returns another user's public profile.
func (h *Handler) GetUser(c *gin.Context) {
	ctx, cancel := storeCtx()
	defer cancel()

	profile, err := h.getProfile(ctx, c.Param("uid"))
	if err != nil {
		models.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UploadPhoto pushes the multipart "photo" file to the media CDN and
// returns its URL. Returns 503 when no uploader is configured.
func (h *Handler) UploadPhoto(c *gin.Context) {
	if h.Uploader == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Photo uploads are not configured"})
		return
	}

	file, _, err := c.Request.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No photo file provided"})
		return
	}
	defer file.Close()

	ctx, cancel := storeCtx()
	defer cancel()

	url, err := h.Uploader.Upload(ctx, file, "kindred/photos")
	if err != nil {
		models.RespondWithError(c, models.NewInternalError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
