package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"kindred/filter"
	"kindred/markers"
	"kindred/models"
	"kindred/nearby"
	"kindred/store"
)

// GetNearby resolves, filters and deconflicts the viewer's
// surroundings in one pass.
//
// Query parameters:
//
//	radius     search radius in meters (default 400)
//	minShared  minimum shared interests (default 1)
//	interests  comma-separated interest filter
//	onlineOnly "true" keeps only online candidates
//	expand     group key of a cluster to spiderfy
func (h *Handler) GetNearby(c *gin.Context) {
	ctx, cancel := storeCtx()
	defer cancel()

	uid := currentUserID(c)
	profile, err := h.getProfile(ctx, uid)
	if err != nil {
		models.RespondWithError(c, err)
		return
	}

	locDoc, err := h.Store.Get(ctx, store.Locations, uid)
	if errors.Is(err, store.ErrNotFound) {
		models.RespondWithError(c, models.NewValidationError("Share your location before searching nearby"))
		return
	}
	if err != nil {
		models.RespondWithError(c, models.NewInternalError(err))
		return
	}
	var loc models.LocationRecord
	if err := store.Decode(locDoc, &loc); err != nil {
		models.RespondWithError(c, models.NewInternalError(err))
		return
	}
	if loc.Coordinate == nil {
		models.RespondWithError(c, models.NewValidationError("Share your location before searching nearby"))
		return
	}

	radius, _ := strconv.ParseFloat(c.Query("radius"), 64)

	candidates, err := h.Resolver.Resolve(ctx, uid, *loc.Coordinate, profile.Interests, radius)
	if errors.Is(err, nearby.ErrStale) {
		// A newer pass already delivered; this result must not be shown.
		c.Status(http.StatusNoContent)
		return
	}
	if err != nil {
		models.RespondWithError(c, err)
		return
	}

	f := models.Filter{OnlineOnly: c.Query("onlineOnly") == "true"}
	if v := c.Query("minShared"); v != "" {
		f.MinShared, _ = strconv.Atoi(v)
	}
	if v := c.Query("interests"); v != "" {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				f.SelectedInterests = append(f.SelectedInterests, s)
			}
		}
	}
	candidates = filter.Apply(candidates, f)

	candidates = markers.Deconflict(candidates)
	if key := c.Query("expand"); key != "" {
		candidates = markers.Spiderfy(candidates, key)
	}

	c.JSON(http.StatusOK, gin.H{"candidates": candidates, "count": len(candidates)})
}
