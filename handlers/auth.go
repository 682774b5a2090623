package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"kindred/middleware"
	"kindred/models"
	"kindred/store"
)

const tokenTTL = 30 * 24 * time.Hour

type SignupRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Signup creates a user document with every profile field initialized,
// so later partial updates always have a complete document to land on.
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := storeCtx()
	defer cancel()

	existing, err := h.Store.Query(ctx, store.Users, store.Eq("email", req.Email))
	if err != nil {
		models.RespondWithError(c, models.NewInternalError(err))
		return
	}
	if len(existing) > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already in use"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		models.RespondWithError(c, models.NewInternalError(err))
		return
	}

	id, err := h.Store.Create(ctx, store.Users, store.Document{
		"email":           req.Email,
		"passwordHash":    string(hashed),
		"name":            req.Name,
		"bio":             "",
		"avatar":          "",
		"interests":       []string{},
		"photos":          []string{},
		"locationVisible": false,
		"createdAt":       h.Store.ServerTimestamp(),
		"lastSeen":        h.Store.ServerTimestamp(),
	})
	if err != nil {
		models.RespondWithError(c, models.NewInternalError(err))
		return
	}

	token, err := middleware.NewToken(h.JWTSecret, id, tokenTTL)
	if err != nil {
		models.RespondWithError(c, models.NewInternalError(err))
		return
	}

	profile, err := h.getProfile(ctx, id)
	if err != nil {
		models.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"token": token, "user": profile})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := storeCtx()
	defer cancel()

	docs, err := h.Store.Query(ctx, store.Users, store.Eq("email", req.Email))
	if err != nil {
		models.RespondWithError(c, models.NewInternalError(err))
		return
	}
	if len(docs) == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	var user models.UserProfile
	if err := store.Decode(docs[0], &user); err != nil {
		models.RespondWithError(c, models.NewInternalError(err))
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	token, err := middleware.NewToken(h.JWTSecret, user.UID, tokenTTL)
	if err != nil {
		models.RespondWithError(c, models.NewInternalError(err))
		return
	}

	if err := h.Store.Update(ctx, store.Users, user.UID, store.Document{"lastSeen": h.Store.ServerTimestamp()}); err != nil {
		models.RespondWithError(c, models.NewInternalError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}
