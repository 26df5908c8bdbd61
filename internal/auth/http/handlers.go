package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cloud-analytics/cloud-analytics-backend/internal/auth"
	"github.com/cloud-analytics/cloud-analytics-backend/internal/users"
)

// UserStore is the slice of the users repo the auth handlers need.
type UserStore interface {
	Create(ctx context.Context, username, passwordHash string) error
	GetPasswordHash(ctx context.Context, username string) (string, error)
}

type Handler struct {
	svc   *auth.Service
	users UserStore
}

func NewHandler(svc *auth.Service, store UserStore) *Handler {
	return &Handler{svc: svc, users: store}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/register", h.Register)
	rg.POST("/token", h.Token)
}

type credentials struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// TokenResponse is the login payload.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Register handles POST /auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req credentials
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	username, password := auth.SanitizeLoginInput(req.Username, req.Password)
	if username == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register user"})
		return
	}

	if err := h.users.Create(c.Request.Context(), username, hash); err != nil {
		if errors.Is(err, users.ErrExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"username": username})
}

// Token handles POST /auth/token.
func (h *Handler) Token(c *gin.Context) {
	var req credentials
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	username, password := auth.SanitizeLoginInput(req.Username, req.Password)

	hash, err := h.users.GetPasswordHash(c.Request.Context(), username)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			unauthorized(c)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	if !auth.VerifyPassword(password, hash) {
		unauthorized(c)
		return
	}

	token, err := h.svc.GenerateToken(username, h.svc.TokenExpiry())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	c.JSON(http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.JSON(http.StatusUnauthorized, gin.H{"error": "incorrect username or password"})
}
