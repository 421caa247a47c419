package handlers

import (
	"errors"
	"net/http"

	"usercache-api/internal/auth"
	"usercache-api/internal/database"
	"usercache-api/internal/models"
	"usercache-api/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// LoginRequest represents the login request payload
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// AuthHandler issues tokens and tracks the session behind each one.
type AuthHandler struct {
	sessions *session.Store
}

func NewAuthHandler(sessions *session.Store) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

// Login handles POST /api/login
// An unknown username is registered with the given password on first login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request. Username and password are required.",
		})
		return
	}

	db := database.GetDB()
	var user models.User
	err := db.Where("username = ?", req.Username).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hash, hashErr := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if hashErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password cannot be used"})
			return
		}
		user = models.User{ID: uuid.NewString(), Username: req.Username, Password: string(hash)}
		if err := db.Create(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
			return
		}
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	default:
		if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
			return
		}
	}

	sid := h.sessions.NewID()
	if !h.sessions.Write(sid, []byte(user.ID)) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Session store unavailable"})
		return
	}

	token, err := auth.GenerateToken(user.ID, user.Username, sid)
	if err != nil {
		h.sessions.Destroy(sid)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate token",
		})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		UserID:    user.ID,
		Username:  user.Username,
		SessionID: sid,
		Message:   "Login successful",
	})
}

// Logout handles POST /api/logout
// It ends the session the token was issued for.
func (h *AuthHandler) Logout(c *gin.Context) {
	sid := c.GetString("session_id")
	if sid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token carries no session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": sid,
		"destroyed":  h.sessions.Destroy(sid),
	})
}
