package handlers

import (
	"net/http"

	"usercache-api/internal/session"

	"github.com/gin-gonic/gin"
)

// SessionHandler exposes session existence checks to other services.
type SessionHandler struct {
	sessions *session.Store
}

func NewSessionHandler(sessions *session.Store) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// SessionExists handles GET /api/sessions/:sid/exists
func (h *SessionHandler) SessionExists(c *gin.Context) {
	sid := c.Param("sid")
	c.JSON(http.StatusOK, gin.H{
		"session_id": sid,
		"exists":     h.sessions.Exists(sid),
	})
}

// DestroySession handles DELETE /api/sessions/:sid
func (h *SessionHandler) DestroySession(c *gin.Context) {
	sid := c.Param("sid")
	c.JSON(http.StatusOK, gin.H{
		"session_id": sid,
		"destroyed":  h.sessions.Destroy(sid),
	})
}

// CountSessions handles GET /api/sessions
func (h *SessionHandler) CountSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"count":          h.sessions.Count(),
		"timeoutSeconds": int64(h.sessions.Timeout().Seconds()),
	})
}
