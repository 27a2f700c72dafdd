package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/julianstephens/drivewise/internal/constants"
	apperrors "github.com/julianstephens/drivewise/internal/errors"
	"github.com/julianstephens/drivewise/internal/logger"
	"github.com/julianstephens/drivewise/internal/models"
)

var pages = []constants.PageType{
	constants.PageDashboard,
	constants.PageAnalytics,
	constants.PageWellness,
	constants.PageFinancial,
	constants.PageEarnings,
}

type chatRequest struct {
	Message string `json:"message" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// GET /api/state
func (s *Server) getState(c *gin.Context) {
	c.JSON(http.StatusOK, s.sync.State())
}

// POST /api/sync
func (s *Server) postSync(c *gin.Context) {
	err := s.sync.SyncAllData(c.Request.Context())
	if errors.Is(err, apperrors.ErrAuthRequired) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": apperrors.AuthRequiredMessage})
		return
	}
	resp := gin.H{"ok": err == nil, "state": s.sync.State()}
	if err != nil {
		resp["error"] = apperrors.Message(err)
	}
	c.JSON(http.StatusOK, resp)
}

// POST /api/refresh/:page
func (s *Server) postRefresh(c *gin.Context) {
	page := constants.PageType(c.Param("page"))
	if !slices.Contains(pages, page) {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("unknown page %q", page)})
		return
	}
	if !s.sync.Layer().IsAuthenticated() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": apperrors.AuthRequiredMessage})
		return
	}

	ok := s.sync.RefreshData(c.Request.Context(), page)
	state := s.sync.State()
	resp := gin.H{"ok": ok, "state": state}
	if !ok && state.Error != "" {
		resp["error"] = state.Error
	}
	c.JSON(http.StatusOK, resp)
}

// POST /api/chat
func (s *Server) postChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	msg, err := s.chat.Send(c.Request.Context(), req.Message)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    msg,
		"phase":      s.chat.Phase().String(),
		"transcript": s.chat.Messages(),
	})
}

// POST /api/wellness
func (s *Server) postWellness(c *gin.Context) {
	var entry models.WellnessLog
	if err := c.ShouldBindJSON(&entry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wellness assessment"})
		return
	}

	layer := s.sync.Layer()
	if !layer.SubmitWellnessAssessment(entry) {
		status := http.StatusBadRequest
		if !layer.IsAuthenticated() {
			status = http.StatusUnauthorized
		}
		c.JSON(status, gin.H{"error": layer.State().Error})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"wellness_data": layer.State().WellnessData})
}

// POST /api/auth/login
func (s *Server) postLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}
	if err := s.sync.Layer().Login(c.Request.Context(), req.Email, req.Password); err != nil {
		status := http.StatusBadGateway
		var be *apperrors.BackendError
		if errors.As(err, &be) {
			status = http.StatusUnauthorized
		}
		c.JSON(status, gin.H{"error": apperrors.Message(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// POST /api/auth/logout
func (s *Server) postLogout(c *gin.Context) {
	if err := s.sync.Logout(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// GET /api/events streams every state snapshot as an SSE data frame.
func (s *Server) getEvents(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	updates, unsubscribe := s.sync.Subscribe()
	defer unsubscribe()

	clientCtx := c.Request.Context()
	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	logger.Debug("SSE client connected", "remote", c.ClientIP())
	for {
		select {
		case <-clientCtx.Done():
			logger.Debug("SSE client disconnected", "remote", c.ClientIP())
			return

		case snap, ok := <-updates:
			if !ok {
				return
			}
			data, err := json.Marshal(snap)
			if err != nil {
				logger.Error("Failed to encode snapshot", "error", err)
				continue
			}
			if _, err := fmt.Fprintf(c.Writer, "event: state\ndata: %s\n\n", data); err != nil {
				logger.Debug("SSE write failed", "error", err)
				return
			}
			c.Writer.Flush()

		case <-ticker.C:
			heartbeat := fmt.Sprintf("event: heartbeat\ndata: {\"timestamp\":%q}\n\n", time.Now().Format(time.RFC3339))
			if _, err := c.Writer.WriteString(heartbeat); err != nil {
				logger.Debug("SSE heartbeat failed", "error", err)
				return
			}
			c.Writer.Flush()
		}
	}
}
