package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (s *Server) handleHealth(c *gin.Context) {
	status := "ok"
	dbStatus := "disabled"
	if s.repo != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := s.repo.HealthCheck(ctx); err != nil {
			status = "degraded"
			dbStatus = "unreachable"
		} else {
			dbStatus = "ok"
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"database":  dbStatus,
		"timestamp": time.Now().UTC(),
	})
}

// handleConfig exposes the running configuration with secrets blanked.
func (s *Server) handleConfig(c *gin.Context) {
	c.JSON(http.StatusOK, s.cfg.Redacted())
}

func (s *Server) handleListAlerts(c *gin.Context) {
	if s.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence disabled"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 500 {
		limit = 50
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	if symbol := strings.ToUpper(c.Query("symbol")); symbol != "" {
		alerts, err := s.repo.ListAlertsBySymbol(c.Request.Context(), symbol, limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list alerts"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"alerts": alerts})
		return
	}

	alerts, err := s.repo.ListAlerts(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list alerts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

func (s *Server) handleGetAlert(c *gin.Context) {
	if s.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "persistence disabled"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid alert id"})
		return
	}

	alert, err := s.repo.GetAlertByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		return
	}

	grade, err := s.repo.GetGrade(c.Request.Context(), id)
	if err != nil {
		s.log.Warn().Err(err).Str("alert_id", id.String()).Msg("fetching grade")
	}

	c.JSON(http.StatusOK, gin.H{"alert": alert, "grade": grade})
}

func (s *Server) handleScanStatus(c *gin.Context) {
	if s.scanner == nil {
		c.JSON(http.StatusOK, gin.H{"scanner": "disabled"})
		return
	}
	run := s.scanner.LastRun()
	if run == nil {
		c.JSON(http.StatusOK, gin.H{"scanner": "idle", "last_run": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"scanner": "running", "last_run": run})
}

// handleRunScan triggers an immediate scan cycle outside the schedule. The
// cycle can outlive the response write deadline, so it runs in the
// background and the caller polls /api/scan/status for the outcome.
func (s *Server) handleRunScan(c *gin.Context) {
	if s.scanner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scanner disabled"})
		return
	}
	id := s.scanner.TriggerScan()
	c.JSON(http.StatusAccepted, gin.H{"scan_id": id, "status": "started"})
}

// handleDebugDecision returns the last decision trace for a symbol.
func (s *Server) handleDebugDecision(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	trace := s.scanner.LastTrace(symbol)
	if trace == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no trace for symbol", "symbol": symbol})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trace": trace})
}

type tokenRequest struct {
	AdminKey string `json:"admin_key" binding:"required"`
}

// handleIssueToken exchanges the admin key for a JWT.
func (s *Server) handleIssueToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "admin_key is required"})
		return
	}

	token, err := s.authService.IssueToken(req.AdminKey)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid admin key"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_in": int(s.cfg.AuthConfig.TokenDuration.Seconds()),
	})
}
