package httpapi

import (
	"encoding/csv"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arjunmehta/sentinelwatch/pkg/models"
	"github.com/arjunmehta/sentinelwatch/pkg/store"
)

func (s *Server) handleListAlerts(c *gin.Context) {
	filter := models.AlertFilter{
		Severity: c.Query("severity"),
		RuleName: c.Query("rule_name"),
		Limit:    queryInt(c, "limit", 100),
		Offset:   queryInt(c, "offset", 0),
	}
	if resolved := c.Query("resolved"); resolved != "" {
		parsed, err := strconv.ParseBool(resolved)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "resolved must be a boolean"})
			return
		}
		filter.Resolved = &parsed
	}

	found, err := s.alerts.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": found, "count": len(found)})
}

func (s *Server) handleAlertDetail(c *gin.Context) {
	alert, err := s.alerts.Get(c.Request.Context(), c.Param("alert_id"))
	if err != nil {
		respondLookupError(c, err)
		return
	}

	body := gin.H{"alert": alert}
	if alert.LogEntryID != nil {
		if event, err := s.events.GetEvent(c.Request.Context(), *alert.LogEntryID); err == nil {
			body["origin_event"] = event
		}
	}

	c.JSON(http.StatusOK, body)
}

type analystRequest struct {
	Analyst string `json:"analyst"`
}

func (s *Server) handleAcknowledge(c *gin.Context) {
	var req analystRequest
	_ = c.ShouldBindJSON(&req)

	if _, err := s.alerts.Acknowledge(c.Request.Context(), c.Param("alert_id"), req.Analyst); err != nil {
		respondLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (s *Server) handleResolve(c *gin.Context) {
	var req analystRequest
	_ = c.ShouldBindJSON(&req)

	if _, err := s.alerts.Resolve(c.Request.Context(), c.Param("alert_id"), req.Analyst); err != nil {
		respondLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

type notesRequest struct {
	Notes string `json:"notes"`
}

func (s *Server) handleUpdateNotes(c *gin.Context) {
	var req notesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := s.alerts.SetNotes(c.Request.Context(), c.Param("alert_id"), req.Notes); err != nil {
		respondLookupError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// csvColumns is the fixed export column order.
var csvColumns = []string{
	"Alert ID", "Rule Name", "Severity", "Description", "Source IP",
	"Username", "Triggered At", "Acknowledged", "Resolved",
}

func (s *Server) handleExportAlerts(c *gin.Context) {
	format := c.DefaultQuery("format", "json")
	if format != "csv" && format != "json" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be csv or json"})
		return
	}

	filter := models.AlertFilter{
		Severity: c.Query("severity"),
		RuleName: c.Query("rule_name"),
		Limit:    queryInt(c, "limit", 1000),
	}
	if from := c.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date"})
			return
		}
		filter.TriggeredAfter = t
	}

	found, err := s.alerts.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if format == "json" {
		c.Header("Content-Disposition", "attachment; filename=alerts.json")
		c.JSON(http.StatusOK, found)
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=alerts.csv")
	w := csv.NewWriter(c.Writer)
	_ = w.Write(csvColumns)
	for _, a := range found {
		_ = w.Write([]string{
			a.AlertID, a.RuleName, a.Severity, a.Description, a.SourceIP,
			a.Username, a.TriggeredAt.Format(time.RFC3339),
			strconv.FormatBool(a.Acknowledged), strconv.FormatBool(a.Resolved),
		})
	}
	w.Flush()
}

func (s *Server) handleDashboardStats(c *gin.Context) {
	totalLogs, err := s.events.TotalEventCount(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	bySeverity, err := s.alerts.Statistics(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	recentLimit := queryInt(c, "limit", 50)
	recent, err := s.alerts.List(c.Request.Context(), models.AlertFilter{
		Severity: c.Query("severity"),
		Limit:    recentLimit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_logs":         totalLogs,
		"alerts_by_severity": bySeverity,
		"recent_alerts":      recent,
		"total_alerts":       bySeverity["total"],
	})
}

func respondLookupError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
