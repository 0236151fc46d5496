package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arjunmehta/sentinelwatch/pkg/models"
	"github.com/arjunmehta/sentinelwatch/pkg/timeutil"
)

// logEventRequest mirrors the structured-event shape of the
// ingestion inputs table: timestamp and username are optional,
// event_type defaults to "authentication".
type logEventRequest struct {
	Timestamp string `json:"timestamp"`
	SourceIP  string `json:"source_ip" binding:"required"`
	Username  string `json:"username"`
	EventType string `json:"event_type"`
	Status    string `json:"status" binding:"required"`
	RawLog    string `json:"raw_log"`
}

func (r logEventRequest) toEvent() models.Event {
	ts, ok := timeutil.ParseTimestamp(r.Timestamp)
	if !ok {
		ts = time.Now().UTC()
	}

	eventType := r.EventType
	if eventType == "" {
		eventType = string(models.EventTypeAuthentication)
	}

	return models.Event{
		Timestamp: ts,
		SourceIP:  r.SourceIP,
		Username:  r.Username,
		EventType: eventType,
		Status:    r.Status,
		RawLog:    r.RawLog,
	}
}

type bulkLogRequest struct {
	Logs []logEventRequest `json:"logs" binding:"required"`
}

func (s *Server) handleIngestSingle(c *gin.Context) {
	var req logEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.orchestrator.IngestEvent(c.Request.Context(), req.toEvent())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ingested":         result.Ingested,
		"alerts_generated": result.AlertsGenerated,
		"log_entry_id":     result.LogEntryID,
	})
}

func (s *Server) handleIngestBulk(c *gin.Context) {
	var req bulkLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ingested := 0
	alertsGenerated := 0
	for _, item := range req.Logs {
		result, err := s.orchestrator.IngestEvent(c.Request.Context(), item.toEvent())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		ingested += result.Ingested
		alertsGenerated += result.AlertsGenerated
	}

	c.JSON(http.StatusOK, gin.H{
		"ingested":         ingested,
		"alerts_generated": alertsGenerated,
	})
}

func (s *Server) handleIngestFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	result, err := s.orchestrator.IngestFile(c.Request.Context(), file, fileHeader.Filename)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ingested":         result.Ingested,
		"alerts_generated": result.AlertsGenerated,
		"source_file":      result.SourceFile,
	})
}
