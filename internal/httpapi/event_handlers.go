package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arjunmehta/sentinelwatch/pkg/models"
)

func (s *Server) handleSearchEvents(c *gin.Context) {
	filter := models.EventFilter{
		SourceIP:  c.Query("ip"),
		Username:  c.Query("user"),
		EventType: c.Query("event_type"),
		Status:    c.Query("status"),
		Limit:     queryInt(c, "limit", 100),
		Offset:    queryInt(c, "offset", 0),
	}

	if from := c.Query("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date"})
			return
		}
		filter.From = t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date"})
			return
		}
		filter.To = t
	}

	found, err := s.events.FindEvents(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	total, err := s.events.CountEvents(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":   found,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

func (s *Server) handleEventDetail(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("event_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "event_id must be an integer"})
		return
	}

	event, err := s.events.GetEvent(c.Request.Context(), id)
	if err != nil {
		respondLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}
