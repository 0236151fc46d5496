// Package httpapi exposes SentinelWatch's ingestion, alert and search
// operations over HTTP using github.com/gin-gonic/gin, grounded on the
// teacher library's examples/webserver/main.go (ShouldBindJSON,
// gin.H responses, c.ClientIP() for backend-derived signals).
package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/arjunmehta/sentinelwatch/internal/logging"
	"github.com/arjunmehta/sentinelwatch/pkg/alerts"
	"github.com/arjunmehta/sentinelwatch/pkg/ingest"
	"github.com/arjunmehta/sentinelwatch/pkg/store"
)

// Server bundles the collaborators every handler needs.
type Server struct {
	orchestrator *ingest.Orchestrator
	alerts       *alerts.Manager
	events       store.EventStore
}

// NewServer builds a Server from its collaborators.
func NewServer(orchestrator *ingest.Orchestrator, alertsManager *alerts.Manager, events store.EventStore) *Server {
	return &Server{orchestrator: orchestrator, alerts: alertsManager, events: events}
}

// Router builds the gin.Engine exposing every operation of the
// external-interfaces table: ingestion, alert lifecycle, search,
// export, dashboard stats and health.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/health", s.handleHealth)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/logs", s.handleIngestSingle)
		v1.POST("/logs/bulk", s.handleIngestBulk)
		v1.POST("/logs/upload", s.handleIngestFile)

		v1.GET("/alerts", s.handleListAlerts)
		v1.GET("/alerts/export", s.handleExportAlerts)
		v1.GET("/alerts/:alert_id", s.handleAlertDetail)
		v1.POST("/alerts/:alert_id/acknowledge", s.handleAcknowledge)
		v1.POST("/alerts/:alert_id/resolve", s.handleResolve)
		v1.PATCH("/alerts/:alert_id/notes", s.handleUpdateNotes)

		v1.GET("/events", s.handleSearchEvents)
		v1.GET("/events/:event_id", s.handleEventDetail)

		v1.GET("/dashboard/stats", s.handleDashboardStats)
	}

	return r
}

// requestLogger logs every request at info level through
// internal/logging instead of gin's default writer, matching the
// structured-everywhere style the rest of the module uses.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logging.Get().Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
