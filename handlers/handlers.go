package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"cattle-monitor-service/geo"
	"cattle-monitor-service/models"
	"cattle-monitor-service/service"
)

type MonitorHandler struct {
	analyzer *service.Analyzer
}

func NewMonitorHandler(analyzer *service.Analyzer) *MonitorHandler {
	return &MonitorHandler{
		analyzer: analyzer,
	}
}

// HealthCheck returns a simple health status
func (h *MonitorHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "cattle-monitor-service",
	})
}

// Status reports the service as running. The analysis pipeline itself always
// answers as long as the process is up.
func (h *MonitorHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, models.StatusResponse{
		Status:  "running",
		Service: "cattle-monitor-service",
	})
}

// Analyze runs the analysis pipeline for one animal. A missing position or
// fence maps to 404, a fence that cannot form a polygon to 400.
func (h *MonitorHandler) Analyze(c *gin.Context) {
	args := &models.AnalysisRequest{}

	if err := c.BindJSON(args); err != nil {
		log.Errorf("Failed to get the argument in /analyze call: %v", err)
		return
	}
	if args.EntityID == "" || args.UserID == "" {
		c.String(http.StatusBadRequest, "entity_id and user_id are required")
		return
	}

	result, err := h.analyzer.Analyze(c.Request.Context(), args)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			log.Warnf("No data for entity %s: %v", args.EntityID, err)
			c.String(http.StatusNotFound, fmt.Sprint(err))
		case errors.Is(err, geo.ErrInvalidGeometry):
			log.Warnf("Unusable geofence for entity %s: %v", args.EntityID, err)
			c.String(http.StatusBadRequest, fmt.Sprint(err))
		default:
			log.Errorf("Error analyzing entity %s: %v", args.EntityID, err)
			c.String(http.StatusInternalServerError, fmt.Sprint(err))
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
