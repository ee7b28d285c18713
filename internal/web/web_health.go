package web

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-while/go-bbdiversity/internal/config"
	"github.com/go-while/go-bbdiversity/internal/models"
)

// healthz reports whether the dataset is reachable and how big it is
func (s *WebServer) healthz(c *gin.Context) {
	ctx := c.Request.Context()
	health := models.Health{
		Status:  "ok",
		Uptime:  time.Since(s.StartTime).Round(time.Second).String(),
		Version: config.AppVersion,
	}

	if err := s.Store.Ping(ctx); err != nil {
		log.Printf("[WEB]: healthz: dataset ping failed: %v", err)
		health.Status = "unavailable"
		health.Error = http.StatusText(http.StatusServiceUnavailable)
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}

	names, err := s.Store.SampleNames(ctx)
	if err != nil {
		s.respondError(c, err)
		return
	}
	fields, err := s.Store.OTUFields(ctx)
	if err != nil {
		s.respondError(c, err)
		return
	}
	health.Samples = len(names)
	health.OTUFields = len(fields)
	c.JSON(http.StatusOK, health)
}
