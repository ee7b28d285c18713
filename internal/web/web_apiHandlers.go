package web

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-while/go-bbdiversity/internal/database"
	"github.com/go-while/go-bbdiversity/internal/models"
	"github.com/pkg/errors"
)

// listSampleNames handles "/names"
func (s *WebServer) listSampleNames(c *gin.Context) {
	names, err := s.Store.SampleNames(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, names)
}

// listOTUFields handles "/otu"
func (s *WebServer) listOTUFields(c *gin.Context) {
	fields, err := s.Store.OTUFields(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fields)
}

// getOTUDescription handles "/otu/:otu_id"
func (s *WebServer) getOTUDescription(c *gin.Context) {
	otuID, err := strconv.ParseInt(c.Param("otu_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid otu id"})
		return
	}
	desc, err := s.Store.OTUDescription(c.Request.Context(), otuID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, desc)
}

// getSampleMetadata handles "/metadata/:sample"
func (s *WebServer) getSampleMetadata(c *gin.Context) {
	sampleID, ok := s.sampleIDParam(c)
	if !ok {
		return // Error response already sent by sampleIDParam
	}
	md, err := s.Store.Metadata(c.Request.Context(), sampleID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, md)
}

// getWashFrequency handles "/wfreq/:sample"; a NULL WFREQ is served as null
func (s *WebServer) getWashFrequency(c *gin.Context) {
	sampleID, ok := s.sampleIDParam(c)
	if !ok {
		return // Error response already sent by sampleIDParam
	}
	wfreq, err := s.Store.WashFrequency(c.Request.Context(), sampleID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wfreq)
}

// getSampleValues handles "/samples/:sample".
// An unknown sample is answered with the dashboard's error string unless
// strict errors are configured.
func (s *WebServer) getSampleValues(c *gin.Context) {
	sampleName := c.Param("sample")
	sv, err := s.Store.SampleValues(c.Request.Context(), sampleName)
	if errors.Is(err, database.ErrUnknownSample) {
		msg := fmt.Sprintf("Error Sample: %s not found!", sampleName)
		if s.Config.StrictErrors {
			c.JSON(http.StatusNotFound, gin.H{"error": msg})
			return
		}
		c.JSON(http.StatusOK, msg)
		return
	}
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, []*models.SampleValues{sv})
}
