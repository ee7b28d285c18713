package web

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-while/go-bbdiversity/internal/database"
	"github.com/pkg/errors"
)

// statusForError maps store errors to HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, database.ErrInvalidSampleName):
		return http.StatusBadRequest
	case errors.Is(err, database.ErrNotFound), errors.Is(err, database.ErrUnknownSample):
		return http.StatusNotFound
	case errors.Is(err, database.ErrAmbiguous):
		return http.StatusConflict
	case errors.Is(err, database.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError sends err as a JSON error object.
// Server side failures are logged and answered with the bare status text.
func (s *WebServer) respondError(c *gin.Context, err error) {
	status := statusForError(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[WEB]: %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(status, gin.H{"error": http.StatusText(status)})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// sampleIDParam parses the subject id out of the :sample route parameter.
// Returns false after sending a 400 if the name is malformed.
func (s *WebServer) sampleIDParam(c *gin.Context) (int64, bool) {
	sampleID, err := database.ParseSampleID(c.Param("sample"))
	if err != nil {
		s.respondError(c, err)
		return 0, false
	}
	return sampleID, true
}
