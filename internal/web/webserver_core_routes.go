// Package web provides the HTTP server and JSON API for go-bbdiversity
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/go-while/go-bbdiversity/internal/config"
	"github.com/go-while/go-bbdiversity/internal/models"
	"github.com/pkg/errors"
	"gopkg.in/guregu/null.v3"
)

// Store is the read side of the dataset the handlers need.
// *database.Store implements it.
type Store interface {
	SampleNames(ctx context.Context) ([]string, error)
	OTUFields(ctx context.Context) ([]string, error)
	Metadata(ctx context.Context, sampleID int64) (*models.SampleMetadata, error)
	WashFrequency(ctx context.Context, sampleID int64) (null.Float, error)
	SampleValues(ctx context.Context, sampleName string) (*models.SampleValues, error)
	OTUDescription(ctx context.Context, otuID int64) (models.OTUDescription, error)
	Ping(ctx context.Context) error
}

// WebServer represents the web server
type WebServer struct {
	Store     Store
	Router    *gin.Engine
	Config    *config.WebConfig
	StartTime time.Time // Track server start time for uptime calculations

	httpServer *http.Server
}

// TemplateData represents the data handed to the index page
type TemplateData struct {
	Title       string
	CurrentTime string
	AppVersion  string
}

// NewServer creates a new web server instance
func NewServer(store Store, webconfig *config.WebConfig) *WebServer {
	router := gin.New()
	router.Use(gin.Recovery())

	// Configure Gin to trust reverse proxy headers
	// Set trusted proxies for common reverse proxy setups (nginx, etc.)
	if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}); err != nil {
		log.Printf("[WEB]: Warning: failed to set trusted proxies: %v", err)
	}

	// Configure security headers based on SSL setup
	secureConfig := secure.Config{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}

	// Only add SSL-specific headers if SSL is enabled on the application itself
	// (not when running behind a reverse proxy like nginx with SSL)
	if webconfig.SSL {
		secureConfig.SSLRedirect = true
		secureConfig.STSSeconds = 31536000
		secureConfig.STSIncludeSubdomains = true
	}
	router.Use(secure.New(secureConfig))

	server := &WebServer{
		Store:     store,
		Router:    router,
		Config:    webconfig,
		StartTime: time.Now(),
	}

	if webconfig.AccessLog {
		router.Use(server.ApacheLogFormat())
	}
	// Add reverse proxy middleware for handling X-Forwarded headers
	router.Use(server.ReverseProxyMiddleware())

	server.httpServer = &http.Server{
		Addr:              ":" + strconv.Itoa(webconfig.ListenPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (s *WebServer) setupRoutes() {
	if s.Config.StaticDir != "" {
		if st, err := os.Stat(s.Config.StaticDir); err == nil && st.IsDir() {
			s.Router.Static("/static", s.Config.StaticDir)
		} else {
			log.Printf("[WEB]: No static directory at %s, /static disabled", s.Config.StaticDir)
		}
	}

	s.Router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	s.Router.GET("/healthz", s.healthz)

	s.Router.GET("/", s.homePage)

	// dataset API consumed by the dashboard page
	s.Router.GET("/names", s.listSampleNames)
	s.Router.GET("/otu", s.listOTUFields)
	s.Router.GET("/otu/:otu_id", s.getOTUDescription)
	s.Router.GET("/metadata/:sample", s.getSampleMetadata)
	s.Router.GET("/wfreq/:sample", s.getWashFrequency)
	s.Router.GET("/samples/:sample", s.getSampleValues)
}

// Start starts the web server with SSL support if configured.
// It blocks until the server stops and returns http.ErrServerClosed after Shutdown.
func (s *WebServer) Start() error {
	s.StartTime = time.Now()
	if s.Config.SSL {
		if s.Config.CertFile == "" || s.Config.KeyFile == "" {
			return errors.New("SSL enabled but cert_file or key_file not specified in config")
		}
		log.Printf("[WEB]: Starting HTTPS server on %s", s.httpServer.Addr)
		return s.httpServer.ListenAndServeTLS(s.Config.CertFile, s.Config.KeyFile)
	}
	log.Printf("[WEB]: Starting HTTP server on %s", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting requests and waits for running ones until ctx is done
func (s *WebServer) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ReverseProxyMiddleware handles X-Forwarded headers when running behind a reverse proxy
func (s *WebServer) ReverseProxyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Handle X-Forwarded-Proto to detect if the original request was HTTPS
		if proto := c.GetHeader("X-Forwarded-Proto"); proto == "https" {
			c.Request.URL.Scheme = "https"
		}

		// Handle X-Forwarded-Host to get the original host
		if host := c.GetHeader("X-Forwarded-Host"); host != "" {
			c.Request.Host = strings.TrimSpace(strings.Split(host, ",")[0])
		}

		c.Next()
	}
}

// ApacheLogFormat logs every request in combined log format
func (s *WebServer) ApacheLogFormat() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf(`%s - - [%s] "%s %s %s" %d %d "%s" "%s"`+"\n",
			param.ClientIP,
			param.TimeStamp.Format("02/Jan/2006:15:04:05 -0700"),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.BodySize,
			param.Request.Referer(),
			param.Request.UserAgent(),
		)
	})
}
