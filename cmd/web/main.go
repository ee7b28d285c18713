// Web server for the go-bbdiversity dashboard and JSON API
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	prof "github.com/go-while/go-cpu-mem-profiler"
	"github.com/go-while/go-bbdiversity/internal/config"
	"github.com/go-while/go-bbdiversity/internal/database"
	"github.com/go-while/go-bbdiversity/internal/web"
)

var (
	// command-line flags
	configFile   string
	webport      int
	webssl       bool
	webcertFile  string
	webkeyFile   string
	dbPath       string
	watchDB      bool
	strictErrors bool
	pprofAddr    string
)

var appVersion = "-unset-"

var Prof *prof.Profiler

const shutdownTimeout = 10 * time.Second

func main() {
	config.AppVersion = appVersion

	flag.StringVar(&configFile, "config", "", "YAML configuration file (optional, flags override it)")
	flag.IntVar(&webport, "webport", 0, "Web server port (default: 11980)")
	flag.BoolVar(&webssl, "webssl", false, "Enable SSL")
	flag.StringVar(&webcertFile, "websslcert", "", "SSL certificate file (/path/to/fullchain.pem)")
	flag.StringVar(&webkeyFile, "websslkey", "", "SSL key file (/path/to/privkey.pem)")
	flag.StringVar(&dbPath, "db", "", "Path to the biodiversity SQLite dataset (default: "+config.DefaultDatabasePath+")")
	flag.BoolVar(&watchDB, "watch", false, "Reopen the dataset when the file is replaced (default: false)")
	flag.BoolVar(&strictErrors, "strict-errors", false, "Answer unknown samples on /samples with 404 instead of a JSON string (default: false)")
	flag.StringVar(&pprofAddr, "pprof", "", "Serve pprof on this address, e.g. 127.0.0.1:51111 (default: off)")
	flag.Parse()
	log.Printf("Starting go-bbdiversity web server (version: %s)", appVersion)

	mainConfig := config.NewDefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			log.Fatalf("[WEB]: Error loading config: %v", err)
		}
		mainConfig = loaded
	}

	// Override config with command-line flags if provided
	webConfig := mainConfig.Web
	if webport > 0 {
		webConfig.ListenPort = webport
		log.Printf("[WEB]: Overriding listen port with command-line flag: %d", webConfig.ListenPort)
	}
	if webssl {
		webConfig.SSL = true
		log.Printf("[WEB]: SSL enabled via command-line flag")
	}
	if webcertFile != "" {
		webConfig.CertFile = webcertFile
	}
	if webkeyFile != "" {
		webConfig.KeyFile = webkeyFile
	}
	if strictErrors {
		webConfig.StrictErrors = true
	}
	dbConfig := mainConfig.Database
	if dbPath != "" {
		dbConfig.Path = dbPath
	}
	if watchDB {
		dbConfig.Watch = true
	}
	if err := mainConfig.Validate(); err != nil {
		log.Fatalf("[WEB]: Invalid configuration: %v", err)
	}
	log.Printf("[WEB]: Using WEB configuration: %#v", webConfig)
	log.Printf("[WEB]: Using DATABASE configuration: %#v", dbConfig)

	if pprofAddr != "" {
		Prof = prof.NewProf()
		go Prof.PprofWeb(pprofAddr)
		log.Printf("[WEB]: pprof listening on %s", pprofAddr)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A store that can not be opened is fatal: there is nothing to serve
	store, err := database.Open(ctx, dbConfig)
	if err != nil {
		log.Fatalf("[WEB]: Failed to open dataset: %v", err)
	}

	if dbConfig.Watch {
		go func() {
			if err := database.Watch(ctx, store); err != nil {
				log.Printf("[WEB]: Dataset watcher stopped: %v", err)
			}
		}()
	}

	gin.SetMode(gin.ReleaseMode)
	server := web.NewServer(store, webConfig)

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start web server in goroutine to make it non-blocking
	webServerErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			webServerErrChan <- err
		}
	}()

	log.Printf("[WEB]: Server started successfully. Press Ctrl+C to gracefully shutdown...")

	// Wait for either shutdown signal or server error
	exitCode := 0
	select {
	case <-sigChan:
		log.Printf("[WEB]: Received shutdown signal, initiating graceful shutdown...")
	case err := <-webServerErrChan:
		log.Printf("[WEB]: Failed to start web server: %v", err)
		exitCode = 1
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WEB]: Error stopping web server: %v", err)
	}
	shutdownCancel()

	// stop the watcher before the store goes away
	cancel()
	if err := store.Close(); err != nil {
		log.Printf("[WEB]: Error closing dataset: %v", err)
	}
	log.Printf("[WEB]: Shutdown complete")
	os.Exit(exitCode)
}
