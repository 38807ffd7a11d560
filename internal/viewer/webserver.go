package viewer

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/cortical-data/eegview/internal/config"
	"github.com/cortical-data/eegview/internal/eeg"
)

//go:embed viewer.html
var ViewerHTML embed.FS

// WebServer handles the HTTP interface for browsing a loaded recording.
// It serves the embedded viewer page, JSON data endpoints, and
// server-rendered chart snapshots.
type WebServer struct {
	address   string
	recording *eeg.Recording
	compare   *eeg.Recording
	config    *config.ViewerConfig
	server    *http.Server
	startTime time.Time
}

// WebServerConfig holds the configuration for the viewer web server
type WebServerConfig struct {
	Address   string
	Recording *eeg.Recording
	Compare   *eeg.Recording
	Config    *config.ViewerConfig
}

// NewWebServer creates a new web server instance with the given recordings
func NewWebServer(cfg WebServerConfig) *WebServer {
	viewerCfg := cfg.Config
	if viewerCfg == nil {
		viewerCfg = config.EmptyViewerConfig()
	}

	ws := &WebServer{
		address:   cfg.Address,
		recording: cfg.Recording,
		compare:   cfg.Compare,
		config:    viewerCfg,
		startTime: time.Now(),
	}

	ws.server = &http.Server{
		Addr:    ws.address,
		Handler: LoggingMiddleware(ws.setupRoutes()),
	}

	return ws
}

// setupRoutes configures the HTTP routes for the web server
func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", ws.handleIndex)
	mux.HandleFunc("/healthz", ws.handleHealth)
	mux.HandleFunc("/api/recording", ws.handleRecording)
	mux.HandleFunc("/api/window", ws.handleWindow)
	mux.HandleFunc("/api/bads", ws.handleBads)
	mux.HandleFunc("/api/layout", ws.handleLayout)
	mux.HandleFunc("/charts/window", ws.handleWindowChart)
	mux.HandleFunc("/charts/layout", ws.handleLayoutChart)

	return mux
}

// Start begins the web server and blocks until the context is cancelled
func (ws *WebServer) Start(ctx context.Context) error {
	go func() {
		log.Printf("Starting viewer HTTP server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Viewer HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()

	log.Println("shutting down viewer HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Viewer HTTP server shutdown error: %v", err)
		ws.server.Close()
	}

	log.Printf("Viewer HTTP server routine stopped")
	return nil
}

// Close shuts down the web server immediately
func (ws *WebServer) Close() error {
	return ws.server.Close()
}

// handleHealth handles the health check endpoint
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status": "ok", "service": "eegview", "timestamp": "%s"}`, time.Now().UTC().Format(time.RFC3339))
}

// handleIndex serves the embedded viewer page
func (ws *WebServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html")

	comparisonStatus := "not loaded"
	if ws.compare != nil {
		comparisonStatus = "loaded"
	}

	// Load and parse the HTML template from embedded filesystem
	tmpl, err := template.ParseFS(ViewerHTML, "viewer.html")
	if err != nil {
		http.Error(w, "Error loading template: "+err.Error(), http.StatusInternalServerError)
		return
	}

	// Template data
	data := struct {
		PageTitle        string
		AssetsHost       string
		HTTPAddress      string
		SessionPath      string
		NumChannels      int
		SampleRate       float64
		Duration         string
		ComparisonStatus string
		Uptime           string
	}{
		PageTitle:        ws.config.GetPageTitle(),
		AssetsHost:       ws.config.GetAssetsHost(),
		HTTPAddress:      ws.address,
		SessionPath:      ws.recording.Path,
		NumChannels:      ws.recording.NumChannels(),
		SampleRate:       ws.recording.SampleRate,
		Duration:         ws.recording.Duration().Round(time.Second).String(),
		ComparisonStatus: comparisonStatus,
		Uptime:           time.Since(ws.startTime).Round(time.Second).String(),
	}

	if err := tmpl.Execute(w, data); err != nil {
		http.Error(w, "Error executing template: "+err.Error(), http.StatusInternalServerError)
		return
	}
}
