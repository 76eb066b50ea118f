package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"github.com/sbomlab/sbomdiff/internal/config"
	"github.com/sbomlab/sbomdiff/internal/server"
)

// Config holds all environment configuration
type Config struct {
	// Server
	Port string

	// SBOM paths in uploaded manifests resolve against this directory
	ManifestRoot string

	// Optional engine config file (rules, concurrency, ground truth)
	ConfigPath string

	// OpenAI API key for AI triage; empty disables triage
	OpenAIAPIKey string

	// How many low-agreement projects to triage per run
	TriageLimit int

	engine *config.Config
}

func loadConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		ManifestRoot: getEnv("SBOMDIFF_MANIFEST_ROOT", "."),
		ConfigPath:   getEnv("SBOMDIFF_CONFIG", ""),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		TriageLimit:  5,
	}

	if raw := os.Getenv("SBOMDIFF_TRIAGE_LIMIT"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("SBOMDIFF_TRIAGE_LIMIT must be an integer: %w", err)
		}
		cfg.TriageLimit = limit
	}

	if _, err := os.Stat(cfg.ManifestRoot); err != nil {
		return nil, fmt.Errorf("manifest root %q is not accessible: %w", cfg.ManifestRoot, err)
	}

	engine, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return nil, err
	}
	cfg.engine = engine

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// WebSocket upgrader
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins for demo
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Client represents a connected WebSocket client
type Client struct {
	conn   *websocket.Conn
	config *Config
	send   chan server.Message
	// Track if a batch is running (one at a time)
	runCtx    context.Context
	runCancel context.CancelFunc
}

func newClient(conn *websocket.Conn, config *Config) *Client {
	return &Client{
		conn:   conn,
		config: config,
		send:   make(chan server.Message, 256),
	}
}

func (c *Client) SendMessage(msg server.Message) {
	select {
	case c.send <- msg:
	default:
		// Channel full, drop message
		log.Println("Warning: message channel full, dropping message")
	}
}

func (c *Client) SendLog(message, level string) {
	c.SendMessage(server.NewLogMessage(message, level))
}

func (c *Client) SendProgress(percent int, stage, message string) {
	c.SendMessage(server.NewProgressMessage(percent, stage, message))
}

func (c *Client) SendError(message string, err error) {
	c.SendMessage(server.NewErrorMessage(message, err))
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(msg); err != nil {
				log.Printf("Error writing message: %v", err)
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		// Cancel any running batch
		if c.runCancel != nil {
			c.runCancel()
		}
		c.conn.Close()
	}()

	for {
		var msg server.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}

		switch msg.Type {
		case server.TypeRun:
			c.handleRun(msg)
		case server.TypePing:
			// Respond with pong
			c.SendMessage(server.Message{Type: "pong"})
		default:
			c.SendError(fmt.Sprintf("Unknown message type: %s", msg.Type), nil)
		}
	}
}

func (c *Client) handleRun(msg server.Message) {
	// Check if a batch is already running
	if c.runCtx != nil && c.runCtx.Err() == nil {
		c.SendError("Batch already in progress", nil)
		return
	}

	// Parse payload
	payload, err := server.ParseRunPayload(msg)
	if err != nil {
		c.SendError("Failed to parse run request", err)
		return
	}

	// Create cancellable context for this batch
	c.runCtx, c.runCancel = context.WithCancel(context.Background())
	defer func() {
		c.runCtx = nil
		c.runCancel = nil
	}()

	pipeline := server.NewPipeline(c.config.engine, c.config.ManifestRoot,
		c.config.OpenAIAPIKey, c.config.TriageLimit, c)

	if err := pipeline.Run(c.runCtx, payload.Manifest); err != nil {
		if c.runCtx.Err() == context.Canceled {
			c.SendLog("Batch cancelled", "warning")
		} else {
			c.SendError("Batch failed", err)
		}
		return
	}

	c.SendMessage(server.NewCompleteMessage(true, "Batch complete"))
}

func serveWs(config *Config, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade connection: %v", err)
		return
	}

	client := newClient(conn, config)

	// Start goroutines for reading and writing
	go client.writePump()
	go client.readPump()
}

func main() {
	config, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Health check endpoint
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	// WebSocket endpoint
	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveWs(config, w, r)
	})

	log.Printf("Server starting on port %s", config.Port)
	if err := http.ListenAndServe(":"+config.Port, nil); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
