package server

import (
	"time"
)

// Config holds HTTP server settings
type Config struct {
	// ListenAddr is the host:port to listen on
	ListenAddr string
	// AllowedOrigins lists the browser origins allowed by CORS
	AllowedOrigins []string
	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration
	// ReadTimeout and WriteTimeout apply to every request
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	// MaxBodyBytes caps request bodies
	MaxBodyBytes int64
}

// DefaultConfig returns the default server settings
func DefaultConfig() Config {
	return Config{
		ListenAddr:      ":8080",
		AllowedOrigins:  []string{"*"},
		ShutdownTimeout: 10 * time.Second,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		MaxBodyBytes:    16 << 10,
	}
}
