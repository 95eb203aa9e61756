package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 10
	DBMaxIdleConns    = 2
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 30 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerWriteTimeout    = 30 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 15 * time.Second
)

// Backend ping timeout at startup
const PingTimeout = 5 * time.Second

// Background job intervals
const SessionCleanupInterval = time.Minute

// Mock-mode markers for synthesized provider credentials
const (
	MockTokenPrefix = "MOCK_TOKEN_"
	MockGUIDPrefix  = "MOCK_GUID_"
)
