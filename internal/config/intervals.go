package config

import "time"

// Worker intervals
const (
	// RedisBackupInterval defines how often dirty session documents are saved to Redis
	RedisBackupInterval = 10 * time.Second

	// PostgresBackupInterval defines how often to save session snapshots to PostgreSQL
	PostgresBackupInterval = 60 * time.Second

	// SessionIdleTimeout defines after how long without events a session is disposed
	SessionIdleTimeout = 2 * time.Hour

	// SessionSweepInterval defines how often idle sessions are looked for
	SessionSweepInterval = 5 * time.Minute
)
