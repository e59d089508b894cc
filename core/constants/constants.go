package constants

import "time"

// Database
const (
	DatabaseSSLMode         = "disable"
	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 5
	DatabaseConnMaxLifetime = 30 // minutes
)

// External calls
const (
	DefaultTimeout = 30 * time.Second
)

// Calendar sync
const (
	SyncWindowDays    = 90
	SyncLockTTL       = 5 * time.Minute
	TokenExpiryBuffer = 5 * time.Minute
	OAuthStateTTL     = 10 * time.Minute
	// SyncRecheckEvery is how many remote mutations an export pass performs
	// between re-reads of the hut's sync_enabled flag.
	SyncRecheckEvery = 20
)

// Sync directions for a hut's calendar configuration.
const (
	SyncDirectionBoth       = "both"
	SyncDirectionFromGoogle = "from_google"
	SyncDirectionToGoogle   = "to_google"
)
