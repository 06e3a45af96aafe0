package constants

const (
	// Environment variables read outside kong. The CLI flags carry their
	// own env tags.
	EnvTasksDB     = "BLOOMUP_TASKS_DB"
	EnvTasksListen = "BLOOMUP_TASKS_LISTEN"
	EnvDebug       = "BLOOMUP_DEBUG"

	// Default values
	DefaultAPIURL      = "http://127.0.0.1:8000"
	DefaultListenAddr  = ":8000"
	DefaultTasksListen = ":15000"
	DefaultTimezone    = "Local" // Use system local timezone by default
	DefaultCacheSpec   = "file"
	DefaultDBFile      = "bloomup.db"
	DefaultTokenTTLH   = 24

	// Cache namespace
	CacheNamespace = "bloomup"
)
