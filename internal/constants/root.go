package constants

import "time"

const (
	AppName            = "bloomup"
	Version            = "v0.3.0"
	DefaultConfigDir   = "~/.config/bloomup"
	DefaultKeyringUser = "database-connection"
	TokenKeyringUser   = "api-token"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// Notify constants
	NotifyMaxRetries       = 3
	NotifyRetryDelay       = 100 * time.Millisecond
	NotifierLockfileName   = "bloomup-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.bloomup"
	TrayAppExecutable      = "bloomup-tray"
	TraySecretHeader       = "X-Bloomup-Secret"

	// Habit defaults applied during normalization
	DefaultCategoryName = "General"
	DefaultCategoryID   = "general"
	DefaultHabitIcon    = "📚"
	DefaultHabitMinutes = 30
	DefaultHabitColor   = "#ede9ff"
)
