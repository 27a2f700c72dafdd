package constants

import "time"

// PageType identifies a dashboard page for targeted refreshes.
type PageType string

const (
	AppName            = "drivewise"
	DefaultKeyringUser = "database-connection"
	TokenKeyringUser   = "api-token"
	DefaultConfigPath  = "~/.config/drivewise/drivewise.db"
	DefaultAPIBaseURL  = "http://localhost:8080/api/v1"
	Version            = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// Cache and sync timing
	CacheTTL          = 30 * time.Minute
	ResyncInterval    = 2 * time.Minute
	ChatTimeout       = 3 * time.Second
	LoginSettleDelay  = 500 * time.Millisecond
	AuthCheckInterval = time.Second

	// Log rotation
	LogMaxSizeMB  = 10
	LogMaxBackups = 3
	LogMaxAgeDays = 28

	// AssumeEmptyOnProbeFailure is the availability probe outcome when the
	// probe itself fails unexpectedly.
	AssumeEmptyOnProbeFailure = true

	// Local storage keys
	StorageKeyToken       = "auth_token"
	StorageKeyWellnessLog = "wellness_logs"
	StorageKeyAPIBaseURL  = "api_base_url"
	StorageKeyTimezone    = "timezone"

	// Token store backends
	TokenStoreKeyring = "keyring"
	TokenStoreStorage = "storage"

	// Pages
	PageDashboard PageType = "dashboard"
	PageAnalytics PageType = "analytics"
	PageWellness  PageType = "wellness"
	PageFinancial PageType = "financial"
	PageEarnings  PageType = "earnings"

	// Notify constants
	NotifyRetryDelay       = 100 * time.Millisecond
	NotifierLockfileName   = "drivewise-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.drivewise"
	TrayExecutablePrefix   = "drivewise-tray"

	DefaultTimezone = "Local"

	// MaxBackups is how many storage snapshots are kept.
	MaxBackups = 7
)
