package settings

import "time"

// Defaults applied when the config file and environment leave a value unset.
const (
	// DefaultPort is the HTTP listen port.
	DefaultPort = 5000
	// DefaultDailyLimit is the number of Google Maps calls allowed per day.
	DefaultDailyLimit = 25
	// DefaultTimeZone names the zone whose midnight resets the daily quota.
	DefaultTimeZone = "Local"
	// DefaultSearchRadiusMeters is the nearby-search radius.
	DefaultSearchRadiusMeters = 5000
	// DefaultMaxResults caps the number of listings shown per search.
	DefaultMaxResults = 5
	// DefaultSearchRatePerMinute throttles form submissions per client IP (0 means unlimited).
	DefaultSearchRatePerMinute = 30
	// DefaultCacheTTL is how long cached place details stay fresh.
	DefaultCacheTTL = 24 * time.Hour
	// DefaultLogLevel is the logrus level name.
	DefaultLogLevel = "info"
	// DefaultLogMaxSizeMB is the rotation threshold for the log file.
	DefaultLogMaxSizeMB = 10
	// DefaultLogMaxBackups is the number of rotated log files kept.
	DefaultLogMaxBackups = 5
	// DefaultMapsBaseURL is the Google Maps web services root.
	DefaultMapsBaseURL = "https://maps.googleapis.com/maps/api"
	// NotAvailable fills listing fields the upstream did not return.
	NotAvailable = "N/A"
)

// DetailFields are the place-detail fields requested for each listing.
var DetailFields = []string{"name", "formatted_phone_number", "formatted_address", "website"}
