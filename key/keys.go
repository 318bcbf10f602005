// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Playback Engine - these keys configure the mpv instance owned by the playback session.
const (
	PlayerBinary           = "player.binary"
	PlayerVolume           = "player.volume"
	PlayerHwdec            = "player.hwdec"
	PlayerSeekStep         = "player.seek_step"
	PlayerVolumeStep       = "player.volume_step"
	PlayerAskResume        = "player.ask_resume"
	PlayerResumeThreshold  = "player.resume_threshold"
	PlayerNearEndThreshold = "player.near_end_threshold"
)

// Stream Extraction - these keys govern the yt-dlp subprocess used for network URLs.
const (
	ExtractBinary  = "extract.binary"
	ExtractTimeout = "extract.timeout"
)

// Thumbnails - these keys control the background metadata and thumbnail fetcher.
const (
	ThumbnailsEnabled         = "thumbnails.enabled"
	ThumbnailsDebounce        = "thumbnails.debounce_ms"
	ThumbnailsDownloadTimeout = "thumbnails.download_timeout"
	ThumbnailsGrace           = "thumbnails.grace_ms"
	ThumbnailsTTL             = "thumbnails.ttl_days"
)

// Network - these keys tune outbound HTTP requests.
const (
	NetworkTLSFingerprint = "network.tls_fingerprint"
)

// Terminal User Interface (TUI) - these keys define the library view styling.
const (
	UITheme    = "ui.theme"
	UIShowURLs = "ui.show_urls"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these settings govern the non-TUI application behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)
