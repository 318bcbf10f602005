// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

const (
	// App is the canonical application identifier used for filesystem paths and CLI branding.
	App = "vidra"

	// Version is the current application semantic version string.
	Version = "0.3.0"

	// UserAgent is the default HTTP User-Agent string used for thumbnail downloads.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// Repository is the project home, used for release lookups.
	Repository = "https://github.com/vidra-player/vidra"

	// ManualURL points to the upstream mpv manual, opened from the help screen.
	ManualURL = "https://mpv.io/manual/stable/"
)
