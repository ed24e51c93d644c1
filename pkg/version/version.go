package version

// Version is the current basket release.
const Version = "0.4.0"

// BuildVersion returns the version string printed by `basket version`.
func BuildVersion() string {
	return "basket version " + Version
}

// APIVersion returns the bare version number reported by /health.
func APIVersion() string {
	return Version
}

// UserAgent is sent by the static-page sources.
func UserAgent() string {
	return "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36 basket/" + Version
}
