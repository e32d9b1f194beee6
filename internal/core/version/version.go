// Package version reports the build of the running binary
package version

// BuildInfo holds version information about the service build
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// Info returns the build information
// set at build time with
// -ldflags "-X transitplan/internal/core/version.version=v0.1.0 -X transitplan/internal/core/version.commit=abcd"
func Info() BuildInfo {
	return BuildInfo{
		Service: service,
		Version: version,
		Commit:  commit,
		Date:    date,
	}
}

// SetService names the binary reporting the build
func SetService(name string) {
	if name != "" {
		service = name
	}
}

var (
	service = "transitplan"
	version = "dev"
	commit  = "none"
	date    = "unknown"
)
