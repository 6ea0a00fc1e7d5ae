package build

var (
	// Version of the application (set via ldflags).
	Version = "dev"

	// Number of the build (set via ldflags).
	Number = "local"

	// GitCommit hash (set via ldflags).
	GitCommit = "unknown"

	// BuildTime timestamp (set via ldflags).
	BuildTime = "unknown"
)

// Info returns the build information.
func Info() map[string]string {
	return map[string]string{
		"version":    Version,
		"number":     Number,
		"git_commit": GitCommit,
		"build_time": BuildTime,
	}
}
