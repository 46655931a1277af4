package version

var (
	// Version is the semantic version (injected at build time).
	Version = "dev"
	// Commit is the git commit SHA (injected at build time).
	Commit = "unknown"
	// BuildDate is the build timestamp (injected at build time).
	BuildDate = "unknown"
)

// Product is the name reported in the User-Agent header.
const Product = "volume-backup-client"

// Info returns formatted version information.
func Info() string {
	return Version + " (" + Commit + ", built " + BuildDate + ")"
}

// UserAgent returns the User-Agent value sent with every API request.
func UserAgent() string {
	return Product + "/" + Version
}
