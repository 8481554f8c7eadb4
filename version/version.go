package version

// Set at build time with -ldflags "-X github.com/thetatoken/hashchain/version.GitHash=..."
var (
	GitHash   = "unknown"
	Timestamp = "unknown"
	Version   = "0.1.0"
)
