// Package misc keeps build time information.
package misc

// Values below are set at link time with -ldflags "-X cssnitro/misc.version=..."
var (
	appName = "cssnitro"
	version = "dev"
	gitHash = "unknown"
)

func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}
