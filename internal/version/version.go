// Package version carries build metadata set via -ldflags.
package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// Info is the JSON shape served by the version endpoint.
type Info struct {
	Version   string `json:"version"`
	GitSHA    string `json:"git_sha"`
	BuildTime string `json:"build_time"`
	Model     string `json:"model"`
}

// Current returns the build metadata together with the classifier model.
func Current(model string) Info {
	return Info{Version: Version, GitSHA: GitSHA, BuildTime: BuildTime, Model: model}
}

// String formats the metadata for --version output.
func String() string {
	return fmt.Sprintf("drawin %s (%s, built %s)", Version, GitSHA, BuildTime)
}
