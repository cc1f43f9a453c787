// Package version centralizes build identification for the service: the
// binary's build metadata plus a fingerprint of the bundled historical
// dataset, so a deployment can always be matched to the data it answers
// from.
package version

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"runtime"
)

// Populated at build time via -ldflags.
var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string `json:"version"`
	BuildDate string `json:"buildDate"`
	GitCommit string `json:"gitCommit"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// GetBuildInfo returns the binary's build metadata.
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   version,
		BuildDate: buildDate,
		GitCommit: gitCommit,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// DatasetFingerprint returns a short stable hash of the bundled dataset
// bytes. It changes exactly when the data shipped with the binary changes.
func DatasetFingerprint(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:8])
}
