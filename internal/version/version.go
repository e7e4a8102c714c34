package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

const devVersion = "0.1.0-dev"

var (
	// AppName is used in user agents and the --version output
	AppName = "dirsync"

	// Version is overridden with -ldflags "-X .../version.Version=x.y.z"
	Version = devVersion

	// Revision is the git commit the binary was built from
	Revision = "HEAD"

	// BuildDate is the commit or build timestamp, empty when unknown
	BuildDate = ""
)

// fill replaces unset values with the module version and vcs settings
func fill(moduleVersion string, vcs map[string]string) {
	if Version == devVersion || Version == "" {
		if moduleVersion != "" && moduleVersion != "(devel)" {
			Version = strings.TrimPrefix(moduleVersion, "v")
		}
	}

	if rev := vcs["vcs.revision"]; rev != "" && (Revision == "HEAD" || Revision == "") {
		if len(rev) > 12 {
			rev = rev[:12]
		}
		if vcs["vcs.modified"] == "true" {
			rev += "-dirty"
		}
		Revision = rev
	}

	if BuildDate == "" {
		BuildDate = vcs["vcs.time"]
	}
}

// Short returns `0.1.0 (5e23a4)`
func Short() string {
	return fmt.Sprintf("%s (%s)", Version, Revision)
}

// Detailed returns `0.1.0 (5e23a4; go1.23.6; linux/amd64; 2025-01-01T00:00:00Z)`
func Detailed() string {
	return fmt.Sprintf("%s (%s; %s; %s/%s; %s)", Version, Revision, runtime.Version(), runtime.GOOS, runtime.GOARCH, BuildDate)
}

// UserAgent is sent by the sync client on every request
func UserAgent() string {
	return fmt.Sprintf("%s/%s", AppName, Version)
}

func init() {
	info, ok := debug.ReadBuildInfo()
	if !ok || info == nil {
		return
	}

	vcs := make(map[string]string, len(info.Settings))
	for _, s := range info.Settings {
		vcs[s.Key] = s.Value
	}
	fill(info.Main.Version, vcs)
}
