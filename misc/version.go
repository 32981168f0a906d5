// Package misc keeps build identification helpers out of the way of
// everything else - they are needed by several packages and must not drag
// additional dependencies with them.
package misc

import (
	"runtime/debug"
	"sync"
)

const appName = "svp"

// GetAppName returns short program name used for logs, temporary files and
// report naming.
func GetAppName() string {
	return appName
}

var buildInfo = sync.OnceValue(func() (res struct {
	version string
	hash    string
}) {
	res.version = "unknown"
	res.hash = "unknown"

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	if len(bi.Main.Version) > 0 && bi.Main.Version != "(devel)" {
		res.version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" && len(s.Value) >= 12 {
			res.hash = s.Value[:12]
		}
	}
	return
})

// GetVersion returns program version as recorded by the module system.
func GetVersion() string {
	return buildInfo().version
}

// GetGitHash returns short hash of the commit program was built from.
func GetGitHash() string {
	return buildInfo().hash
}
