// Package version reports the build of the running binary.
package version

import (
	"fmt"
	"runtime/debug"
)

// Module is the path of the data portal module.
const Module = "github.com/anoideaopen/dataportal"

// unknown is reported when no build information is available.
const unknown = "(devel)"

// BuildInfo returns the build information
func BuildInfo() (*debug.BuildInfo, error) {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return nil, fmt.Errorf("fetching build info failed")
	}

	if bi == nil {
		return nil, fmt.Errorf("build information is empty")
	}

	return bi, nil
}

// Version returns the version of the data portal module linked into the
// running binary, or "(devel)" when it cannot be determined.
func Version() string {
	bi, err := BuildInfo()
	if err != nil {
		return unknown
	}
	return moduleVersion(bi)
}

func moduleVersion(bi *debug.BuildInfo) string {
	if bi.Main.Path == Module && bi.Main.Version != "" {
		return bi.Main.Version
	}
	for _, dep := range bi.Deps {
		if dep.Path != Module {
			continue
		}
		if dep.Replace != nil && dep.Replace.Version != "" {
			return dep.Replace.Version
		}
		if dep.Version != "" {
			return dep.Version
		}
	}
	return unknown
}
