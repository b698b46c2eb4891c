// Package buildinfo reports which canvasport build produced a bundle.
//
// Release builds stamp the variables with ldflags:
//
//	go build -ldflags "-X github.com/matzehuels/canvasport/pkg/buildinfo.Version=v1.0.0 \
//	    -X github.com/matzehuels/canvasport/pkg/buildinfo.Commit=$(git rev-parse HEAD) \
//	    -X github.com/matzehuels/canvasport/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Unstamped builds fall back to the VCS settings recorded by the Go toolchain.
package buildinfo

import (
	"fmt"
	"runtime/debug"
	"sync"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var fillOnce sync.Once

// fill copies vcs.revision and vcs.time into Commit and Date when ldflags
// left them at their defaults.
func fill() {
	fillOnce.Do(func() {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			return
		}
		if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			Version = info.Main.Version
		}
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && Commit == "none":
				Commit = s.Value
			case s.Key == "vcs.time" && Date == "unknown":
				Date = s.Value
			}
		}
	})
}

// Template is the cobra version template.
func Template() string {
	fill()
	return fmt.Sprintf("{{.Name}} %s (commit %s, built %s)\n", Version, shortCommit(), Date)
}

// Generator identifies this build in bundle metadata, e.g. "canvasport/v1.2.3".
func Generator() string {
	fill()
	return "canvasport/" + Version
}

func shortCommit() string {
	if len(Commit) > 12 {
		return Commit[:12]
	}
	return Commit
}
