package version

import (
	"runtime"
	"runtime/debug"
)

// BuildVersion and GitSHA are intended to be populated at build time via
// -ldflags; GitSHA falls back to the VCS revision stamped by the toolchain.
var (
	BuildVersion = "dev"
	GitSHA       = ""
)

type Info struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	GitSHA    string `json:"git_sha,omitempty"`
	GoVersion string `json:"go_version"`
	GOOS      string `json:"go_os"`
	GOARCH    string `json:"go_arch"`
}

func Get(service string) Info {
	gitSHA := GitSHA
	if gitSHA == "" {
		if info, ok := debug.ReadBuildInfo(); ok {
			for _, s := range info.Settings {
				if s.Key == "vcs.revision" {
					gitSHA = s.Value
					break
				}
			}
		}
	}

	return Info{
		Service:   service,
		Version:   BuildVersion,
		GitSHA:    gitSHA,
		GoVersion: runtime.Version(),
		GOOS:      runtime.GOOS,
		GOARCH:    runtime.GOARCH,
	}
}
