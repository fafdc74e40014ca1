package obs

import (
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	buildInfoOnce sync.Once
	buildInfo     = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "jobtrack_build_info",
			Help: "Always 1; labels identify the running jobtrack binary.",
		},
		[]string{"version", "commit", "goversion"},
	)
)

// InitBuildInfo publishes jobtrack_build_info for this binary. Only the
// latest call's labels are exported.
func InitBuildInfo(version, commit string) {
	buildInfoOnce.Do(func() {
		prometheus.MustRegister(buildInfo)
	})
	buildInfo.Reset()
	buildInfo.WithLabelValues(version, resolveCommit(commit), runtime.Version()).Set(1)
}

// resolveCommit falls back to the VCS revision stamped by the toolchain when
// no commit was injected at link time.
func resolveCommit(commit string) string {
	if commit != "" && commit != "dev" {
		return commit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && s.Value != "" {
				if len(s.Value) > 12 {
					return s.Value[:12]
				}
				return s.Value
			}
		}
	}
	if commit == "" {
		return "unknown"
	}
	return commit
}
