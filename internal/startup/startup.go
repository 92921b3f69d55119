// Package startup holds build information and the startup/shutdown logging
// helpers used by main.
package startup

import (
	"runtime"
	"time"

	"github.com/gorilla/mux"

	"github.com/apadua/MeTransfer/internal/logging"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information.
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// LogBanner prints the startup banner with build and system information.
func LogBanner() {
	logging.Info("============================================================")
	logging.Info("MeTransfer %s (%s) built %s", Version, Commit, BuildTime)
	logging.Info("%s %s/%s, %d CPU(s)", GoVersion, runtime.GOOS, runtime.GOARCH, runtime.NumCPU())
	logging.Info("============================================================")
}

// LogHTTPRoutes walks the router and logs every registered route.
func LogHTTPRoutes(router *mux.Router) {
	logging.Info("------------------------------------------------------------")
	logging.Info("ROUTES")
	logging.Info("------------------------------------------------------------")
	_ = router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		tmpl, err := route.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, err := route.GetMethods()
		if err != nil {
			logging.Info("  ALL %s", tmpl)
			return nil
		}
		for _, m := range methods {
			logging.Info("  %-6s %s", m, tmpl)
		}
		return nil
	})
}

// LogServerStarted reports that the listener is up.
func LogServerStarted(port string, elapsed time.Duration) {
	logging.Info("------------------------------------------------------------")
	logging.Info("Listening on :%s (started in %s)", port, elapsed.Round(time.Millisecond))
	logging.Info("------------------------------------------------------------")
}

// LogShutdownInitiated reports the start of graceful shutdown.
func LogShutdownInitiated(signal string) {
	logging.Info("Received %s, shutting down gracefully...", signal)
}

// LogShutdownStep reports one shutdown stage.
func LogShutdownStep(step string) {
	logging.Info("  %s...", step)
}

// LogShutdownComplete reports the end of shutdown.
func LogShutdownComplete() {
	logging.Info("Shutdown complete")
}
