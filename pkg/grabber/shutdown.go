package grabber

import (
	"os/exec"
	"runtime"

	"mediagrab/pkg/logger"
)

// systemShutdown returns the action that powers the machine off, used when
// a job's settings requested shutdown after the queue drains.
func systemShutdown(log logger.Logger) func() {
	return func() {
		var cmd *exec.Cmd
		switch runtime.GOOS {
		case "windows":
			cmd = exec.Command("shutdown", "/s", "/t", "5")
		case "darwin":
			cmd = exec.Command("osascript", "-e", `tell app "System Events" to shut down`)
		default:
			cmd = exec.Command("shutdown", "-h", "now")
		}
		if err := cmd.Run(); err != nil {
			log.ErrorWithFields("system shutdown failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
}
