//go:build !unix

package timer

import "time"

var processStart = time.Now()

// readUsage falls back to elapsed wall time where rusage is not available.
func readUsage() Sample {
	elapsed := time.Since(processStart).Seconds()
	return Sample{CPU: elapsed, User: elapsed}
}
