//go:build unix

package timer

import "golang.org/x/sys/unix"

func readUsage() Sample {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_SELF, &ru); err != nil {
		return Sample{}
	}
	user := float64(ru.Utime.Nano()) / 1e9
	sys := float64(ru.Stime.Nano()) / 1e9
	return Sample{
		CPU:            user + sys,
		User:           user,
		System:         sys,
		MaxResidentSet: int64(ru.Maxrss),
	}
}
