package goscidb

import (
	"runtime"
	"time"
)

var isWindows = runtime.GOOS == "windows"

func durationMin(d1, d2 time.Duration) time.Duration {
	if d1-d2 < 0 {
		return d1
	}
	return d2
}
