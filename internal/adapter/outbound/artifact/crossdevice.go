package artifact

import (
	"errors"
	"os"
	"syscall"
)

// isCrossDevice reports whether err is the EXDEV rename failure that occurs
// when the temp directory and destination live on different filesystems,
// mirroring loader.rs's copy_to fallback.
func isCrossDevice(err error) bool {
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) {
		return false
	}
	errno, ok := linkErr.Err.(syscall.Errno)
	return ok && errno == syscall.EXDEV
}
