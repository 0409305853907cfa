//go:build !windows

package lifecycle

import "golang.org/x/sys/unix"

// flockLock acquires an exclusive, blocking file lock, serializing
// concurrent policy writers across processes (not just within one), the
// same purpose the teacher's state/flock_unix.go serves for state.json.
func flockLock(fd uintptr) error {
	return unix.Flock(int(fd), unix.LOCK_EX)
}

func flockUnlock(fd uintptr) error {
	return unix.Flock(int(fd), unix.LOCK_UN)
}
