package tsugite

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// debugf prints debug messages when Debug is true
func debugf(format string, args ...any) {
	if Debug {
		fmt.Printf(format, args...)
	}
}

// withProjectLock serializes configure runs inside one project tree. Two
// concurrent runs would race on build.ninja and the generated asm files.
func withProjectLock(fn func() error) error {
	f, err := os.OpenFile(LockFile, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		return err
	}
	defer unix.Flock(int(f.Fd()), unix.LOCK_UN)
	return fn()
}
