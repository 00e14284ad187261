//go:build unix

package repository

import (
	"os"

	"golang.org/x/sys/unix"
)

// Advisory flock(2) locks on the events file. They are released when the
// file is closed.

func lockShared(f *os.File) error {
	return flock(f, unix.LOCK_SH)
}

func lockExclusive(f *os.File) error {
	return flock(f, unix.LOCK_EX)
}

func flock(f *os.File, how int) error {
	for {
		err := unix.Flock(int(f.Fd()), how)
		if err != unix.EINTR {
			return err
		}
	}
}
