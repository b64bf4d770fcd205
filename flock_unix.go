//go:build linux || darwin

package pqvolume

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// lockVolumeFile takes the exclusive advisory lock that guards a volume
// file against concurrent sessions. The lock is released when the file is
// closed.
func lockVolumeFile(f *os.File) error {
	err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if errors.Is(err, unix.EWOULDBLOCK) {
		return ErrVolumeLocked
	}
	return err
}
