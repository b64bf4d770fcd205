//go:build !linux && !darwin

package pqvolume

import "os"

// lockVolumeFile is a no-op on platforms without flock support; concurrent
// sessions on the same file are not detected there.
func lockVolumeFile(f *os.File) error {
	return nil
}
