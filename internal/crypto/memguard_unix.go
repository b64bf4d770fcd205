//go:build linux || darwin

package crypto

import "golang.org/x/sys/unix"

// LockMemory pins b's pages into RAM so key material cannot be swapped out.
// Best effort: hosts with a tight RLIMIT_MEMLOCK return an error and the
// caller proceeds without the pin.
func LockMemory(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return unix.Mlock(b)
}

// UnlockMemory releases pages pinned by [LockMemory].
func UnlockMemory(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return unix.Munlock(b)
}
