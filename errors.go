package pqvolume

import (
	"errors"
	"fmt"

	"github.com/qwamos/pqvolume/internal/header"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrAuthFailed is returned when a password is wrong or the key wrap
	// chain does not authenticate. It carries no detail about which stage
	// failed.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrIntegrity is returned when a header integrity tag or MAC does not
	// match its contents.
	ErrIntegrity = errors.New("volume integrity check failed")

	// ErrInvalidMagic is returned when a file does not start with a known
	// volume magic.
	ErrInvalidMagic = errors.New("not a recognized volume file")

	// ErrUnsupportedVersion is returned when a header carries a format
	// version this library cannot handle.
	ErrUnsupportedVersion = errors.New("unsupported volume version")

	// ErrTruncated is returned when a volume file is shorter than its header.
	ErrTruncated = errors.New("volume file is truncated")

	// ErrSessionClosed is returned when I/O is attempted on a locked session.
	ErrSessionClosed = errors.New("session has been closed")

	// ErrVolumeLocked is returned when another session holds the volume's
	// advisory lock.
	ErrVolumeLocked = errors.New("volume is locked by another session")

	// ErrKeyStoreRequired is returned when a volume's private key is
	// keystore-wrapped but no KeyStore is configured.
	ErrKeyStoreRequired = errors.New("volume requires a configured key store")

	// ErrVolumeExists is returned when creating or migrating onto a path
	// that already exists.
	ErrVolumeExists = errors.New("volume file already exists")
)

// VolumeError is implemented by all errors this package returns for volume
// operations.
type VolumeError interface {
	error
	VolumeError() // marker method
}

// FormatError reports a corrupt or unsupported volume header.
type FormatError struct {
	Path string
	Err  error
}

func (e *FormatError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("invalid volume format: %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("invalid volume format: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *FormatError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *FormatError) Is(target error) bool {
	switch target {
	case ErrInvalidMagic:
		return errors.Is(e.Err, header.ErrInvalidMagic)
	case ErrUnsupportedVersion:
		return errors.Is(e.Err, header.ErrUnsupportedVersion)
	case ErrTruncated:
		return errors.Is(e.Err, header.ErrTruncated)
	}
	return false
}

// VolumeError implements the VolumeError interface.
func (e *FormatError) VolumeError() {}

// IntegrityError indicates tampering or corruption detected by a header
// integrity tag, a legacy header MAC, or a sector authentication tag.
type IntegrityError struct {
	Path string
	// Sector is the affected sector index, or -1 for header-level failures.
	Sector int64
	Detail string
}

func (e *IntegrityError) Error() string {
	if e.Sector >= 0 {
		return fmt.Sprintf("integrity check failed: %s: sector %d: %s", e.Path, e.Sector, e.Detail)
	}
	return fmt.Sprintf("integrity check failed: %s: %s", e.Path, e.Detail)
}

// Is implements errors.Is for sentinel error matching.
func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrity
}

// VolumeError implements the VolumeError interface.
func (e *IntegrityError) VolumeError() {}

// AuthError indicates a wrong password or a corrupted key wrap chain. The
// message is constant: nothing about the failing stage is revealed.
type AuthError struct{}

func (e *AuthError) Error() string {
	return "authentication failed"
}

// Is implements errors.Is for sentinel error matching.
func (e *AuthError) Is(target error) bool {
	return target == ErrAuthFailed
}

// VolumeError implements the VolumeError interface.
func (e *AuthError) VolumeError() {}

// KdfError indicates that a key derivation profile could not be used, either
// because its resource demand exceeds the configured ceiling or because the
// profile is unknown.
type KdfError struct {
	MemoryKiB uint32
	LimitKiB  uint32
	Err       error
}

func (e *KdfError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("key derivation failed: %v", e.Err)
	}
	return fmt.Sprintf("key derivation rejected: profile needs %d KiB, limit is %d KiB", e.MemoryKiB, e.LimitKiB)
}

// Unwrap returns the underlying error.
func (e *KdfError) Unwrap() error {
	return e.Err
}

// VolumeError implements the VolumeError interface.
func (e *KdfError) VolumeError() {}

// CryptoError indicates a primitive or configuration failure outside the
// authentication path: RNG exhaustion, a missing KeyStore for a
// keystore-wrapped volume, a KeyStore wrap failure.
type CryptoError struct {
	Op  string
	Err error
}

func (e *CryptoError) Error() string {
	return fmt.Sprintf("crypto failure during %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *CryptoError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *CryptoError) Is(target error) bool {
	return target == ErrKeyStoreRequired && errors.Is(e.Err, ErrKeyStoreRequired)
}

// VolumeError implements the VolumeError interface.
func (e *CryptoError) VolumeError() {}

// IOError reports a storage failure.
type IOError struct {
	Op   string
	Path string
	// Sector is the affected sector index, or -1 when the failure is not
	// sector-scoped.
	Sector int64
	Err    error
}

func (e *IOError) Error() string {
	if e.Sector >= 0 {
		return fmt.Sprintf("%s %s: sector %d: %v", e.Op, e.Path, e.Sector, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *IOError) Unwrap() error {
	return e.Err
}

// VolumeError implements the VolumeError interface.
func (e *IOError) VolumeError() {}

// wrapParseError converts internal header errors to public errors so that
// errors.Is() checks work with public sentinels.
func wrapParseError(path string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, header.ErrIntegrityTag) {
		return &IntegrityError{Path: path, Sector: -1, Detail: "header integrity tag mismatch"}
	}
	return &FormatError{Path: path, Err: err}
}
