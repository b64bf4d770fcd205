package pqvolume

import (
	"github.com/qwamos/pqvolume/internal/crypto"
	"github.com/qwamos/pqvolume/internal/header"
	"github.com/qwamos/pqvolume/internal/sector"
)

// Profile selects an Argon2id cost preset for password-based key derivation.
// The resolved costs are stored in the volume header, so volumes created
// under one preset table remain unlockable if the table is retuned.
type Profile uint32

const (
	// ProfileLight targets constrained hosts: 64 MiB, 3 passes.
	ProfileLight Profile = 1
	// ProfileInteractive trades memory for unlock latency: 256 MiB, 3 passes.
	ProfileInteractive Profile = 2
	// ProfileBalanced is the default: 512 MiB, 5 passes.
	ProfileBalanced Profile = 3
	// ProfileParanoid maximizes cracking cost: 1 GiB, 10 passes.
	ProfileParanoid Profile = 4
)

// String returns the canonical lowercase profile name.
func (p Profile) String() string {
	return crypto.Profile(p).String()
}

// ParseProfile maps a canonical profile name ("light", "interactive",
// "balanced", "paranoid") to its Profile.
func ParseProfile(name string) (Profile, error) {
	p, err := crypto.ProfileByName(name)
	if err != nil {
		return 0, &KdfError{Err: err}
	}
	return Profile(p), nil
}

// Volume flag bits stored in the current header. Only FlagKeyStore changes
// behavior in this library; the others are carried for compatibility with
// existing tooling.
const (
	// FlagCompressed marks per-sector compression.
	FlagCompressed = header.FlagCompressed
	// FlagHidden marks a hidden volume.
	FlagHidden = header.FlagHidden
	// FlagKeyfile marks keyfile-augmented authentication.
	FlagKeyfile = header.FlagKeyfile
	// FlagKeyStore marks a private key block additionally wrapped by a
	// device keystore. Set automatically when a KeyStore is configured.
	FlagKeyStore = header.FlagKeyStore
)

const (
	defaultSectorWorkers   = 4
	defaultMaxKDFMemoryKiB = 1024 * 1024 // 1 GiB
)

// managerConfig holds configuration for the volume manager.
type managerConfig struct {
	keyStore        KeyStore
	progress        ProgressFunc
	workers         int
	maxKDFMemoryKiB uint32
	retry           *sector.RetryConfig
}

func defaultManagerConfig() managerConfig {
	return managerConfig{
		workers:         defaultSectorWorkers,
		maxKDFMemoryKiB: defaultMaxKDFMemoryKiB,
		retry:           sector.DefaultRetryConfig(),
	}
}

// createConfig holds per-call configuration for Create and MigrateLegacy.
type createConfig struct {
	label string
	flags uint32
}

// Option configures the volume manager.
type Option func(*managerConfig)

// CreateOption configures volume creation and migration output.
type CreateOption func(*createConfig)

// WithKeyStore sets a device keystore that additionally wraps the stored
// private key. Volumes created with one set the keystore flag and can only
// be unlocked by a manager configured with a KeyStore.
func WithKeyStore(ks KeyStore) Option {
	return func(c *managerConfig) {
		c.keyStore = ks
	}
}

// WithProgress sets a callback receiving progress events from Create,
// Unlock, RotatePassword and MigrateLegacy.
func WithProgress(fn ProgressFunc) Option {
	return func(c *managerConfig) {
		c.progress = fn
	}
}

// WithSectorWorkers sets the number of concurrent workers used by
// MigrateLegacy for sector transcoding.
// Default: 4
func WithSectorWorkers(n int) Option {
	return func(c *managerConfig) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithMaxKDFMemory sets the ceiling, in KiB, on the Argon2id memory a
// profile may demand. Profiles over the ceiling are rejected with a
// KdfError before any allocation; the work factor is never downgraded.
// A value of zero disables the ceiling.
// Default: 1 GiB
func WithMaxKDFMemory(kib uint32) Option {
	return func(c *managerConfig) {
		c.maxKDFMemoryKiB = kib
	}
}

// WithIORetries sets the number of retry attempts for transient body I/O
// failures. Authentication and format failures are never retried.
// Default: 3
func WithIORetries(count int) Option {
	return func(c *managerConfig) {
		if count >= 0 {
			c.retry.MaxRetries = count
		}
	}
}

// WithLabel sets the human-readable volume label, at most 64 bytes of UTF-8.
func WithLabel(label string) CreateOption {
	return func(c *createConfig) {
		c.label = label
	}
}

// WithFlags sets additional header flag bits on the new volume. The
// keystore bit is managed by the library and cannot be set here.
func WithFlags(flags uint32) CreateOption {
	return func(c *createConfig) {
		c.flags = flags &^ FlagKeyStore
	}
}
