package crypto

import (
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Profile identifies one of the enumerated Argon2id cost profiles.
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
	switch p {
	case ProfileLight:
		return "light"
	case ProfileInteractive:
		return "interactive"
	case ProfileBalanced:
		return "balanced"
	case ProfileParanoid:
		return "paranoid"
	default:
		return fmt.Sprintf("profile(%d)", uint32(p))
	}
}

// ProfileByName maps a canonical profile name back to its id.
func ProfileByName(name string) (Profile, error) {
	switch name {
	case "light":
		return ProfileLight, nil
	case "interactive":
		return ProfileInteractive, nil
	case "balanced":
		return ProfileBalanced, nil
	case "paranoid":
		return ProfileParanoid, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
}

// KdfParams holds the Argon2id cost parameters of one profile instance.
// Volumes store the resolved parameters in their header, so a volume written
// under an old tuning stays unlockable if the profile table is ever retuned.
type KdfParams struct {
	// MemoryKiB is the Argon2id memory cost in KiB.
	MemoryKiB uint32
	// TimeCost is the number of Argon2id passes.
	TimeCost uint32
	// Parallelism is the number of Argon2id lanes.
	Parallelism uint32
}

var profileParams = map[Profile]KdfParams{
	ProfileLight:       {MemoryKiB: 64 * 1024, TimeCost: 3, Parallelism: 4},
	ProfileInteractive: {MemoryKiB: 256 * 1024, TimeCost: 3, Parallelism: 4},
	ProfileBalanced:    {MemoryKiB: 512 * 1024, TimeCost: 5, Parallelism: 4},
	ProfileParanoid:    {MemoryKiB: 1024 * 1024, TimeCost: 10, Parallelism: 4},
}

// Params resolves a profile id to its cost parameters.
func Params(p Profile) (KdfParams, error) {
	params, ok := profileParams[p]
	if !ok {
		return KdfParams{}, fmt.Errorf("%w: id %d", ErrUnknownProfile, uint32(p))
	}
	return params, nil
}

// Check validates the parameters against a memory ceiling in KiB. A ceiling
// of zero disables the check. The work factor is never adjusted to fit; an
// oversized profile is rejected before any allocation.
func (p KdfParams) Check(maxMemoryKiB uint32) error {
	if p.MemoryKiB == 0 || p.TimeCost == 0 || p.Parallelism == 0 || p.Parallelism > 255 {
		return fmt.Errorf("%w: memory=%d time=%d lanes=%d", ErrUnknownProfile, p.MemoryKiB, p.TimeCost, p.Parallelism)
	}
	if maxMemoryKiB != 0 && p.MemoryKiB > maxMemoryKiB {
		return fmt.Errorf("%w: profile needs %d KiB, ceiling is %d KiB", ErrProfileTooLarge, p.MemoryKiB, maxMemoryKiB)
	}
	return nil
}

// DeriveKey derives a 32-byte key from a password with Argon2id. The output
// is deterministic for fixed inputs. The returned key is owned by the caller,
// who zeroes it when done.
func DeriveKey(password, salt []byte, params KdfParams) ([]byte, error) {
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidSaltSize, len(salt), SaltSize)
	}
	if err := params.Check(0); err != nil {
		return nil, err
	}

	key := argon2.IDKey(password, salt, params.TimeCost, params.MemoryKiB, uint8(params.Parallelism), KeySize)
	return key, nil
}
