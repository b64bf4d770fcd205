package pqvolume

import "github.com/qwamos/pqvolume/internal/crypto"

// setKDFParamsForTesting replaces the profile-to-cost resolution used by
// Create, RotatePassword and MigrateLegacy, keeping password derivations
// cheap in tests. Returns a function to restore the original resolution.
// Unlock is unaffected: it reads its costs from the volume header, so
// volumes created under a test resolution unlock under it automatically.
func setKDFParamsForTesting(fn func(p Profile) (crypto.KdfParams, error)) func() {
	original := kdfParamsForProfile
	kdfParamsForProfile = fn
	return func() { kdfParamsForProfile = original }
}
