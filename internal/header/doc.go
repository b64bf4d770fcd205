// Package header implements the fixed-size binary codecs for QWAMOS volume
// headers.
//
// Two layouts exist. The current post-quantum layout ("QWAMOSPQ", 2048 bytes,
// big-endian) is written and read; the retired first-generation layout
// ("QWAMOSV1", 4096 bytes, little-endian) is read-only and exists so volumes
// can be migrated. The first eight bytes of a volume select the layout: a
// [Header] is a tagged union, never a class hierarchy, and [Parse] is the
// only dispatch point.
//
// # Integrity
//
// A current-format header carries a BLAKE3-256 tag over everything before
// the tag itself. [Parse] verifies the tag right after magic dispatch and
// before interpreting any other field, so a tampered header surfaces as
// [ErrIntegrityTag] rather than as whichever field check the flipped bit
// happens to hit. Legacy headers carry a keyed BLAKE2b MAC instead; the key
// is derived from the password, so the caller verifies it after key
// derivation using the retained [LegacyHeader.MACPrefix].
//
// # Errors
//
// All parse failures are sentinel errors ([ErrInvalidMagic],
// [ErrUnsupportedVersion], [ErrTruncated], ...) suitable for errors.Is; the
// public package maps them onto its error taxonomy.
package header
