// Package sector implements the body geometry shared by both volume
// formats: fixed 4096-byte plaintext sectors stored with their AEAD tag
// appended, per-sector nonce composition, and the bounded retry policy
// applied to transient body I/O failures.
//
// The package is pure math plus policy. It never touches files and never
// holds key material; callers own bounds checking against the volume size.
package sector
