package pqvolume

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/qwamos/pqvolume/internal/crypto"
	"github.com/qwamos/pqvolume/internal/header"
)

// Unlock opens the volume at path with password and returns a live Session.
// It takes an exclusive advisory lock on the file; a second concurrent
// unlock fails with ErrVolumeLocked.
//
// Failure reporting is coarse past header validation: once the key unwrap
// chain starts, a wrong password and corrupted key material must stay
// indistinguishable, so both surface as AuthError.
func (m *Manager) Unlock(path string, password []byte) (*Session, error) {
	m.cfg.emit(1, 7, "Opening volume", false)
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Sector: -1, Err: err}
	}
	ok := false
	defer func() {
		if !ok {
			f.Close()
		}
	}()

	if err := lockVolumeFile(f); err != nil {
		if errors.Is(err, ErrVolumeLocked) {
			return nil, err
		}
		return nil, &IOError{Op: "lock", Path: path, Sector: -1, Err: err}
	}

	m.cfg.emit(2, 7, "Verifying volume header", false)
	buf := make([]byte, header.LegacyHeaderSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, &IOError{Op: "read header", Path: path, Sector: -1, Err: err}
	}
	hdr, err := header.Parse(buf[:n])
	if err != nil {
		return nil, wrapParseError(path, err)
	}
	if hdr.Format == header.FormatLegacy {
		return nil, &FormatError{Path: path, Err: fmt.Errorf("%w: legacy volume, migrate it first", header.ErrUnsupportedVersion)}
	}
	cur := hdr.Current

	m.cfg.emit(3, 7, "Deriving key from password", false)
	params := crypto.KdfParams{MemoryKiB: cur.MemoryKiB, TimeCost: cur.TimeCost, Parallelism: cur.Parallelism}
	if err := params.Check(m.cfg.maxKDFMemoryKiB); err != nil {
		return nil, &KdfError{MemoryKiB: params.MemoryKiB, LimitKiB: m.cfg.maxKDFMemoryKiB, Err: err}
	}
	kdfKey, err := crypto.DeriveKey(password, cur.Salt, params)
	if err != nil {
		return nil, &KdfError{Err: err}
	}
	defer crypto.Zero(kdfKey)

	m.cfg.emit(4, 7, "Unwrapping private key", false)
	privBlock := make([]byte, header.PrivateKeyBlockSize)
	if _, err := f.ReadAt(privBlock, header.CurrentHeaderSize); err != nil {
		return nil, &IOError{Op: "read private key block", Path: path, Sector: -1, Err: err}
	}
	privBlob := privBlock[:cur.WrappedPrivLen]

	if cur.Flags&FlagKeyStore != 0 {
		if m.cfg.keyStore == nil {
			return nil, &CryptoError{Op: "private key unwrap", Err: ErrKeyStoreRequired}
		}
		privBlob, err = m.cfg.keyStore.Unwrap(privBlob)
		if err != nil {
			return nil, &AuthError{}
		}
	}

	privateKey, err := openPrivateKey(kdfKey, privBlob, cur.VolumeID)
	if err != nil {
		return nil, &AuthError{}
	}
	defer crypto.Zero(privateKey)

	m.cfg.emit(5, 7, "Decapsulating shared secret", false)
	sharedSecret, err := crypto.Decapsulate(privateKey, cur.KemCiphertext)
	if err != nil {
		return nil, &AuthError{}
	}
	defer crypto.Zero(sharedSecret)

	m.cfg.emit(6, 7, "Unwrapping master key", false)
	wrapKey, err := crypto.DeriveWrapKey(kdfKey, sharedSecret, cur.Salt)
	if err != nil {
		return nil, &AuthError{}
	}
	defer crypto.Zero(wrapKey)

	masterKey, err := crypto.Open(wrapKey, crypto.ZeroNonce(), cur.WrappedMaster, nil)
	if err != nil {
		return nil, &AuthError{}
	}

	m.cfg.emit(7, 7, "Session ready", true)
	ok = true
	return newSession(f, path, cur, masterKey, m.cfg.retry), nil
}

// openPrivateKey opens a nonce-prefixed sealed private key blob bound to the
// volume identity.
func openPrivateKey(kdfKey, blob, volumeID []byte) ([]byte, error) {
	if len(blob) < crypto.NonceSize+crypto.TagSize {
		return nil, crypto.ErrCiphertextTooShort
	}
	return crypto.Open(kdfKey, blob[:crypto.NonceSize], blob[crypto.NonceSize:], volumeID)
}
