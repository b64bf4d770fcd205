package pqvolume

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/qwamos/pqvolume/internal/crypto"
	"github.com/qwamos/pqvolume/internal/header"
	"github.com/qwamos/pqvolume/internal/sector"
)

// RotatePassword re-keys the volume at path under newPassword: a fresh salt,
// a fresh ML-KEM-1024 keypair and a fresh wrap chain replace the old header
// and private key blocks. The master key and nonce base never change, so the
// body is copied byte for byte and no sector is re-encrypted. The rewrite is
// atomic; a crash leaves the old volume intact and openable with the old
// password.
//
// The cost profile may change across a rotation. A configured KeyStore is
// applied to the rotated volume whether or not the old one used it.
func (m *Manager) RotatePassword(path string, oldPassword, newPassword []byte, newProfile Profile) error {
	if len(newPassword) == 0 {
		return fmt.Errorf("pqvolume: password must not be empty")
	}
	params, err := kdfParamsForProfile(newProfile)
	if err != nil {
		return &KdfError{Err: err}
	}
	if err := params.Check(m.cfg.maxKDFMemoryKiB); err != nil {
		return &KdfError{MemoryKiB: params.MemoryKiB, LimitKiB: m.cfg.maxKDFMemoryKiB, Err: err}
	}

	m.cfg.emit(1, 4, "Unlocking with current password", false)
	s, err := m.quiet().Unlock(path, oldPassword)
	if err != nil {
		return err
	}
	defer s.Lock()
	old := s.hdr

	m.cfg.emit(2, 4, "Rewrapping keys under new password", false)
	keyPair, err := crypto.GenerateKeyPair()
	if err != nil {
		return &CryptoError{Op: "keypair generation", Err: err}
	}
	defer keyPair.Zero()

	salt, err := crypto.RandomBytes(crypto.SaltSize)
	if err != nil {
		return &CryptoError{Op: "salt generation", Err: err}
	}
	kdfKey, err := crypto.DeriveKey(newPassword, salt, params)
	if err != nil {
		return &KdfError{Err: err}
	}
	defer crypto.Zero(kdfKey)

	kemCiphertext, sharedSecret, err := crypto.Encapsulate(keyPair.PublicKey)
	if err != nil {
		return &CryptoError{Op: "encapsulation", Err: err}
	}
	defer crypto.Zero(sharedSecret)

	wrapKey, err := crypto.DeriveWrapKey(kdfKey, sharedSecret, salt)
	if err != nil {
		return &CryptoError{Op: "wrap key derivation", Err: err}
	}
	defer crypto.Zero(wrapKey)

	wrappedMaster, err := crypto.Seal(wrapKey, crypto.ZeroNonce(), s.masterKey, nil)
	if err != nil {
		return &CryptoError{Op: "master key wrap", Err: err}
	}

	privBlob, keyStoreWrapped, err := m.sealPrivateKey(kdfKey, keyPair.PrivateKey, old.VolumeID)
	if err != nil {
		return err
	}
	privBlock := make([]byte, header.PrivateKeyBlockSize)
	copy(privBlock, privBlob)

	flags := old.Flags &^ FlagKeyStore
	if keyStoreWrapped {
		flags |= FlagKeyStore
	}

	hdr := &header.CurrentHeader{
		Version:        header.CurrentVersion,
		Flags:          flags,
		ProfileID:      uint32(newProfile),
		MemoryKiB:      params.MemoryKiB,
		TimeCost:       params.TimeCost,
		Parallelism:    params.Parallelism,
		VolumeSize:     old.VolumeSize,
		Created:        old.Created,
		Modified:       uint64(time.Now().Unix()),
		Salt:           salt,
		NonceBase:      old.NonceBase,
		VolumeID:       old.VolumeID,
		Label:          old.Label,
		WrappedPrivLen: uint32(len(privBlob)),
		KemCiphertext:  kemCiphertext,
		WrappedMaster:  wrappedMaster,
	}
	headerBlock, err := hdr.Serialize()
	if err != nil {
		return &FormatError{Path: path, Err: err}
	}

	m.cfg.emit(3, 4, "Copying volume body", false)
	tmp, tmpPath, err := newTempVolume(path, &volumeMaterial{hdr: hdr, headerBlock: headerBlock, privBlock: privBlock})
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := s.f.Seek(header.CurrentBodyOffset, io.SeekStart); err != nil {
		return &IOError{Op: "seek", Path: path, Sector: -1, Err: err}
	}
	if _, err := io.CopyN(tmp, s.f, sector.BodySize(old.VolumeSize)); err != nil {
		return &IOError{Op: "copy body", Path: path, Sector: -1, Err: err}
	}

	if err := commitTempVolume(tmp, tmpPath, path); err != nil {
		return err
	}
	committed = true
	m.cfg.emit(4, 4, "Password rotated", true)
	return nil
}
